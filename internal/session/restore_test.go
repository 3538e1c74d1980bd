package session

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electisspace/spacectl/internal/api"
	"github.com/electisspace/spacectl/internal/token"
)

func TestRestoreWithNothingPersistedStaysAnonymous(t *testing.T) {
	h := newHarness(t, func(h *harness, mux *http.ServeMux) {
		mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"code": "INVALID_CREDENTIALS"})
		})
	})

	restored := h.store.Restore(context.Background())

	require.False(t, restored)
	snap := h.store.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.True(t, snap.IsInitialized, "restore always initializes")
	assert.True(t, snap.IsAppReady, "a failed restore never hangs startup")
}

func TestRestoreWithAccessTokenLoadsUser(t *testing.T) {
	user := testUser()
	user.ActiveCompanyID = "c1"
	user.ActiveStoreID = "s1"
	h := newHarness(t, loginHandlers(user))
	h.tokens.SetTokens("tok-live", "")

	restored := h.store.Restore(context.Background())

	require.True(t, restored)
	snap := h.store.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "anna@example.com", snap.User.Email)
	assert.Equal(t, "c1", snap.ActiveCompanyID)
	assert.Equal(t, "s1", snap.ActiveStoreID)
	assert.NotNil(t, h.settings.Current(), "settings loaded before app-ready")
}

func TestRestoreRunsOnce(t *testing.T) {
	h := newHarness(t, loginHandlers(testUser()))
	h.tokens.SetTokens("tok-live", "")

	require.True(t, h.store.Restore(context.Background()))
	before := h.requestCount()

	require.True(t, h.store.Restore(context.Background()))
	assert.Equal(t, before, h.requestCount(), "second restore is a no-op")
}

func TestRestoreInvalidTokenEndsLoggedOut(t *testing.T) {
	h := newHarness(t, func(h *harness, mux *http.ServeMux) {
		mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"code": "INVALID_CREDENTIALS"})
		})
		mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"code": "INVALID_CREDENTIALS"})
		})
	})
	h.tokens.SetTokens("tok-expired", "")

	restored := h.store.Restore(context.Background())

	require.False(t, restored)
	snap := h.store.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.True(t, snap.IsAppReady)
	assert.False(t, h.tokens.HasAccessToken(), "dead tokens are dropped")
}

func TestRestorePersistedContextWinsWhenStillAccessible(t *testing.T) {
	user := testUser()
	user.ActiveCompanyID = "c1"
	user.ActiveStoreID = "s1"
	h := newHarness(t, loginHandlers(user))
	h.tokens.SetTokens("tok-live", "")

	// The previous process left a different, still-valid context.
	saved := testUser()
	require.NoError(t, h.store.state.Save(&saved, "c2", "s2"))

	require.True(t, h.store.Restore(context.Background()))

	companyID, storeID := h.store.ActiveIDs()
	assert.Equal(t, "c2", companyID)
	assert.Equal(t, "s2", storeID)
}

func TestRestoreDropsPersistedStoreFromOtherCompany(t *testing.T) {
	user := testUser()
	user.ActiveCompanyID = "c1"
	h := newHarness(t, loginHandlers(user))
	h.tokens.SetTokens("tok-live", "")

	// Persisted store s2 belongs to c2, not to the chosen company c1.
	saved := testUser()
	require.NoError(t, h.store.state.Save(&saved, "c1", "s2"))

	require.True(t, h.store.Restore(context.Background()))

	companyID, storeID := h.store.ActiveIDs()
	assert.Equal(t, "c1", companyID)
	assert.NotEqual(t, "s2", storeID)
}

func TestDeriveActiveContextFallsBackToFirstEntries(t *testing.T) {
	user := testUser()
	companyID, storeID := deriveActiveContext(&user)
	assert.Equal(t, "c1", companyID)
	assert.Equal(t, "s1", storeID)

	empty := api.User{}
	companyID, storeID = deriveActiveContext(&empty)
	assert.Empty(t, companyID)
	assert.Empty(t, storeID)
}

func TestStateFileRoundTrip(t *testing.T) {
	f := NewStateFile(t.TempDir())
	user := testUser()

	require.NoError(t, f.Save(&user, "c1", "s1"))

	got, companyID, storeID, ok, err := f.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c1", companyID)
	assert.Equal(t, "s1", storeID)
	require.NotNil(t, got)
	assert.Equal(t, user.Email, got.Email)

	require.NoError(t, f.Delete())
	_, _, _, ok, err = f.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting twice is fine.
	require.NoError(t, f.Delete())
}

func TestRestoreLoadsPersistedCredentials(t *testing.T) {
	user := testUser()
	user.ActiveCompanyID = "c1"
	user.ActiveStoreID = "s1"
	h := newHarness(t, loginHandlers(user))

	creds := token.NewFileStore(t.TempDir())
	require.NoError(t, creds.Save("tok-disk", "ref-disk", "anna@example.com"))
	h.store.creds = creds

	require.True(t, h.store.Restore(context.Background()))

	assert.True(t, h.store.IsAuthenticated())
	assert.Equal(t, "tok-disk", h.tokens.AccessToken())
}
