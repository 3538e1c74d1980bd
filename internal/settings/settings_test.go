package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electisspace/spacectl/internal/api"
	"github.com/electisspace/spacectl/internal/log"
	"github.com/electisspace/spacectl/internal/token"
)

func newStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, token.NewManager(), api.WithLogger(log.Discard()))
	return NewStore(client, log.Discard())
}

func TestFetchLoadsSettingsForActiveStore(t *testing.T) {
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stores/s1/settings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.StoreSettings{
			StoreID:   "s1",
			CompanyID: "c1",
			Timezone:  "Europe/Paris",
		})
	}))

	store.SetActiveIDs("c1", "s1")
	require.NoError(t, store.Fetch(context.Background()))

	current := store.Current()
	require.NotNil(t, current)
	assert.Equal(t, "Europe/Paris", current.Timezone)
}

func TestFetchWithoutActiveStoreIsNoop(t *testing.T) {
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	require.NoError(t, store.Fetch(context.Background()))
	assert.Nil(t, store.Current())
}

func TestSetActiveIDsDropsStaleSnapshot(t *testing.T) {
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.StoreSettings{StoreID: "s1"})
	}))

	store.SetActiveIDs("c1", "s1")
	require.NoError(t, store.Fetch(context.Background()))
	require.NotNil(t, store.Current())

	// Switching context invalidates the snapshot synchronously.
	store.SetActiveIDs("c1", "s2")
	assert.Nil(t, store.Current())

	// Re-setting the same ids keeps whatever is loaded.
	store.SetActiveIDs("c1", "s2")
	assert.Nil(t, store.Current())
}

func TestClear(t *testing.T) {
	store := newStore(t, http.NotFoundHandler())
	store.SetActiveIDs("c1", "s1")
	store.Clear()

	companyID, storeID := store.ActiveIDs()
	assert.Empty(t, companyID)
	assert.Empty(t, storeID)
	assert.Nil(t, store.Current())
}
