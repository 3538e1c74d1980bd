package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electisspace/spacectl/internal/aims"
	"github.com/electisspace/spacectl/internal/api"
	"github.com/electisspace/spacectl/internal/domain"
	"github.com/electisspace/spacectl/internal/log"
	"github.com/electisspace/spacectl/internal/metrics"
	"github.com/electisspace/spacectl/internal/session"
	"github.com/electisspace/spacectl/internal/settings"
	"github.com/electisspace/spacectl/internal/token"
)

type fixture struct {
	guard   *Guard
	session *session.Store
	aims    *aims.Connector
}

type serverOpts struct {
	user          api.User
	aimsConnected bool
	configured    bool
	admins        []api.AdminContact
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newFixture(t *testing.T, opts serverOpts) *fixture {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /users/me/context", func(w http.ResponseWriter, r *http.Request) {
		var update struct {
			ActiveStoreID *string `json:"activeStoreId"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		user := opts.user
		if update.ActiveStoreID != nil {
			user.ActiveStoreID = *update.ActiveStoreID
		}
		writeJSON(w, map[string]any{"user": user})
	})
	mux.HandleFunc("GET /stores/{id}/settings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"storeId": r.PathValue("id")})
	})
	mux.HandleFunc("POST /auth/solum-connect", func(w http.ResponseWriter, r *http.Request) {
		if !opts.aimsConnected {
			w.WriteHeader(http.StatusBadGateway)
			writeJSON(w, map[string]string{"code": "SERVER_ERROR"})
			return
		}
		writeJSON(w, map[string]any{
			"connected": true,
			"config":    map[string]string{"baseUrl": "https://aims.example.com", "cluster": "eu"},
		})
	})
	mux.HandleFunc("GET /stores/{id}/connection-info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, api.ConnectionInfo{Configured: opts.configured, Admins: opts.admins})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"user": opts.user})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	logger := log.Discard()
	tokens := token.NewManager()
	tokens.SetTokens("tok", "")
	client := api.NewClient(server.URL, tokens, api.WithLogger(logger))
	connector := aims.NewConnector(client, logger, metrics.New())

	sess := session.New(session.Config{
		Client:   client,
		Tokens:   tokens,
		Settings: settings.NewStore(client, logger),
		Siblings: domain.NewRegistry(logger),
		AIMS:     connector,
		Logger:   logger,
		Metrics:  metrics.New(),
	})
	require.True(t, sess.Restore(context.Background()))

	return &fixture{
		guard:   New(sess, connector, logger),
		session: sess,
		aims:    connector,
	}
}

// multiStoreUser has no active store, which is what triggers the guard.
func multiStoreUser() api.User {
	return api.User{
		ID: "u1", Email: "kim@example.com",
		Companies: []api.Company{
			{ID: "c1", Name: "Acme", Role: api.RoleCompanyAdmin},
			{ID: "c2", Name: "Globex", Role: api.RoleCompanyViewer},
		},
		Stores: []api.Store{
			{ID: "s1", Name: "Downtown", CompanyID: "c1", CompanyName: "Acme", Role: api.RoleStoreManager},
			{ID: "s2", Name: "Airport", CompanyID: "c2", CompanyName: "Globex", Role: api.RoleStoreViewer},
			{ID: "s3", Name: "Harbor", CompanyID: "c2", CompanyName: "Globex", Role: api.RoleStoreEmployee},
		},
	}
}

func TestRequiredOnlyWithoutActiveStore(t *testing.T) {
	f := newFixture(t, serverOpts{user: multiStoreUser(), aimsConnected: true})

	// Restore already derived and committed a fallback store.
	assert.False(t, f.guard.Required())

	noStores := multiStoreUser()
	noStores.Stores = nil
	g := newFixture(t, serverOpts{user: noStores, aimsConnected: true})
	assert.True(t, g.guard.Required())
}

func TestChoicesGroupedByCompany(t *testing.T) {
	f := newFixture(t, serverOpts{user: multiStoreUser(), aimsConnected: true})

	groups := f.guard.Choices()

	require.Len(t, groups, 2)
	assert.Equal(t, "Acme", groups[0].CompanyName)
	require.Len(t, groups[0].Stores, 1)
	assert.Equal(t, "Globex", groups[1].CompanyName)
	require.Len(t, groups[1].Stores, 2)
	assert.Equal(t, "Airport", groups[1].Stores[0].Name, "stores sorted by name")
}

func TestAutoSelectableSingleStore(t *testing.T) {
	user := multiStoreUser()
	user.Stores = user.Stores[:1]
	f := newFixture(t, serverOpts{user: user, aimsConnected: true})

	storeID, ok := f.guard.AutoSelectable()
	require.True(t, ok)
	assert.Equal(t, "s1", storeID)

	multi := newFixture(t, serverOpts{user: multiStoreUser(), aimsConnected: true})
	_, ok = multi.guard.AutoSelectable()
	assert.False(t, ok)
}

func TestRunConnectedStoreLandsOnAIMSOK(t *testing.T) {
	f := newFixture(t, serverOpts{user: multiStoreUser(), aimsConnected: true})

	out := f.guard.Run(context.Background(), "s2")

	assert.Equal(t, StateAIMSOK, out.State)
	_, storeID := f.session.ActiveIDs()
	assert.Equal(t, "s2", storeID, "store committed as active context")
}

func TestRunCompanyAdminUnconfiguredNeedsCreds(t *testing.T) {
	f := newFixture(t, serverOpts{user: multiStoreUser(), aimsConnected: false, configured: false})

	// s1 is in c1 where the user is COMPANY_ADMIN.
	out := f.guard.Run(context.Background(), "s1")

	assert.Equal(t, StateNeedsCreds, out.State)
	_, storeID := f.session.ActiveIDs()
	assert.Equal(t, "s1", storeID, "store still committed")
}

func TestRunNonAdminUnconfiguredContactAdmin(t *testing.T) {
	admins := []api.AdminContact{{Name: "Pat Admin", Email: "pat@example.com"}}
	f := newFixture(t, serverOpts{user: multiStoreUser(), aimsConnected: false, admins: admins})

	// s2 is in c2 where the user is only VIEWER.
	out := f.guard.Run(context.Background(), "s2")

	assert.Equal(t, StateContactAdmin, out.State)
	require.Len(t, out.Contacts, 1)
	assert.Equal(t, "pat@example.com", out.Contacts[0].Email)
}

func TestRunConfiguredStoreSkipsCredsFlow(t *testing.T) {
	// AIMS config exists server-side but the connect call is failing.
	f := newFixture(t, serverOpts{user: multiStoreUser(), aimsConnected: false, configured: true})

	out := f.guard.Run(context.Background(), "s2")

	assert.Equal(t, StateAIMSOK, out.State)
}

func TestRunPlatformAdminNeverBlocked(t *testing.T) {
	user := multiStoreUser()
	user.Role = api.RolePlatformAdmin
	f := newFixture(t, serverOpts{user: user, aimsConnected: false, configured: false})

	out := f.guard.Run(context.Background(), "s2")

	assert.Equal(t, StateAIMSOK, out.State)
}

func TestRunUnknownStoreIsRejectedLocally(t *testing.T) {
	f := newFixture(t, serverOpts{user: multiStoreUser(), aimsConnected: true})

	out := f.guard.Run(context.Background(), "nope")

	assert.Equal(t, StateIdle, out.State)
	_, storeID := f.session.ActiveIDs()
	assert.NotEqual(t, "nope", storeID)
}

func TestContinueWithoutAIMS(t *testing.T) {
	f := newFixture(t, serverOpts{user: multiStoreUser(), aimsConnected: false})

	out := f.guard.ContinueWithoutAIMS("s1")

	assert.Equal(t, StateAIMSOK, out.State)
	assert.Equal(t, "s1", out.StoreID)
}

func TestRetryAfterCredentialsEntered(t *testing.T) {
	f := newFixture(t, serverOpts{user: multiStoreUser(), aimsConnected: true})

	out := f.guard.Retry(context.Background(), "s1")

	assert.Equal(t, StateAIMSOK, out.State)
	connected, storeID, _ := f.aims.Status()
	assert.True(t, connected)
	assert.Equal(t, "s1", storeID)
}
