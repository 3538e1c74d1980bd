package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electisspace/spacectl/internal/log"
	"github.com/electisspace/spacectl/internal/token"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *token.Manager) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens := token.NewManager()
	client := NewClient(server.URL, tokens, WithLogger(log.Discard()))
	return client, tokens
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	client, tokens := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		writeJSON(w, http.StatusOK, meResponse{User: User{ID: "u1"}})
	}))
	tokens.SetTokens("tok-1", "")

	_, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestNoBearerWhenLoggedOut(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, LoginResponse{Email: "a@b.com", RequiresVerification: true})
	}))

	resp, err := client.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.True(t, resp.RequiresVerification)
}

// Concurrent 401s must coalesce into exactly one refresh call, with
// every original request replayed and succeeding on the new token.
func TestConcurrent401sRefreshExactlyOnce(t *testing.T) {
	var refreshCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		time.Sleep(50 * time.Millisecond)
		writeJSON(w, http.StatusOK, refreshResponse{AccessToken: "fresh"})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, serverError{Error: "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, meResponse{User: User{ID: "u1"}})
	})

	client, tokens := newTestClient(t, mux)
	tokens.SetTokens("stale", "refresh-token")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Me(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, int64(1), refreshCalls.Load())
	assert.Equal(t, "fresh", tokens.AccessToken())
}

func TestRefreshFailureRejectsAllAndFiresCallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
		writeJSON(w, http.StatusUnauthorized, serverError{Error: "refresh token revoked"})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, serverError{Error: "token expired"})
	})

	client, tokens := newTestClient(t, mux)
	tokens.SetTokens("stale", "refresh-token")

	var expired atomic.Int64
	client.OnSessionExpired(func() { expired.Add(1) })

	const n = 4
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Me(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.Error(t, err, "request %d", i)
	}
	assert.Empty(t, tokens.AccessToken())
	assert.Empty(t, tokens.RefreshToken())
	assert.Equal(t, int64(1), expired.Load())
}

func TestRetriedRequestNotRefreshedTwice(t *testing.T) {
	// A request that still 401s after one replay must fail, not loop.
	var refreshCalls, meCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, http.StatusOK, refreshResponse{AccessToken: fmt.Sprintf("fresh-%d", refreshCalls.Load())})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		writeJSON(w, http.StatusUnauthorized, serverError{Error: "nope"})
	})

	client, tokens := newTestClient(t, mux)
	tokens.SetTokens("stale", "refresh-token")

	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(1), refreshCalls.Load())
	assert.Equal(t, int64(2), meCalls.Load())
}

func TestVerify2FAStoresTokens(t *testing.T) {
	client, tokens := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Verify2FARequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@b.com", req.Email)
		assert.Equal(t, "123456", req.Code)
		writeJSON(w, http.StatusOK, Verify2FAResponse{
			AccessToken: "access-1",
			ExpiresIn:   900,
			User:        User{ID: "u1", Email: "a@b.com"},
		})
	}))

	resp, err := client.Verify2FA(context.Background(), "a@b.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, "access-1", tokens.AccessToken())
}

func TestUpdateContextPatchesAndReturnsUser(t *testing.T) {
	client, tokens := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/users/me/context", r.URL.Path)

		var req ContextUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.ActiveStoreID)
		writeJSON(w, http.StatusOK, contextResponse{User: User{ID: "u1", ActiveStoreID: *req.ActiveStoreID}})
	}))
	tokens.SetTokens("tok", "")

	storeID := "s2"
	user, err := client.UpdateContext(context.Background(), ContextUpdate{ActiveStoreID: &storeID})
	require.NoError(t, err)
	assert.Equal(t, "s2", user.ActiveStoreID)
}

func TestConnectionRefused(t *testing.T) {
	// Point at a closed port.
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, token.NewManager(), WithLogger(log.Discard()))
	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, CodeConnectionRefused, ErrorCode(err))
}
