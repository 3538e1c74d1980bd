package token

import (
	"sync"
)

// Manager holds the in-memory access and refresh tokens.
//
// It is pure storage: no expiry logic lives here. The absence of an
// access token is the signal the session layer uses to force a
// logged-out state even when a stale user snapshot is still cached.
type Manager struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

// NewManager creates an empty token manager.
func NewManager() *Manager {
	return &Manager{}
}

// AccessToken returns the current access token, or "" when logged out.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access
}

// RefreshToken returns the current refresh token, or "" in the
// cookie-based variant where the client never sees one.
func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refresh
}

// HasAccessToken reports whether an access token is present.
func (m *Manager) HasAccessToken() bool {
	return m.AccessToken() != ""
}

// SetTokens stores a new access token. The refresh token is replaced
// only when non-empty: the cookie-based refresh response carries no
// refresh token in the body and must not wipe a body-based one.
func (m *Manager) SetTokens(access, refresh string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = access
	if refresh != "" {
		m.refresh = refresh
	}
}

// Clear removes both tokens.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = ""
	m.refresh = ""
}
