// Package session owns the client-side authentication state machine:
// login and 2FA, the active company/store context, silent restore, and
// background revalidation.
//
// State flow, informally: anonymous → login-pending → authenticated →
// (switching-context → authenticated)* — and any state drops back to
// anonymous on logout or a failed revalidation.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/electisspace/spacectl/internal/aims"
	"github.com/electisspace/spacectl/internal/api"
	"github.com/electisspace/spacectl/internal/domain"
	"github.com/electisspace/spacectl/internal/log"
	"github.com/electisspace/spacectl/internal/metrics"
	"github.com/electisspace/spacectl/internal/settings"
	"github.com/electisspace/spacectl/internal/token"
)

// ErrCodeNoPendingVerification is the local error for a 2FA attempt
// with no preceding login step. No network call is made in that case.
const ErrCodeNoPendingVerification = "error.no_pending_verification"

// Snapshot is an immutable view of the session state, delivered to
// subscribers on every change.
type Snapshot struct {
	User            *api.User
	IsAuthenticated bool
	PendingEmail    string
	ErrorCode       string
	ActiveCompanyID string
	ActiveStoreID   string
	IsInitialized   bool
	IsAppReady      bool
	IsSwitching     bool
	LastValidation  time.Time
}

// Config wires the session store's collaborators.
type Config struct {
	Client   *api.Client
	Tokens   *token.Manager
	Creds    *token.FileStore
	Settings *settings.Store
	Siblings *domain.Registry
	AIMS     *aims.Connector
	State    *StateFile
	Logger   *log.Logger
	Metrics  *metrics.Metrics
}

// Store is the session state machine. All operations catch their own
// errors, record a translatable error code, and report success as a
// boolean; callers never branch on raised errors.
type Store struct {
	client   *api.Client
	tokens   *token.Manager
	creds    *token.FileStore
	settings *settings.Store
	siblings *domain.Registry
	aims     *aims.Connector
	state    *StateFile
	logger   *log.Logger
	metrics  *metrics.Metrics

	mu              sync.Mutex
	user            *api.User
	pendingEmail    string
	errCode         string
	activeCompanyID string
	activeStoreID   string
	initialized     bool
	appReady        bool
	switching       bool
	lastValidation  time.Time
	listeners       []func(Snapshot)
}

// New creates the session store and registers its expiry handler with
// the transport. The transport calls back instead of importing this
// package; state ownership stays in one place.
func New(cfg Config) *Store {
	s := &Store{
		client:   cfg.Client,
		tokens:   cfg.Tokens,
		creds:    cfg.Creds,
		settings: cfg.Settings,
		siblings: cfg.Siblings,
		aims:     cfg.AIMS,
		state:    cfg.State,
		logger:   cfg.Logger.WithGroup("session"),
		metrics:  cfg.Metrics,
	}
	cfg.Client.OnSessionExpired(s.handleSessionExpired)
	return s
}

// Subscribe registers a listener invoked with a snapshot after every
// state change. Listeners run outside the store's lock.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		User:            s.user,
		IsAuthenticated: s.user != nil,
		PendingEmail:    s.pendingEmail,
		ErrorCode:       s.errCode,
		ActiveCompanyID: s.activeCompanyID,
		ActiveStoreID:   s.activeStoreID,
		IsInitialized:   s.initialized,
		IsAppReady:      s.appReady,
		IsSwitching:     s.switching,
		LastValidation:  s.lastValidation,
	}
}

// update applies a mutation under the lock and broadcasts the resulting
// snapshot to subscribers.
func (s *Store) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	listeners := make([]func(Snapshot), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

// IsAuthenticated is always derived from user presence, never stored,
// so it cannot diverge from the identity state.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// User returns the current user, or nil.
func (s *Store) User() *api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// ActiveIDs returns the active company and store ids.
func (s *Store) ActiveIDs() (companyID, storeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCompanyID, s.activeStoreID
}

// IsSwitching reports whether a context switch is in flight.
func (s *Store) IsSwitching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switching
}

// ErrorCode returns the last operation's translatable error code.
func (s *Store) ErrorCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errCode
}

// Login performs the password step. On success the session moves to
// login-pending: the caller prompts for the emailed 2FA code. The
// authenticated state is untouched either way.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.setError(err)
		return false
	}

	s.update(func() {
		s.errCode = ""
		s.pendingEmail = resp.Email
		if s.pendingEmail == "" {
			s.pendingEmail = email
		}
	})
	return true
}

// Verify2FA completes the login with the emailed code. It requires a
// pending login step; without one it fails locally with no network
// call.
//
// On success the active context is derived from the user's own active
// ids, falling back to the first company/store in the access lists,
// and the settings for that context are fully loaded before this
// method returns: callers may navigate immediately. AIMS auto-connect
// is fired in the background and never blocks or fails the login.
func (s *Store) Verify2FA(ctx context.Context, code string) bool {
	s.mu.Lock()
	email := s.pendingEmail
	s.mu.Unlock()

	if email == "" {
		s.update(func() { s.errCode = ErrCodeNoPendingVerification })
		return false
	}

	resp, err := s.client.Verify2FA(ctx, email, code)
	if err != nil {
		// Recoverable code failures keep the pending step so the user
		// can retry or resend without starting over.
		s.setError(err)
		return false
	}

	user := resp.User
	companyID, storeID := deriveActiveContext(&user)

	s.update(func() {
		s.user = &user
		s.pendingEmail = ""
		s.errCode = ""
		s.activeCompanyID = companyID
		s.activeStoreID = storeID
	})
	s.persist()

	// Settings ids are seeded synchronously so anything keyed on them
	// observes the new context before any await point.
	s.settings.SetActiveIDs(companyID, storeID)
	if err := s.settings.Fetch(ctx); err != nil {
		s.logger.Warn("settings fetch after login failed", "error", err)
	}

	if storeID != "" {
		go func() {
			if !s.aims.AutoConnect(context.WithoutCancel(ctx), storeID) {
				s.logger.Warn("aims auto-connect after login failed", "store_id", storeID)
			}
		}()
	}

	return true
}

// ResendCode asks for a fresh 2FA code. A failure keeps the pending
// login step; only success or cancel moves the machine.
func (s *Store) ResendCode(ctx context.Context) bool {
	s.mu.Lock()
	email := s.pendingEmail
	s.mu.Unlock()

	if email == "" {
		return false
	}

	if err := s.client.ResendCode(ctx, email); err != nil {
		s.setError(err)
		return false
	}
	return true
}

// CancelLogin abandons a pending 2FA step.
func (s *Store) CancelLogin() {
	s.update(func() {
		s.pendingEmail = ""
		s.errCode = ""
	})
}

// Logout ends the session. The server call is best-effort; local state
// is reset unconditionally even when it fails.
func (s *Store) Logout(ctx context.Context) {
	defer s.resetLocal()

	if err := s.client.Logout(ctx); err != nil {
		s.logger.Debug("server logout failed, resetting locally anyway", "error", err)
	}
}

// SetActiveCompany switches the active company. The active store is
// always reset: a store choice is meaningless across companies.
func (s *Store) SetActiveCompany(ctx context.Context, companyID string) bool {
	empty := ""
	return s.switchContext(ctx, "company", api.ContextUpdate{
		ActiveCompanyID: &companyID,
		ActiveStoreID:   &empty,
	})
}

// SetActiveStore switches the active store within the current company.
func (s *Store) SetActiveStore(ctx context.Context, storeID string) bool {
	return s.switchContext(ctx, "store", api.ContextUpdate{
		ActiveStoreID: &storeID,
	})
}

// SetActiveContext switches company and store together.
func (s *Store) SetActiveContext(ctx context.Context, companyID, storeID string) bool {
	return s.switchContext(ctx, "context", api.ContextUpdate{
		ActiveCompanyID: &companyID,
		ActiveStoreID:   &storeID,
	})
}

// switchContext is the shared choreography for every context switch:
//
//  1. mark switching (cleared via defer no matter what happens);
//  2. persist the new context server-side, adopting the returned user;
//  3. seed the settings store's ids synchronously;
//  4. clear every sibling domain store, unconditionally, before any
//     fetch for the new context — stale tenant data must never be
//     visible, even momentarily;
//  5. await the settings fetch, then the AIMS reconnect, logging
//     rather than failing on either.
func (s *Store) switchContext(ctx context.Context, kind string, update api.ContextUpdate) bool {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return false
	}
	if s.switching {
		// One switch at a time; the UI waits for completion.
		s.mu.Unlock()
		return false
	}
	s.switching = true
	s.mu.Unlock()

	defer s.update(func() { s.switching = false })

	user, err := s.client.UpdateContext(ctx, update)
	if err != nil {
		s.metrics.ContextSwitches.WithLabelValues(kind, metrics.ResultError).Inc()
		s.setError(err)
		return false
	}

	companyID := user.ActiveCompanyID
	storeID := user.ActiveStoreID
	if update.ActiveCompanyID != nil && update.ActiveStoreID != nil && *update.ActiveStoreID == "" {
		// Company switch: the store reset must hold even against a
		// server that echoes a stale store id.
		storeID = ""
	}

	s.update(func() {
		s.user = user
		s.errCode = ""
		s.activeCompanyID = companyID
		s.activeStoreID = storeID
	})
	s.persist()

	s.settings.SetActiveIDs(companyID, storeID)
	s.siblings.InvalidateAll()

	if err := s.settings.Fetch(ctx); err != nil {
		s.logger.Warn("settings fetch after context switch failed", "error", err)
	}

	s.aims.Disconnect()
	if storeID != "" {
		if !s.aims.AutoConnect(ctx, storeID) {
			s.logger.Warn("aims reconnect after context switch failed", "store_id", storeID)
		}
	}

	s.metrics.ContextSwitches.WithLabelValues(kind, metrics.ResultOK).Inc()
	return true
}

// ValidateSession checks the session against the server. The server is
// the sole authority: any failure means the session is dead, with no
// retry and no guessing. An absent access token forces the logged-out
// state even when a stale user snapshot is still cached.
func (s *Store) ValidateSession(ctx context.Context) bool {
	if !s.tokens.HasAccessToken() {
		s.metrics.SessionValidations.WithLabelValues(metrics.ResultError).Inc()
		s.resetLocal()
		return false
	}

	user, err := s.client.Me(ctx)
	if err != nil {
		s.metrics.SessionValidations.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Info("session validation failed, logging out", "error", err)
		s.resetLocal()
		return false
	}

	s.metrics.SessionValidations.WithLabelValues(metrics.ResultOK).Inc()
	s.update(func() {
		s.user = user
		s.lastValidation = time.Now()
	})
	return true
}

// LastValidation returns when the session was last confirmed.
func (s *Store) LastValidation() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastValidation
}

// ReconnectToSolum retries AIMS connectivity for the active store.
// Best-effort by contract: callers log and continue.
func (s *Store) ReconnectToSolum(ctx context.Context) bool {
	s.mu.Lock()
	storeID := s.activeStoreID
	s.mu.Unlock()

	if storeID == "" {
		return false
	}
	return s.aims.AutoConnect(ctx, storeID)
}

// handleSessionExpired runs when the transport gives up on a refresh.
func (s *Store) handleSessionExpired() {
	s.logger.Info("session expired, resetting local state")
	s.resetLocal()
}

// resetLocal drops every piece of session state: user, tokens,
// persisted credentials, settings, sibling caches, AIMS connectivity.
// It never fails and never touches the network.
func (s *Store) resetLocal() {
	s.update(func() {
		s.user = nil
		s.pendingEmail = ""
		s.activeCompanyID = ""
		s.activeStoreID = ""
		s.lastValidation = time.Time{}
	})

	s.tokens.Clear()
	if s.creds != nil {
		if err := s.creds.Delete(); err != nil {
			s.logger.Warn("failed to remove credentials file", "error", err)
		}
	}
	if s.state != nil {
		if err := s.state.Delete(); err != nil {
			s.logger.Warn("failed to remove session state file", "error", err)
		}
	}
	s.settings.Clear()
	s.siblings.InvalidateAll()
	s.aims.Disconnect()
}

// setError records the classified, translatable error code.
func (s *Store) setError(err error) {
	code := api.ErrorCode(err).TranslationKey()
	s.logger.Debug("operation failed", "code", code, "error", err)
	s.update(func() { s.errCode = code })
}

// persist saves the user and active ids for the next process. The
// authenticated flag is deliberately excluded: it is re-derived from
// live token presence, never trusted from disk.
func (s *Store) persist() {
	s.mu.Lock()
	user := s.user
	companyID := s.activeCompanyID
	storeID := s.activeStoreID
	s.mu.Unlock()

	if s.state != nil {
		if err := s.state.Save(user, companyID, storeID); err != nil {
			s.logger.Warn("failed to persist session state", "error", err)
		}
	}

	if s.creds != nil && s.tokens.HasAccessToken() {
		email := ""
		if user != nil {
			email = user.Email
		}
		if err := s.creds.Save(s.tokens.AccessToken(), s.tokens.RefreshToken(), email); err != nil {
			s.logger.Warn("failed to persist credentials", "error", err)
		}
	}
}

// deriveActiveContext resolves the initial context from the user's own
// active ids, falling back to the first entries in the access lists.
func deriveActiveContext(user *api.User) (companyID, storeID string) {
	companyID = user.ActiveCompanyID
	if companyID == "" && len(user.Companies) > 0 {
		companyID = user.Companies[0].ID
	}

	storeID = user.ActiveStoreID
	if storeID == "" && len(user.Stores) > 0 {
		storeID = user.Stores[0].ID
	}
	return companyID, storeID
}

// normalizeEmail is used when comparing persisted and live identities.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
