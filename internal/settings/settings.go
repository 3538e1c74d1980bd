// Package settings holds the per-context settings snapshot the rest of
// the client depends on. The session layer seeds the active ids
// synchronously before any fetch so consumers keyed on them never race
// a context switch.
package settings

import (
	"context"
	"sync"

	"github.com/electisspace/spacectl/internal/api"
	"github.com/electisspace/spacectl/internal/log"
)

// Store caches the settings for the active company/store pair.
type Store struct {
	client *api.Client
	logger *log.Logger

	mu              sync.RWMutex
	activeCompanyID string
	activeStoreID   string
	current         *api.StoreSettings
}

// NewStore creates a settings store over the API client.
func NewStore(client *api.Client, logger *log.Logger) *Store {
	return &Store{
		client: client,
		logger: logger.WithGroup("settings"),
	}
}

// SetActiveIDs records the active context. Purely local and
// synchronous; any cached snapshot from another context is dropped
// immediately so stale settings are never observable.
func (s *Store) SetActiveIDs(companyID, storeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeCompanyID != companyID || s.activeStoreID != storeID {
		s.current = nil
	}
	s.activeCompanyID = companyID
	s.activeStoreID = storeID
}

// ActiveIDs returns the active company and store ids.
func (s *Store) ActiveIDs() (companyID, storeID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeCompanyID, s.activeStoreID
}

// Fetch loads the settings for the active store. With no active store
// there is nothing to fetch and no error: an unresolvable context is
// treated as "no active context", not a failure.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.RLock()
	storeID := s.activeStoreID
	s.mu.RUnlock()

	if storeID == "" {
		return nil
	}

	fetched, err := s.client.GetStoreSettings(ctx, storeID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A context switch may have happened while the fetch was in
	// flight; settings for the old store must not land.
	if s.activeStoreID != storeID {
		s.logger.Debug("discarding settings for superseded store", "store_id", storeID)
		return nil
	}
	s.current = fetched
	return nil
}

// Current returns the loaded settings snapshot, or nil when none is
// loaded for the active context.
func (s *Store) Current() *api.StoreSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Clear drops the active ids and cached settings.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeCompanyID = ""
	s.activeStoreID = ""
	s.current = nil
}
