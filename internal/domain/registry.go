// Package domain provides the per-feature read stores (spaces, people,
// conference rooms, labels) and the registry the session layer uses to
// clear all of them on a tenant-context switch.
//
// The clear is a correctness measure, not a cache optimization: data
// from the previous store must never be visible, even momentarily,
// after the active context changes.
package domain

import (
	"sync"

	"github.com/electisspace/spacectl/internal/log"
)

// Invalidater is any store whose cached data must be dropped when the
// active company or store changes.
type Invalidater interface {
	// Name identifies the store in logs.
	Name() string

	// Invalidate drops all cached data. Must be cheap and must not
	// perform I/O: it runs synchronously inside the context switch.
	Invalidate()
}

// Registry fans an invalidation out to every registered store.
type Registry struct {
	mu     sync.Mutex
	stores []Invalidater
	logger *log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *log.Logger) *Registry {
	return &Registry{logger: logger.WithGroup("domain")}
}

// Register adds a store to the registry.
func (r *Registry) Register(s Invalidater) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores = append(r.stores, s)
}

// InvalidateAll clears every registered store. Never fails; a store
// that cannot clear has nothing sensible to report beyond a log line.
func (r *Registry) InvalidateAll() {
	r.mu.Lock()
	stores := make([]Invalidater, len(r.stores))
	copy(stores, r.stores)
	r.mu.Unlock()

	for _, s := range stores {
		s.Invalidate()
		r.logger.Debug("store invalidated", "store", s.Name())
	}
}
