package domain

import (
	"context"
	"sync"

	"github.com/electisspace/spacectl/internal/api"
)

// listStore is a cached list reader shared by the four domain stores.
// The first List fetches from the server; later calls serve the cache
// until Invalidate.
type listStore[T any] struct {
	name  string
	fetch func(context.Context) ([]T, error)

	mu     sync.Mutex
	items  []T
	loaded bool
}

func (s *listStore[T]) Name() string {
	return s.name
}

func (s *listStore[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.loaded = false
}

func (s *listStore[T]) List(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	if s.loaded {
		items := s.items
		s.mu.Unlock()
		return items, nil
	}
	s.mu.Unlock()

	items, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.loaded = true
	return items, nil
}

// Spaces is the cached spaces reader.
type Spaces struct{ listStore[api.Space] }

// NewSpaces creates the spaces store and registers it for invalidation.
func NewSpaces(client *api.Client, registry *Registry) *Spaces {
	s := &Spaces{listStore[api.Space]{name: "spaces", fetch: client.ListSpaces}}
	registry.Register(s)
	return s
}

// People is the cached people reader.
type People struct{ listStore[api.Person] }

// NewPeople creates the people store and registers it for invalidation.
func NewPeople(client *api.Client, registry *Registry) *People {
	s := &People{listStore[api.Person]{name: "people", fetch: client.ListPeople}}
	registry.Register(s)
	return s
}

// Conference is the cached conference-rooms reader.
type Conference struct{ listStore[api.ConferenceRoom] }

// NewConference creates the conference store and registers it for invalidation.
func NewConference(client *api.Client, registry *Registry) *Conference {
	s := &Conference{listStore[api.ConferenceRoom]{name: "conference", fetch: client.ListConferenceRooms}}
	registry.Register(s)
	return s
}

// Labels is the cached ESL labels reader.
type Labels struct{ listStore[api.Label] }

// NewLabels creates the labels store and registers it for invalidation.
func NewLabels(client *api.Client, registry *Registry) *Labels {
	s := &Labels{listStore[api.Label]{name: "labels", fetch: client.ListLabels}}
	registry.Register(s)
	return s
}
