package main

import (
	"sync"

	"github.com/gofrs/uuid/v5"
)

// Registry is the single source of truth for which sessions exist. One
// mutex guards the map so Create/Get/Remove are atomic with respect to
// each other; it owns every Session entry until the reaper removes it.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	buffer   int
}

func NewRegistry(subscriberBuffer int) *Registry {
	return &Registry{
		sessions: map[uuid.UUID]*Session{},
		buffer:   subscriberBuffer,
	}
}

// Create allocates an empty session under a fresh id and inserts it.
func (r *Registry) Create() (*Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	s := newSession(id, r.buffer)
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s, nil
}

func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Has(id uuid.UUID) bool {
	_, ok := r.Get(id)
	return ok
}

// Remove deletes a session unconditionally. Only the reaper calls this.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
