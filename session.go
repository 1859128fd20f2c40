package main

import (
	"sort"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/samber/lo"
)

// Session is an isolated broadcast domain: a presence set of display
// names plus the bus that fans events out to its connections. The
// presence set is only ever touched under the session's own mutex; the
// registry lock is never held at the same time.
type Session struct {
	id  uuid.UUID
	bus *bus

	mu    sync.Mutex
	users map[string]bool
}

func newSession(id uuid.UUID, buffer int) *Session {
	return &Session{
		id:    id,
		bus:   newBus(buffer),
		users: map[string]bool{},
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

// TryClaim inserts name into the presence set. Returns false and leaves
// the set unchanged when the name is already active. Comparison is exact;
// no case folding or trimming.
func (s *Session) TryClaim(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[name] {
		return false
	}
	s.users[name] = true
	return true
}

// Release frees name so a new connection can claim it again. The empty
// result tells the caller, under the same lock, whether it removed the
// last participant and should queue the session for deletion.
func (s *Session) Release(name string) (empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, name)
	return len(s.users) == 0
}

// Snapshot returns the current presence set, sorted for stable output.
func (s *Session) Snapshot() []string {
	s.mu.Lock()
	names := lo.Keys(s.users)
	s.mu.Unlock()

	sort.Strings(names)
	return names
}

// SnapshotExcluding is Snapshot with one name filtered out, used for the
// left event where the departing member no longer counts.
func (s *Session) SnapshotExcluding(name string) []string {
	return lo.Filter(s.Snapshot(), func(user string, _ int) bool {
		return user != name
	})
}
