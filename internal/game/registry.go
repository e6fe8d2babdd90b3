package game

import (
	"sync"
	"time"
)

// Registry owns every live session in the process, keyed by session id.
// Lookups vastly outnumber inserts, so it uses a read-write lock; gameplay in
// one session never blocks another.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int]*Session
	nextID   int
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int]*Session),
		nextID:   1,
	}
}

// Create allocates the next session id (starting at 1, never reused) and
// builds a session for the given creator.
func (r *Registry) Create(creatorName string) (*Session, error) {
	if creatorName == "" {
		return nil, ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := NewSession(r.nextID, creatorName)
	if err != nil {
		return nil, err
	}
	r.nextID++
	r.sessions[session.ID] = session
	return session, nil
}

// Find looks up a session by id.
func (r *Registry) Find(id int) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts sessions that have seen no intent for longer than maxIdle.
// Finished games linger until they go idle too, so late resyncs still see the
// final state. Returns the number of sessions removed.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, session := range r.sessions {
		if session.IdleFor(now) > maxIdle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
