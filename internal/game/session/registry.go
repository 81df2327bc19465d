package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// DefaultMaxIDAttempts bounds how many identifiers Create draws before giving up.
const DefaultMaxIDAttempts = 8

// ErrIDExhausted is returned by Create when every drawn identifier collided.
// Callers treat it as unrecoverable.
var ErrIDExhausted = errors.New("session id generation exhausted")

// IDGenerator produces candidate session identifiers.
type IDGenerator func() string

// Registry owns every active Session, keyed by ID.
// All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	nextSeq  uint64

	newID       IDGenerator
	maxAttempts int
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(gen IDGenerator) RegistryOption {
	return func(r *Registry) { r.newID = gen }
}

// WithMaxIDAttempts sets how many collisions Create tolerates.
func WithMaxIDAttempts(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// NewRegistry creates an empty Registry that draws random UUIDs for new sessions.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions:    make(map[string]*Session),
		newID:       uuid.NewString,
		maxAttempts: DefaultMaxIDAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create stores a new empty-board Forming session with no players.
//
// Postcondition: Returns the stored session, or ErrIDExhausted if no unused
// identifier was drawn within the attempt budget.
func (r *Registry) Create(mode Mode) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		id := r.newID()
		if id == "" {
			continue
		}
		if _, taken := r.sessions[id]; taken {
			continue
		}
		r.nextSeq++
		s := newSession(id, mode, r.nextSeq)
		r.sessions[id] = s
		return s, nil
	}
	return nil, fmt.Errorf("creating %s session after %d attempts: %w", mode, r.maxAttempts, ErrIDExhausted)
}

// Get returns the session for id.
//
// Postcondition: Returns (session, true) if stored, or (nil, false) otherwise.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete removes the session for id. Deleting an unknown id is a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Count returns the number of stored sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// All returns every stored session ordered by creation.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Session) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	return out
}
