package mcpserver

import (
	"sync"

	"github.com/google/uuid"
)

// SessionRegistry tracks the session ids minted by initialize. A session id
// is the only key that admits a caller to the push channel; ids are removed
// when the stream closes.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]struct{}
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]struct{})}
}

// Create mints a new session id and records it.
func (r *SessionRegistry) Create() string {
	id := uuid.New().String()
	r.mu.Lock()
	r.sessions[id] = struct{}{}
	r.mu.Unlock()
	return id
}

// Has reports whether id was minted and has not been removed.
func (r *SessionRegistry) Has(id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	r.mu.Unlock()
	return ok
}

// Remove forgets a session. Removing an unknown id is a no-op.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
