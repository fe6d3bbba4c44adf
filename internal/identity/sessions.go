// internal/identity/sessions.go
package identity

import (
	"context"
	"sync"

	"github.com/user/devsocial/internal/types"
)

// MemorySessionStore is a mutex-guarded in-process token map. It has no
// expiry and no persistence: bindings are lost on restart, which is the
// documented contract: the relational store, not this map, is the record
// of truth for accounts.
type MemorySessionStore struct {
	mu       sync.RWMutex
	bindings map[string]types.SessionBinding
}

// NewMemorySessionStore creates an empty session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{bindings: make(map[string]types.SessionBinding)}
}

// Lookup returns the binding for token, or (nil, nil) when unbound.
func (s *MemorySessionStore) Lookup(_ context.Context, token string) (*types.SessionBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bindings[token]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// Bind maps token to binding. Rebinding an existing token overwrites its
// previous mapping; a token maps to at most one account at a time.
func (s *MemorySessionStore) Bind(_ context.Context, token string, binding types.SessionBinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[token] = binding
	return nil
}

// Delete removes the binding for token. Deleting an absent token is a no-op.
func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, token)
	return nil
}
