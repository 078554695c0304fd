package identity

import (
	"context"
	"sync"
)

// Store persists user profiles. Implementations must make SaveUser a
// last-write-wins upsert.
type Store interface {
	SaveUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, identity string) (User, bool, error)
}

// MemoryStore keeps profiles in a map. The Registry serializes access, but
// the store carries its own lock so it stays safe when shared.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

func (s *MemoryStore) SaveUser(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Identity] = u
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, identity string) (User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[identity]
	return u, ok, nil
}
