package epoch

import (
	"context"
	"sync"

	id "crewbase/pkg/domain"
)

// InMemoryStore keeps epochs in a map. Suitable for tests and single-process
// deployments only; distributed deployments need the Redis or Postgres store
// so all instances agree on the current epoch.
type InMemoryStore struct {
	mu     sync.RWMutex
	epochs map[id.PrincipalID]int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{epochs: make(map[id.PrincipalID]int64)}
}

func (s *InMemoryStore) Current(_ context.Context, principalID id.PrincipalID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epochs[principalID], nil
}

func (s *InMemoryStore) Bump(_ context.Context, principalID id.PrincipalID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epochs[principalID]++
	return s.epochs[principalID], nil
}
