package settings

import (
	"context"
	"fmt"
	"sync"

	"crewbase/pkg/platform/sentinel"
)

// InMemoryStore holds settings in memory for tests/dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	current *SessionSettings
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Get(_ context.Context) (SessionSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return SessionSettings{}, fmt.Errorf("session settings not stored: %w", sentinel.ErrNotFound)
	}
	return *s.current, nil
}

func (s *InMemoryStore) Put(_ context.Context, v SessionSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &v
	return nil
}
