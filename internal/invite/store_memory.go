package invite

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	id "crewbase/pkg/domain"
	"crewbase/pkg/platform/sentinel"
)

// InMemoryStore stores invitations in memory for tests/dev.
type InMemoryStore struct {
	mu          sync.RWMutex
	invitations map[id.InvitationID]*Invitation
}

// NewInMemoryStore constructs an empty in-memory invitation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		invitations: make(map[id.InvitationID]*Invitation),
	}
}

func (s *InMemoryStore) Create(_ context.Context, inv *Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invitations[inv.ID]; ok {
		return fmt.Errorf("invitation already exists: %w", sentinel.ErrConflict)
	}
	cp := *inv
	s.invitations[inv.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, invitationID id.InvitationID) (*Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invitations[invitationID]
	if !ok {
		return nil, fmt.Errorf("invitation not found: %w", sentinel.ErrNotFound)
	}
	cp := *inv
	return &cp, nil
}

func (s *InMemoryStore) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Invitation
	for _, inv := range s.invitations {
		if inv.TenantID == tenantID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) ListStalePending(_ context.Context, now time.Time, limit int) ([]*Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Invitation
	for _, inv := range s.invitations {
		if inv.IsStale(now) {
			cp := *inv
			out = append(out, &cp)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// Execute atomically validates and mutates an invitation under the write lock.
// When two goroutines race to consume the same token, the loser's validate
// callback observes the winner's committed mutation.
func (s *InMemoryStore) Execute(_ context.Context, invitationID id.InvitationID,
	validate func(*Invitation) error,
	mutate func(*Invitation),
) (*Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invitations[invitationID]
	if !ok {
		return nil, fmt.Errorf("invitation not found: %w", sentinel.ErrNotFound)
	}
	if err := validate(inv); err != nil {
		return nil, err
	}
	mutate(inv)
	cp := *inv
	return &cp, nil
}
