package roles

import (
	"context"
	"sync"

	id "crewbase/pkg/domain"
	"crewbase/pkg/platform/sentinel"
)

// In-memory registries keep the initial implementation lightweight and
// testable. They intentionally favor clarity over performance.
type InMemoryOperatorRegistry struct {
	mu        sync.RWMutex
	operators map[id.PrincipalID]Operator
}

func NewInMemoryOperatorRegistry() *InMemoryOperatorRegistry {
	return &InMemoryOperatorRegistry{operators: make(map[id.PrincipalID]Operator)}
}

func (r *InMemoryOperatorRegistry) Save(_ context.Context, op Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operators[op.PrincipalID] = op
	return nil
}

func (r *InMemoryOperatorRegistry) Delete(_ context.Context, principalID id.PrincipalID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.operators, principalID)
}

func (r *InMemoryOperatorRegistry) FindOperator(_ context.Context, principalID id.PrincipalID) (Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if op, ok := r.operators[principalID]; ok {
		return op, nil
	}
	return Operator{}, sentinel.ErrNotFound
}

type InMemoryMemberRegistry struct {
	mu      sync.RWMutex
	members map[id.PrincipalID]Member
}

func NewInMemoryMemberRegistry() *InMemoryMemberRegistry {
	return &InMemoryMemberRegistry{members: make(map[id.PrincipalID]Member)}
}

func (r *InMemoryMemberRegistry) Save(_ context.Context, m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[m.PrincipalID] = m
	return nil
}

func (r *InMemoryMemberRegistry) FindMember(_ context.Context, principalID id.PrincipalID) (Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.members[principalID]; ok {
		return m, nil
	}
	return Member{}, sentinel.ErrNotFound
}
