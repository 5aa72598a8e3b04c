package invite

import (
	"context"
	"time"

	id "crewbase/pkg/domain"
)

// Store persists invitations.
//
// Error Contract:
// All store methods follow this error pattern:
//   - Return ErrNotFound when the requested invitation does not exist
//   - Return nil for successful operations
//   - Return wrapped errors with context for infrastructure failures
//
// Execute holds the store's write lock (mutex or SELECT ... FOR UPDATE) across
// both callbacks, so a validate-then-mutate pair observes and commits a single
// consistent view. It is the only way to transition an invitation's status:
// concurrent redemptions of the same token serialize here, and exactly one
// passes validation.
type Store interface {
	Create(ctx context.Context, inv *Invitation) error
	FindByID(ctx context.Context, invitationID id.InvitationID) (*Invitation, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*Invitation, error)
	ListStalePending(ctx context.Context, now time.Time, limit int) ([]*Invitation, error)
	Execute(ctx context.Context, invitationID id.InvitationID,
		validate func(*Invitation) error,
		mutate func(*Invitation),
	) (*Invitation, error)
}
