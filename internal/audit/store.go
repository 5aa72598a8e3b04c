package audit

import (
	"context"

	id "crewbase/pkg/domain"
)

// Store persists audit entries. Implementations never mutate or delete an
// entry after Append returns.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByActor(ctx context.Context, actorID string) ([]Entry, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]Entry, error)
}
