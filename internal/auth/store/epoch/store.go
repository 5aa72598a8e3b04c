// Package epoch tracks a monotonically increasing session epoch per
// principal. Artifacts embed the epoch at issuance; verification compares the
// embedded value against the current one, so bumping the epoch instantly
// invalidates every outstanding artifact for that principal without a
// per-session revocation list.
package epoch

import (
	"context"

	id "crewbase/pkg/domain"
)

// Store reads and advances per-principal session epochs. A principal with no
// recorded epoch is at epoch zero.
type Store interface {
	Current(ctx context.Context, principalID id.PrincipalID) (int64, error)
	Bump(ctx context.Context, principalID id.PrincipalID) (int64, error)
}
