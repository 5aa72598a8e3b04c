// Package roles resolves which access tier a principal holds. The resolution
// is a tagged result produced by a single resolver function; platform
// membership is checked before company membership, so a principal present in
// both registries (which should not happen) deterministically resolves to
// platform.
package roles

import (
	"context"
	"errors"

	id "crewbase/pkg/domain"
	dErrors "crewbase/pkg/domain-errors"
	"crewbase/pkg/platform/sentinel"
)

// Operator is one entry in the platform-operator registry.
type Operator struct {
	PrincipalID id.PrincipalID
	DisplayName string
}

// Member is one entry in the company-member registry. Each member belongs to
// exactly one tenant.
type Member struct {
	PrincipalID id.PrincipalID
	TenantID    id.TenantID
	DisplayName string
}

// Resolution tags a principal with its tier. TenantID is set iff the tier is
// company.
type Resolution struct {
	Tier     id.Tier
	TenantID id.TenantID
}

// OperatorRegistry looks up platform operators.
type OperatorRegistry interface {
	FindOperator(ctx context.Context, principalID id.PrincipalID) (Operator, error)
}

// MemberRegistry looks up company members.
type MemberRegistry interface {
	FindMember(ctx context.Context, principalID id.PrincipalID) (Member, error)
}

// Resolver determines the access tier for a principal.
type Resolver struct {
	operators OperatorRegistry
	members   MemberRegistry
}

func NewResolver(operators OperatorRegistry, members MemberRegistry) *Resolver {
	return &Resolver{operators: operators, members: members}
}

// Resolve returns the principal's tier, or CodeForbidden when the principal
// appears in neither registry. Callers must treat that as "not authorized",
// not as retryable; the message never names which registries were checked.
func (r *Resolver) Resolve(ctx context.Context, principalID id.PrincipalID) (Resolution, error) {
	if principalID.IsNil() {
		return Resolution{}, dErrors.New(dErrors.CodeInvalidInput, "principal id required")
	}

	if _, err := r.operators.FindOperator(ctx, principalID); err == nil {
		return Resolution{Tier: id.TierPlatform}, nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return Resolution{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "operator registry unavailable")
	}

	member, err := r.members.FindMember(ctx, principalID)
	if err == nil {
		return Resolution{Tier: id.TierCompany, TenantID: member.TenantID}, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return Resolution{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "member registry unavailable")
	}

	return Resolution{}, dErrors.New(dErrors.CodeForbidden, "access denied")
}
