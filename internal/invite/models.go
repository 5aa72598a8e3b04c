package invite

import (
	"strings"
	"time"

	id "crewbase/pkg/domain"
	dErrors "crewbase/pkg/domain-errors"
)

// TTL is the validity horizon of a freshly issued invitation.
const TTL = 7 * 24 * time.Hour

// Status is the invitation lifecycle state.
//
// Transitions: pending → accepted (terminal, via consumption) or
// pending → expired (terminal, via time-out detected lazily or by sweep).
// Once non-pending, redemption always fails.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusExpired  Status = "expired"
)

// CanTransitionTo reports whether the state machine allows the move. Only
// pending has outgoing edges.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusPending {
		return false
	}
	return next == StatusAccepted || next == StatusExpired
}

// Invitation is a time-boxed, single-use token granting a named recipient the
// ability to create an account with a pre-assigned role and tenant.
//
// Invariants:
//   - Email and Role are non-empty
//   - TenantID is set iff Role is company
//   - ExpiresAt = CreatedAt + TTL
//   - a token is accepted at most once
type Invitation struct {
	ID        id.InvitationID `json:"id"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Role      id.Tier         `json:"role"`
	TenantID  id.TenantID     `json:"tenant_id,omitempty"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// NewInvitation validates the input and returns a pending invitation whose ID
// doubles as the redemption token.
func NewInvitation(email, firstName, lastName string, role id.Tier, tenantID id.TenantID, now time.Time) (*Invitation, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "a valid email is required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	if role == id.TierCompany && tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "company invitations require a tenant")
	}
	if role == id.TierPlatform && !tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "platform invitations cannot carry a tenant")
	}
	return &Invitation{
		ID:        id.NewInvitationID(),
		Email:     email,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Role:      role,
		TenantID:  tenantID,
		Status:    StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
	}, nil
}

// IsStale reports whether a still-pending invitation has outlived its
// validity horizon at the given instant.
func (i *Invitation) IsStale(now time.Time) bool {
	return i.Status == StatusPending && i.ExpiresAt.Before(now)
}

// CanAccept checks that consumption is still allowed: the invitation is
// pending and unexpired. Use with ApplyAccept inside an Execute callback so
// the check and the mutation happen under the store's lock.
func (i *Invitation) CanAccept(now time.Time) error {
	if i.Status != StatusPending {
		return dErrors.New(dErrors.CodeConflict, "invitation already consumed")
	}
	if i.ExpiresAt.Before(now) {
		return dErrors.New(dErrors.CodeNotFound, "invitation expired")
	}
	return nil
}

// ApplyAccept transitions the invitation to accepted. Call CanAccept first.
func (i *Invitation) ApplyAccept() {
	i.Status = StatusAccepted
}

// CanExpire checks that the invitation can still move to expired.
func (i *Invitation) CanExpire() error {
	if !i.Status.CanTransitionTo(StatusExpired) {
		return dErrors.New(dErrors.CodeInvariantViolation, "invitation is not pending")
	}
	return nil
}

// ApplyExpire transitions the invitation to expired. Call CanExpire first.
func (i *Invitation) ApplyExpire() {
	i.Status = StatusExpired
}
