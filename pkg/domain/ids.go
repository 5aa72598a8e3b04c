// Package domain holds the identifier and value types shared across crewbase
// services. Typed IDs prevent accidental cross-assignment between entities
// (a PrincipalID is never a TenantID, even though both are UUIDs).
package domain

import (
	"github.com/google/uuid"

	dErrors "crewbase/pkg/domain-errors"
)

// PrincipalID identifies an authenticated identity.
type PrincipalID uuid.UUID

// TenantID identifies a company-scoped partition of data.
type TenantID uuid.UUID

// SessionID identifies one issued session artifact.
type SessionID uuid.UUID

// InvitationID doubles as the invitation token. It is generated server-side
// and treated as unguessable by construction.
type InvitationID uuid.UUID

func (i PrincipalID) IsNil() bool  { return uuid.UUID(i) == uuid.Nil }
func (i TenantID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }
func (i SessionID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i InvitationID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i PrincipalID) String() string  { return uuid.UUID(i).String() }
func (i TenantID) String() string     { return uuid.UUID(i).String() }
func (i SessionID) String() string    { return uuid.UUID(i).String() }
func (i InvitationID) String() string { return uuid.UUID(i).String() }

// NewPrincipalID returns a fresh random principal identifier.
func NewPrincipalID() PrincipalID { return PrincipalID(uuid.New()) }

// NewSessionID returns a fresh random session identifier.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewInvitationID returns a fresh random invitation token.
func NewInvitationID() InvitationID { return InvitationID(uuid.New()) }

// ParsePrincipalID constructs a PrincipalID from external input.
// Errors: CodeInvalidInput when the value is empty or not a UUID.
func ParsePrincipalID(s string) (PrincipalID, error) {
	u, err := parse(s, "principal id")
	return PrincipalID(u), err
}

// ParseTenantID constructs a TenantID from external input.
func ParseTenantID(s string) (TenantID, error) {
	u, err := parse(s, "tenant id")
	return TenantID(u), err
}

// ParseSessionID constructs a SessionID from external input.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parse(s, "session id")
	return SessionID(u), err
}

// ParseInvitationID constructs an InvitationID from external input.
// Called at the redemption boundary; an unparseable token is indistinguishable
// from an unknown one for callers, so they should map this to not-found.
func ParseInvitationID(s string) (InvitationID, error) {
	u, err := parse(s, "invitation token")
	return InvitationID(u), err
}

func parse(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	return u, nil
}
