package models

import (
	"time"

	id "crewbase/pkg/domain"
)

// SessionCookieName names the cookie carrying the session artifact.
const SessionCookieName = "crewbase_session"

// SessionTTL is the hard upper bound on artifact validity. The configurable
// inactivity window is a soft, client-enforced bound that must stay at or
// below this.
const SessionTTL = 5 * 24 * time.Hour

// Identity is what the external identity authority asserts about a
// credential: a stable subject plus optional profile fields. It carries no
// tier; tiers come from role resolution.
type Identity struct {
	ID          id.PrincipalID
	Email       string
	DisplayName string
}

// Principal is an authenticated identity with a resolved access tier.
// Recomputed on every verification, never persisted by this core.
type Principal struct {
	ID          id.PrincipalID
	DisplayName string
	Tier        id.Tier
	// TenantID is set iff Tier is company.
	TenantID id.TenantID
}
