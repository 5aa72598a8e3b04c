package domain

import dErrors "crewbase/pkg/domain-errors"

// Tier is the access tier a resolved principal holds.
// Invariant: the value is one of the supported tiers.
//
// Usage: construct via ParseTier at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Tier string

const (
	// TierPlatform is a platform operator with cross-tenant access.
	TierPlatform Tier = "platform"
	// TierCompany is a company team member scoped to exactly one tenant.
	TierCompany Tier = "company"
)

var validTiers = map[Tier]bool{
	TierPlatform: true,
	TierCompany:  true,
}

// ParseTier constructs a Tier from external input.
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseTier(s string) (Tier, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "tier cannot be empty")
	}
	t := Tier(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid tier")
	}
	return t, nil
}

// IsValid checks if the tier is one of the supported enum values.
func (t Tier) IsValid() bool {
	return validTiers[t]
}

// String returns the string representation of the tier.
func (t Tier) String() string {
	return string(t)
}
