package testutil

import (
	"net/http"

	id "crewbase/pkg/domain"
	"crewbase/pkg/requestcontext"
)

// WithPrincipal stamps a resolved principal onto the request context,
// simulating what the session middleware does for authenticated requests.
// An unparsable principal ID is silently ignored.
func WithPrincipal(req *http.Request, principalID string, tier id.Tier) *http.Request {
	ctx := req.Context()
	if pid, err := id.ParsePrincipalID(principalID); err == nil {
		ctx = requestcontext.WithPrincipalID(ctx, pid)
	}
	ctx = requestcontext.WithTier(ctx, tier)
	return req.WithContext(ctx)
}
