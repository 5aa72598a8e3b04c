package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"crewbase/internal/auth/models"
	id "crewbase/pkg/domain"
	dErrors "crewbase/pkg/domain-errors"
	"crewbase/pkg/requestcontext"
)

// PrincipalResolver verifies a session artifact and resolves the principal
// behind it. Implemented by the session service.
type PrincipalResolver interface {
	CurrentPrincipal(ctx context.Context, artifact string) (models.Principal, error)
}

// RequireSession reads the session cookie, verifies the artifact, and injects
// the resolved principal into the request context. Absent or invalid cookies
// route to the unauthenticated path with a generic message.
func RequireSession(resolver PrincipalResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			cookie, err := r.Cookie(models.SessionCookieName)
			if err != nil || cookie.Value == "" {
				logger.WarnContext(ctx, "unauthenticated request - missing session cookie",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "Please sign in again")
				return
			}

			principal, err := resolver.CurrentPrincipal(ctx, cookie.Value)
			if err != nil {
				status := http.StatusUnauthorized
				code := "unauthenticated"
				desc := "Please sign in again"
				if dErrors.HasCode(err, dErrors.CodeForbidden) {
					status = http.StatusForbidden
					code = "forbidden"
					desc = "Access denied"
				}
				logger.WarnContext(ctx, "session verification failed",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, status, code, desc)
				return
			}

			ctx = requestcontext.WithPrincipalID(ctx, principal.ID)
			ctx = requestcontext.WithTier(ctx, principal.Tier)
			if !principal.TenantID.IsNil() {
				ctx = requestcontext.WithTenantID(ctx, principal.TenantID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePlatform rejects requests whose resolved tier is not platform.
// Must run after RequireSession.
func RequirePlatform(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if tier := requestcontext.Tier(ctx); tier != id.TierPlatform {
				logger.WarnContext(ctx, "forbidden - platform tier required",
					"tier", tier.String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
