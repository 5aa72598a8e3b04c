package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"crewbase/internal/auth/models"
	"crewbase/internal/platform/middleware"
	id "crewbase/pkg/domain"
	dErrors "crewbase/pkg/domain-errors"
	"crewbase/pkg/requestcontext"
	"crewbase/pkg/testutil"
)

type stubResolver struct {
	principal models.Principal
	err       error
}

func (s stubResolver) CurrentPrincipal(context.Context, string) (models.Principal, error) {
	return s.principal, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireSession(t *testing.T) {
	t.Run("missing cookie is 401", func(t *testing.T) {
		var hit bool
		h := middleware.RequireSession(stubResolver{}, testLogger())(okHandler(&hit))

		rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/auth/me"))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		testutil.AssertErrorCode(t, rr, "unauthenticated")
		assert.False(t, hit)
	})

	t.Run("invalid artifact is 401", func(t *testing.T) {
		var hit bool
		resolver := stubResolver{err: dErrors.New(dErrors.CodeUnauthenticated, "session has been revoked")}
		h := middleware.RequireSession(resolver, testLogger())(okHandler(&hit))

		req := testutil.NewRequest(t, http.MethodGet, "/auth/me")
		req.AddCookie(&http.Cookie{Name: models.SessionCookieName, Value: "stale"})
		rr := testutil.DoRequest(h, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		assert.False(t, hit)
	})

	t.Run("unresolvable role is 403", func(t *testing.T) {
		var hit bool
		resolver := stubResolver{err: dErrors.New(dErrors.CodeForbidden, "access denied")}
		h := middleware.RequireSession(resolver, testLogger())(okHandler(&hit))

		req := testutil.NewRequest(t, http.MethodGet, "/auth/me")
		req.AddCookie(&http.Cookie{Name: models.SessionCookieName, Value: "valid-but-roleless"})
		rr := testutil.DoRequest(h, req)
		testutil.AssertStatus(t, rr, http.StatusForbidden)
		testutil.AssertErrorCode(t, rr, "forbidden")
		assert.False(t, hit)
	})

	t.Run("valid session injects the principal", func(t *testing.T) {
		pid := id.NewPrincipalID()
		resolver := stubResolver{principal: models.Principal{ID: pid, Tier: id.TierPlatform}}

		var seen id.PrincipalID
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = requestcontext.PrincipalID(r.Context())
			w.WriteHeader(http.StatusOK)
		})
		h := middleware.RequireSession(resolver, testLogger())(inner)

		req := testutil.NewRequest(t, http.MethodGet, "/auth/me")
		req.AddCookie(&http.Cookie{Name: models.SessionCookieName, Value: "valid"})
		rr := testutil.DoRequest(h, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, pid, seen)
	})
}

func TestRequirePlatform(t *testing.T) {
	t.Run("platform tier passes", func(t *testing.T) {
		var hit bool
		h := middleware.RequirePlatform(testLogger())(okHandler(&hit))

		req := testutil.WithPrincipal(testutil.NewRequest(t, http.MethodGet, "/platform/audit"),
			id.NewPrincipalID().String(), id.TierPlatform)
		rr := testutil.DoRequest(h, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.True(t, hit)
	})

	t.Run("company tier is 403", func(t *testing.T) {
		var hit bool
		h := middleware.RequirePlatform(testLogger())(okHandler(&hit))

		req := testutil.WithPrincipal(testutil.NewRequest(t, http.MethodGet, "/platform/audit"),
			id.NewPrincipalID().String(), id.TierCompany)
		rr := testutil.DoRequest(h, req)
		testutil.AssertStatus(t, rr, http.StatusForbidden)
		assert.False(t, hit)
	})
}
