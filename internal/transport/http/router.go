package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crewbase/internal/platform/metrics"
	"crewbase/internal/platform/middleware"
)

// Deps carries everything the router mounts.
type Deps struct {
	Sessions      SessionService
	Invites       InviteService
	Settings      SettingsService
	AuditLog      AuditReader
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	SecureCookies bool
	SessionTTL    time.Duration
	Health        func() error
}

// NewRouter assembles the full HTTP surface: anonymous session/invitation
// endpoints, the authenticated app surface, and the platform-operator
// console behind the tier gate.
func NewRouter(d Deps) http.Handler {
	sessions := NewSessionHandler(d.Sessions, d.SecureCookies, d.SessionTTL)
	invites := NewInviteHandler(d.Invites)
	platform := NewPlatformHandler(d.Settings, d.AuditLog)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", health(d.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// anonymous: login, logout, invitation redemption
	r.Group(func(r chi.Router) {
		r.Use(middleware.Latency(d.Metrics, "public"))
		sessions.Register(r)
		invites.Register(r)
	})

	// authenticated app surface
	r.Group(func(r chi.Router) {
		r.Use(middleware.Latency(d.Metrics, "session"))
		r.Use(middleware.RequireSession(d.Sessions, d.Logger))
		sessions.RegisterProtected(r)
		invites.RegisterProtected(r)
	})

	// platform operator console
	r.Group(func(r chi.Router) {
		r.Use(middleware.Latency(d.Metrics, "platform"))
		r.Use(middleware.RequireSession(d.Sessions, d.Logger))
		r.Use(middleware.RequirePlatform(d.Logger))
		platform.Register(r)
	})

	return r
}

func health(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
