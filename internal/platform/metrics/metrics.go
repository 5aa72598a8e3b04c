package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SessionsCreated     prometheus.Counter
	SessionsRevoked     prometheus.Counter
	AuthFailures        *prometheus.CounterVec
	InvitationsCreated  prometheus.Counter
	InvitationsAccepted prometheus.Counter
	InvitationsExpired  prometheus.Counter
	AuditEventsDropped  prometheus.Counter
	RequestDurationMs   *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crewbase_sessions_created_total",
			Help: "Total number of session artifacts issued",
		}),
		SessionsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crewbase_sessions_revoked_total",
			Help: "Total number of session revocations, including revoke-all epoch bumps",
		}),
		AuthFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crewbase_auth_failures_total",
			Help: "Authentication and authorization failures by reason",
		}, []string{"reason"}),
		InvitationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crewbase_invitations_created_total",
			Help: "Total number of invitations issued",
		}),
		InvitationsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crewbase_invitations_accepted_total",
			Help: "Total number of invitations consumed",
		}),
		InvitationsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crewbase_invitations_expired_total",
			Help: "Total number of invitations marked expired, lazily or by sweep",
		}),
		AuditEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crewbase_audit_events_dropped_total",
			Help: "Audit entries dropped because the recorder buffer was full",
		}),
		RequestDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crewbase_request_duration_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"route", "method", "status"}),
	}
}
