// Package service implements the session lifecycle: minting session
// artifacts from verified credentials, resolving the principal behind an
// artifact on every protected request, and revoking sessions. Every create
// and revoke attempt, success or failure, produces exactly one audit entry
// after the primary outcome is known.
package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"crewbase/internal/audit"
	"crewbase/internal/auth/device"
	"crewbase/internal/auth/models"
	"crewbase/internal/auth/store/epoch"
	"crewbase/internal/auth/verifier"
	"crewbase/internal/platform/metrics"
	"crewbase/internal/roles"
	id "crewbase/pkg/domain"
	dErrors "crewbase/pkg/domain-errors"
	"crewbase/pkg/requestcontext"
)

// CredentialVerifier is the subset of the verifier the session service needs.
type CredentialVerifier interface {
	VerifyCredential(ctx context.Context, raw string) (models.Identity, error)
	MintArtifact(identity models.Identity, sessionID id.SessionID, epoch int64, now time.Time, ttl time.Duration) (string, error)
	VerifyArtifact(ctx context.Context, raw string) (verifier.ArtifactClaims, error)
}

// RoleResolver tags a principal with its access tier.
type RoleResolver interface {
	Resolve(ctx context.Context, principalID id.PrincipalID) (roles.Resolution, error)
}

// Service orchestrates the session lifecycle.
type Service struct {
	verifier   CredentialVerifier
	roles      RoleResolver
	epochs     epoch.Store
	recorder   audit.Recorder
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	sessionTTL time.Duration
}

// New builds the session service. A non-positive ttl falls back to
// models.SessionTTL.
func New(v CredentialVerifier, resolver RoleResolver, epochs epoch.Store, recorder audit.Recorder, logger *slog.Logger, m *metrics.Metrics, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = models.SessionTTL
	}
	return &Service{
		verifier:   v,
		roles:      resolver,
		epochs:     epochs,
		recorder:   recorder,
		logger:     logger,
		metrics:    m,
		tracer:     otel.Tracer("crewbase/auth"),
		sessionTTL: ttl,
	}
}

// CreateSession verifies the credential, mints an artifact with the fixed
// session TTL, and returns it with the resolved principal. Verification and
// resolution failures are terminal; no partial session state is left behind.
func (s *Service) CreateSession(ctx context.Context, rawCredential string) (string, models.Principal, error) {
	ctx, span := s.tracer.Start(ctx, "session.create")
	defer span.End()

	now := requestcontext.Now(ctx)

	identity, err := s.verifier.VerifyCredential(ctx, rawCredential)
	if err != nil {
		s.auditCreate(ctx, audit.Actor{}, id.TenantID{}, audit.StatusFailure, map[string]string{
			"reason": "invalid_credential",
		})
		s.countAuthFailure("invalid_credential")
		return "", models.Principal{}, dErrors.Wrap(err, dErrors.CodeUnauthenticated, "session creation failed")
	}

	actor := audit.Actor{ID: identity.ID.String(), DisplayName: identity.DisplayName}

	resolution, err := s.roles.Resolve(ctx, identity.ID)
	if err != nil {
		reason := "unresolved_principal"
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			reason = "registry_unavailable"
		}
		s.auditCreate(ctx, actor, id.TenantID{}, audit.StatusFailure, map[string]string{
			"reason": reason,
		})
		s.countAuthFailure(reason)
		return "", models.Principal{}, err
	}
	actor.Role = resolution.Tier.String()

	currentEpoch, err := s.epochs.Current(ctx, identity.ID)
	if err != nil {
		s.auditCreate(ctx, actor, resolution.TenantID, audit.StatusFailure, map[string]string{
			"reason": "epoch_store_unavailable",
		})
		return "", models.Principal{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "session store unreachable")
	}

	sessionID := id.NewSessionID()
	artifact, err := s.verifier.MintArtifact(identity, sessionID, currentEpoch, now, s.sessionTTL)
	if err != nil {
		s.auditCreate(ctx, actor, resolution.TenantID, audit.StatusFailure, map[string]string{
			"reason": "artifact_mint_failed",
		})
		return "", models.Principal{}, dErrors.Wrap(err, dErrors.CodeInternal, "session creation failed")
	}

	s.auditCreate(ctx, actor, resolution.TenantID, audit.StatusSuccess, map[string]string{
		"session_id": sessionID.String(),
		"device":     device.ParseUserAgent(requestcontext.UserAgent(ctx)),
		"expires_at": now.Add(s.sessionTTL).Format(time.RFC3339),
	})
	if s.metrics != nil {
		s.metrics.SessionsCreated.Inc()
	}

	principal := models.Principal{
		ID:          identity.ID,
		DisplayName: identity.DisplayName,
		Tier:        resolution.Tier,
		TenantID:    resolution.TenantID,
	}
	return artifact, principal, nil
}

// CurrentPrincipal verifies the artifact and re-resolves the role. Fails with
// CodeUnauthenticated when the artifact is missing, invalid, expired, or
// predates the principal's current epoch, and CodeForbidden when the identity
// no longer resolves to a tier.
func (s *Service) CurrentPrincipal(ctx context.Context, rawArtifact string) (models.Principal, error) {
	claims, err := s.verifier.VerifyArtifact(ctx, rawArtifact)
	if err != nil {
		return models.Principal{}, err
	}

	principalID, err := id.ParsePrincipalID(claims.Subject)
	if err != nil {
		return models.Principal{}, dErrors.New(dErrors.CodeUnauthenticated, "invalid session")
	}

	currentEpoch, err := s.epochs.Current(ctx, principalID)
	if err != nil {
		return models.Principal{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "session store unreachable")
	}
	if claims.Epoch != currentEpoch {
		s.countAuthFailure("session_epoch_stale")
		return models.Principal{}, dErrors.New(dErrors.CodeUnauthenticated, "session has been revoked")
	}

	resolution, err := s.roles.Resolve(ctx, principalID)
	if err != nil {
		return models.Principal{}, err
	}

	return models.Principal{
		ID:          principalID,
		DisplayName: claims.DisplayName,
		Tier:        resolution.Tier,
		TenantID:    resolution.TenantID,
	}, nil
}

// RevokeSession records a logout. The artifact lives client-side, so
// revocation is cookie deletion plus the audit trail; an absent or invalid
// artifact is not an error, and revoking twice in a row succeeds both times.
func (s *Service) RevokeSession(ctx context.Context, rawArtifact string) error {
	details := map[string]string{}
	actor := audit.Actor{}

	if rawArtifact == "" {
		details["artifact"] = "absent"
	} else if claims, err := s.verifier.VerifyArtifact(ctx, rawArtifact); err != nil {
		details["artifact"] = "invalid_or_expired"
	} else {
		actor.ID = claims.Subject
		actor.DisplayName = claims.DisplayName
		details["session_id"] = claims.SessionID
	}

	s.recorder.Record(ctx, audit.Entry{
		Actor:   actor,
		Action:  audit.ActionSessionRevoke,
		Target:  audit.Target{ID: details["session_id"], Type: "session"},
		Status:  audit.StatusSuccess,
		Details: details,
	})
	if s.metrics != nil {
		s.metrics.SessionsRevoked.Inc()
	}
	return nil
}

// RevokeAll bumps the principal's session epoch, instantly invalidating every
// outstanding artifact for that principal across devices.
func (s *Service) RevokeAll(ctx context.Context, principalID id.PrincipalID) error {
	if principalID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthenticated, "principal required")
	}

	newEpoch, err := s.epochs.Bump(ctx, principalID)
	if err != nil {
		s.recorder.Record(ctx, audit.Entry{
			Actor:   audit.Actor{ID: principalID.String()},
			Action:  audit.ActionSessionRevokeAll,
			Status:  audit.StatusFailure,
			Details: map[string]string{"reason": "epoch_store_unavailable"},
		})
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "session store unreachable")
	}

	s.recorder.Record(ctx, audit.Entry{
		Actor:   audit.Actor{ID: principalID.String()},
		Action:  audit.ActionSessionRevokeAll,
		Status:  audit.StatusSuccess,
		Details: map[string]string{"epoch": strconv.FormatInt(newEpoch, 10)},
	})
	if s.metrics != nil {
		s.metrics.SessionsRevoked.Inc()
	}
	s.logger.InfoContext(ctx, "all sessions revoked",
		"principal_id", principalID.String(),
		"epoch", newEpoch,
	)
	return nil
}

func (s *Service) auditCreate(ctx context.Context, actor audit.Actor, tenantID id.TenantID, status audit.Status, details map[string]string) {
	s.recorder.Record(ctx, audit.Entry{
		Actor:    actor,
		Action:   audit.ActionSessionCreate,
		Target:   audit.Target{ID: actor.ID, Type: "principal"},
		Status:   status,
		Details:  details,
		TenantID: tenantID,
	})
}

func (s *Service) countAuthFailure(reason string) {
	if s.metrics != nil {
		s.metrics.AuthFailures.WithLabelValues(reason).Inc()
	}
}
