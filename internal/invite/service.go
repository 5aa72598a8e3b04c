package invite

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"crewbase/internal/audit"
	"crewbase/internal/platform/metrics"
	id "crewbase/pkg/domain"
	dErrors "crewbase/pkg/domain-errors"
	"crewbase/pkg/email"
	"crewbase/pkg/platform/sentinel"
	"crewbase/pkg/requestcontext"
)

// Service orchestrates the invitation lifecycle: issue, redeem, consume,
// expire. All outcomes that change or attempt to change state are audited.
type Service struct {
	store    Store
	recorder audit.Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func NewService(store Store, recorder audit.Recorder, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		recorder: recorder,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("crewbase/invite"),
	}
}

// CreateInput carries the inviter's intent.
type CreateInput struct {
	Email     string
	FirstName string
	LastName  string
	Role      id.Tier
	TenantID  id.TenantID
}

// Create issues a pending invitation valid for 7 days. The invitation ID is
// the redemption token. Recipient names left blank are derived from the
// email's local part. Creation is audited with the inviting principal as
// the actor.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "invite.Create")
	defer span.End()

	if in.FirstName == "" && in.LastName == "" {
		in.FirstName, in.LastName = email.DeriveNameFromEmail(in.Email)
	}
	inv, err := NewInvitation(in.Email, in.FirstName, in.LastName, in.Role, in.TenantID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, inv); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create invitation")
	}

	s.recorder.Record(ctx, audit.Entry{
		Actor:    inviterActor(ctx),
		Action:   audit.ActionInviteCreate,
		Target:   invitationTarget(inv),
		Status:   audit.StatusSuccess,
		TenantID: inv.TenantID,
		Details: map[string]string{
			"email": inv.Email,
			"role":  inv.Role.String(),
		},
	})
	if s.metrics != nil {
		s.metrics.InvitationsCreated.Inc()
	}
	return inv, nil
}

// Redeem looks up an invitation for the pre-acceptance view. It is an
// unauthenticated endpoint, so every failure collapses to the same not-found
// answer: a missing token, an expired one, and a consumed one are
// indistinguishable to the caller. An invitation found past its expiry is
// transitioned to expired here rather than waiting for the sweep.
func (s *Service) Redeem(ctx context.Context, invitationID id.InvitationID) (*Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "invite.Redeem")
	defer span.End()

	inv, err := s.store.FindByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, notFound()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "invitation lookup failed")
	}

	now := requestcontext.Now(ctx)
	if inv.IsStale(now) {
		// The timestamp alone decides the answer; the persist is best
		// effort and a failure must not resurrect the invitation.
		if _, err := s.expire(ctx, inv.ID); err != nil &&
			!dErrors.HasCode(err, dErrors.CodeInvariantViolation) && !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "lazy invitation expiry failed",
				"invitation_id", inv.ID.String(), "error", err)
		}
		return nil, notFound()
	}
	if inv.Status != StatusPending {
		return nil, notFound()
	}
	return inv, nil
}

// Consume atomically accepts an invitation. The check and the status write
// happen under the store's lock, so of N concurrent redemptions of one token
// exactly one succeeds; the rest observe the committed acceptance and fail.
// Both outcomes are audited with the true reason, even though the caller only
// ever sees not-found.
func (s *Service) Consume(ctx context.Context, invitationID id.InvitationID) (*Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "invite.Consume")
	defer span.End()

	now := requestcontext.Now(ctx)
	inv, err := s.store.Execute(ctx, invitationID,
		func(i *Invitation) error {
			return i.CanAccept(now)
		},
		func(i *Invitation) {
			i.ApplyAccept()
		},
	)
	if err != nil {
		s.auditConsumeFailure(ctx, invitationID, err)
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeConflict) || dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, notFound()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "invitation consume failed")
	}

	s.recorder.Record(ctx, audit.Entry{
		Actor:    audit.Actor{DisplayName: inv.Email},
		Action:   audit.ActionInviteAccept,
		Target:   invitationTarget(inv),
		Status:   audit.StatusSuccess,
		TenantID: inv.TenantID,
		Details:  map[string]string{"role": inv.Role.String()},
	})
	if s.metrics != nil {
		s.metrics.InvitationsAccepted.Inc()
	}
	return inv, nil
}

// ListByTenant returns a tenant's invitations for the management view.
func (s *Service) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*Invitation, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}
	invs, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "invitation list failed")
	}
	return invs, nil
}

// Sweep expires stale pending invitations in batches. Called periodically by
// the background sweeper; safe to run concurrently with redemption because
// each transition goes through Execute.
func (s *Service) Sweep(ctx context.Context, batchSize int) (int, error) {
	stale, err := s.store.ListStalePending(ctx, requestcontext.Now(ctx), batchSize)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "stale invitation scan failed")
	}
	expired := 0
	for _, inv := range stale {
		if _, err := s.expire(ctx, inv.ID); err != nil {
			// A concurrent acceptance between the scan and the transition
			// loses the race legitimately; anything else is logged and the
			// sweep moves on.
			if !dErrors.HasCode(err, dErrors.CodeInvariantViolation) && !errors.Is(err, sentinel.ErrNotFound) {
				s.logger.WarnContext(ctx, "invitation sweep transition failed",
					"invitation_id", inv.ID.String(), "error", err)
			}
			continue
		}
		expired++
	}
	return expired, nil
}

// expire transitions one pending invitation to expired and audits it.
func (s *Service) expire(ctx context.Context, invitationID id.InvitationID) (*Invitation, error) {
	inv, err := s.store.Execute(ctx, invitationID,
		func(i *Invitation) error {
			return i.CanExpire()
		},
		func(i *Invitation) {
			i.ApplyExpire()
		},
	)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.Entry{
		Action:   audit.ActionInviteExpire,
		Target:   invitationTarget(inv),
		Status:   audit.StatusSuccess,
		TenantID: inv.TenantID,
	})
	if s.metrics != nil {
		s.metrics.InvitationsExpired.Inc()
	}
	return inv, nil
}

func (s *Service) auditConsumeFailure(ctx context.Context, invitationID id.InvitationID, cause error) {
	reason := "not_found"
	switch {
	case dErrors.HasCode(cause, dErrors.CodeConflict):
		reason = "already_consumed"
	case dErrors.HasCode(cause, dErrors.CodeNotFound):
		reason = "expired"
	case !errors.Is(cause, sentinel.ErrNotFound):
		reason = "store_unavailable"
	}
	s.recorder.Record(ctx, audit.Entry{
		Action:  audit.ActionInviteAccept,
		Target:  audit.Target{ID: invitationID.String(), Type: "invitation"},
		Status:  audit.StatusFailure,
		Details: map[string]string{"reason": reason},
	})
}

// Sweeper runs Sweep on a fixed interval until the context is cancelled.
type Sweeper struct {
	service  *Service
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

func NewSweeper(service *Service, interval time.Duration, batch int, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if batch <= 0 {
		batch = 100
	}
	return &Sweeper{service: service, interval: interval, batch: batch, logger: logger}
}

func (w *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := w.service.Sweep(ctx, w.batch)
			if err != nil {
				w.logger.WarnContext(ctx, "invitation sweep failed", "error", err)
				continue
			}
			if n > 0 {
				w.logger.InfoContext(ctx, "expired stale invitations", "count", n)
			}
		}
	}
}

func inviterActor(ctx context.Context) audit.Actor {
	return audit.Actor{
		ID:   requestcontext.PrincipalID(ctx).String(),
		Role: requestcontext.Tier(ctx).String(),
	}
}

func invitationTarget(inv *Invitation) audit.Target {
	return audit.Target{ID: inv.ID.String(), Type: "invitation", DisplayName: inv.Email}
}

func notFound() error {
	return dErrors.New(dErrors.CodeNotFound, "invitation not found or no longer valid")
}
