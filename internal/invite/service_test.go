package invite

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"crewbase/internal/audit"
	id "crewbase/pkg/domain"
	dErrors "crewbase/pkg/domain-errors"
	"crewbase/pkg/requestcontext"
)

type InviteServiceSuite struct {
	suite.Suite
	service  *Service
	store    *InMemoryStore
	auditLog *audit.InMemoryStore
	ctx      context.Context
	now      time.Time
}

func (s *InviteServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.store = NewInMemoryStore()
	s.auditLog = audit.NewInMemoryStore()
	s.service = NewService(s.store, audit.NewSyncRecorder(s.auditLog, logger), logger, nil)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func TestInviteServiceSuite(t *testing.T) {
	suite.Run(t, new(InviteServiceSuite))
}

func (s *InviteServiceSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *InviteServiceSuite) create() *Invitation {
	inv, err := s.service.Create(s.ctx, CreateInput{
		Email:    "new.hire@example.com",
		Role:     id.TierCompany,
		TenantID: id.TenantID(uuid.New()),
	})
	s.Require().NoError(err)
	return inv
}

func (s *InviteServiceSuite) auditActions() []audit.Action {
	var out []audit.Action
	for _, e := range s.auditLog.All() {
		out = append(out, e.Action)
	}
	return out
}

func (s *InviteServiceSuite) TestCreate() {
	s.Run("audits creation with inviter as actor", func() {
		ctx := requestcontext.WithPrincipalID(s.ctx, id.NewPrincipalID())
		ctx = requestcontext.WithTier(ctx, id.TierPlatform)

		_, err := s.service.Create(ctx, CreateInput{
			Email:    "hire@example.com",
			Role:     id.TierCompany,
			TenantID: id.TenantID(uuid.New()),
		})
		s.Require().NoError(err)

		entries := s.auditLog.All()
		s.Require().Len(entries, 1)
		s.Equal(audit.ActionInviteCreate, entries[0].Action)
		s.Equal(audit.StatusSuccess, entries[0].Status)
		s.NotEmpty(entries[0].Actor.ID)
		s.Equal("platform", entries[0].Actor.Role)
	})

	s.Run("derives blank names from the email local part", func() {
		inv, err := s.service.Create(s.ctx, CreateInput{
			Email:    "jane.doe@example.com",
			Role:     id.TierCompany,
			TenantID: id.TenantID(uuid.New()),
		})
		s.Require().NoError(err)
		s.Equal("Jane", inv.FirstName)
		s.Equal("Doe", inv.LastName)
	})

	s.Run("invalid input is not audited", func() {
		before := len(s.auditLog.All())
		_, err := s.service.Create(s.ctx, CreateInput{Email: "not-an-email", Role: id.TierPlatform})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Len(s.auditLog.All(), before)
	})
}

func (s *InviteServiceSuite) TestRedeem() {
	s.Run("returns pending invitation", func() {
		inv := s.create()
		got, err := s.service.Redeem(s.ctx, inv.ID)
		s.Require().NoError(err)
		s.Equal(inv.Email, got.Email)
	})

	s.Run("unknown token collapses to not found", func() {
		_, err := s.service.Redeem(s.ctx, id.NewInvitationID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("past-expiry token expires lazily and collapses to not found", func() {
		inv := s.create()
		late := s.at(s.now.Add(TTL + time.Hour))

		_, err := s.service.Redeem(late, inv.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		stored, serr := s.store.FindByID(s.ctx, inv.ID)
		s.Require().NoError(serr)
		s.Equal(StatusExpired, stored.Status)
		s.Contains(s.auditActions(), audit.ActionInviteExpire)
	})

	s.Run("consumed token collapses to not found", func() {
		inv := s.create()
		_, err := s.service.Consume(s.ctx, inv.ID)
		s.Require().NoError(err)

		_, err = s.service.Redeem(s.ctx, inv.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("stale token stays not found when the expiry write fails", func() {
		inv := s.create()
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		flaky := NewService(&executeFailingStore{Store: s.store}, audit.NewSyncRecorder(s.auditLog, logger), logger, nil)
		late := s.at(s.now.Add(TTL + time.Hour))

		_, err := flaky.Redeem(late, inv.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		// The persist never happened, but the timestamp still rules.
		stored, serr := s.store.FindByID(s.ctx, inv.ID)
		s.Require().NoError(serr)
		s.Equal(StatusPending, stored.Status)
	})
}

// executeFailingStore simulates a store whose conditional writes are down
// while reads still work.
type executeFailingStore struct {
	Store
}

func (f *executeFailingStore) Execute(context.Context, id.InvitationID, func(*Invitation) error, func(*Invitation)) (*Invitation, error) {
	return nil, dErrors.New(dErrors.CodeUnavailable, "store unavailable")
}

func (s *InviteServiceSuite) TestConsume() {
	s.Run("accepts once and audits success", func() {
		inv := s.create()
		got, err := s.service.Consume(s.ctx, inv.ID)
		s.Require().NoError(err)
		s.Equal(StatusAccepted, got.Status)

		entries := s.auditLog.All()
		last := entries[len(entries)-1]
		s.Equal(audit.ActionInviteAccept, last.Action)
		s.Equal(audit.StatusSuccess, last.Status)
	})

	s.Run("second consume fails with not found but audits the true reason", func() {
		inv := s.create()
		_, err := s.service.Consume(s.ctx, inv.ID)
		s.Require().NoError(err)

		_, err = s.service.Consume(s.ctx, inv.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		entries := s.auditLog.All()
		last := entries[len(entries)-1]
		s.Equal(audit.StatusFailure, last.Status)
		s.Equal("already_consumed", last.Details["reason"])
	})

	s.Run("expired consume fails with not found", func() {
		inv := s.create()
		late := s.at(s.now.Add(TTL + time.Hour))

		_, err := s.service.Consume(late, inv.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		entries := s.auditLog.All()
		last := entries[len(entries)-1]
		s.Equal(audit.StatusFailure, last.Status)
		s.Equal("expired", last.Details["reason"])
	})
}

func (s *InviteServiceSuite) TestSweep() {
	inv1 := s.create()
	inv2 := s.create()
	accepted := s.create()
	_, err := s.service.Consume(s.ctx, accepted.ID)
	s.Require().NoError(err)

	late := s.at(s.now.Add(TTL + time.Hour))
	n, err := s.service.Sweep(late, 100)
	s.Require().NoError(err)
	s.Equal(2, n)

	for _, invID := range []id.InvitationID{inv1.ID, inv2.ID} {
		stored, err := s.store.FindByID(s.ctx, invID)
		s.Require().NoError(err)
		s.Equal(StatusExpired, stored.Status)
	}
	stored, err := s.store.FindByID(s.ctx, accepted.ID)
	s.Require().NoError(err)
	s.Equal(StatusAccepted, stored.Status)
}
