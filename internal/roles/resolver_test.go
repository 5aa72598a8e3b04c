package roles

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "crewbase/pkg/domain"
	dErrors "crewbase/pkg/domain-errors"
)

type ResolverSuite struct {
	suite.Suite
	operators *InMemoryOperatorRegistry
	members   *InMemoryMemberRegistry
	resolver  *Resolver
	ctx       context.Context
}

func (s *ResolverSuite) SetupTest() {
	s.operators = NewInMemoryOperatorRegistry()
	s.members = NewInMemoryMemberRegistry()
	s.resolver = NewResolver(s.operators, s.members)
	s.ctx = context.Background()
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) TestResolve() {
	s.Run("operator resolves to platform tier without tenant", func() {
		pid := id.NewPrincipalID()
		s.Require().NoError(s.operators.Save(s.ctx, Operator{PrincipalID: pid}))

		res, err := s.resolver.Resolve(s.ctx, pid)
		s.Require().NoError(err)
		s.Equal(id.TierPlatform, res.Tier)
		s.True(res.TenantID.IsNil())
	})

	s.Run("member resolves to company tier with tenant", func() {
		pid := id.NewPrincipalID()
		tid := id.TenantID(uuid.New())
		s.Require().NoError(s.members.Save(s.ctx, Member{PrincipalID: pid, TenantID: tid}))

		res, err := s.resolver.Resolve(s.ctx, pid)
		s.Require().NoError(err)
		s.Equal(id.TierCompany, res.Tier)
		s.Equal(tid, res.TenantID)
	})

	s.Run("operator wins when both registries match", func() {
		pid := id.NewPrincipalID()
		s.Require().NoError(s.operators.Save(s.ctx, Operator{PrincipalID: pid}))
		s.Require().NoError(s.members.Save(s.ctx, Member{PrincipalID: pid, TenantID: id.TenantID(uuid.New())}))

		res, err := s.resolver.Resolve(s.ctx, pid)
		s.Require().NoError(err)
		s.Equal(id.TierPlatform, res.Tier)
		s.True(res.TenantID.IsNil())
	})

	s.Run("unknown principal is forbidden", func() {
		_, err := s.resolver.Resolve(s.ctx, id.NewPrincipalID())
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("nil principal is invalid input", func() {
		_, err := s.resolver.Resolve(s.ctx, id.PrincipalID{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("registry outage surfaces as unavailable, not forbidden", func() {
		pid := id.NewPrincipalID()
		broken := NewResolver(failingOperators{}, s.members)

		_, err := broken.Resolve(s.ctx, pid)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

type failingOperators struct{}

func (failingOperators) FindOperator(context.Context, id.PrincipalID) (Operator, error) {
	return Operator{}, errors.New("registry timeout")
}
