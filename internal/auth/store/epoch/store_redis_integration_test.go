//go:build integration

package epoch_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"crewbase/internal/auth/store/epoch"
	id "crewbase/pkg/domain"
	"crewbase/pkg/testutil/containers"
)

type RedisEpochSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *epoch.RedisStore
	ctx   context.Context
}

func TestRedisEpochSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisEpochSuite))
}

func (s *RedisEpochSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = epoch.NewRedisStore(s.redis.Client)
	s.ctx = context.Background()
}

func (s *RedisEpochSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisEpochSuite) TestCurrentDefaultsToZero() {
	current, err := s.store.Current(s.ctx, id.NewPrincipalID())
	s.Require().NoError(err)
	s.Equal(int64(0), current)
}

func (s *RedisEpochSuite) TestBumpIsMonotonic() {
	pid := id.NewPrincipalID()

	first, err := s.store.Bump(s.ctx, pid)
	s.Require().NoError(err)
	s.Equal(int64(1), first)

	second, err := s.store.Bump(s.ctx, pid)
	s.Require().NoError(err)
	s.Equal(int64(2), second)

	current, err := s.store.Current(s.ctx, pid)
	s.Require().NoError(err)
	s.Equal(int64(2), current)
}

func (s *RedisEpochSuite) TestBumpIsolatedPerPrincipal() {
	a, b := id.NewPrincipalID(), id.NewPrincipalID()

	_, err := s.store.Bump(s.ctx, a)
	s.Require().NoError(err)

	current, err := s.store.Current(s.ctx, b)
	s.Require().NoError(err)
	s.Equal(int64(0), current)
}

// Concurrent bumps must never produce duplicate epochs; INCR guarantees this
// across instances.
func (s *RedisEpochSuite) TestConcurrentBumps() {
	pid := id.NewPrincipalID()
	const n = 20

	var wg sync.WaitGroup
	seen := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := s.store.Bump(s.ctx, pid)
			s.NoError(err)
			seen <- e
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for e := range seen {
		unique[e] = true
	}
	s.Len(unique, n)

	current, err := s.store.Current(s.ctx, pid)
	s.Require().NoError(err)
	s.Equal(int64(n), current)
}
