package epoch

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	id "crewbase/pkg/domain"
)

const epochKeyPrefix = "session:epoch:"

// RedisStore is the production-recommended epoch store for distributed
// deployments. INCR gives the monotonic bump atomically across instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Current(ctx context.Context, principalID id.PrincipalID) (int64, error) {
	val, err := s.client.Get(ctx, epochKeyPrefix+principalID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get session epoch: %w", err)
	}
	epoch, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse session epoch: %w", err)
	}
	return epoch, nil
}

func (s *RedisStore) Bump(ctx context.Context, principalID id.PrincipalID) (int64, error) {
	epoch, err := s.client.Incr(ctx, epochKeyPrefix+principalID.String()).Result()
	if err != nil {
		return 0, fmt.Errorf("bump session epoch: %w", err)
	}
	return epoch, nil
}
