package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"crewbase/pkg/platform/sentinel"
)

const settingsKey = "platform:settings:session"

// RedisStore shares the settings document across instances so an update on
// one node is visible to all.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context) (SessionSettings, error) {
	val, err := s.client.Get(ctx, settingsKey).Result()
	if errors.Is(err, redis.Nil) {
		return SessionSettings{}, fmt.Errorf("session settings not stored: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return SessionSettings{}, fmt.Errorf("get session settings: %w", err)
	}
	var out SessionSettings
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		return SessionSettings{}, fmt.Errorf("decode session settings: %w", err)
	}
	return out, nil
}

func (s *RedisStore) Put(ctx context.Context, v SessionSettings) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session settings: %w", err)
	}
	if err := s.client.Set(ctx, settingsKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("put session settings: %w", err)
	}
	return nil
}
