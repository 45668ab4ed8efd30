package session

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/team-portal/internal/cache"
)

const redisKeyPrefix = "session:"

// RedisStore хранит сессии в redis; TTL ключа равен времени жизни сессии.
type RedisStore struct {
	cache *cache.Cache
}

// NewRedisStore создаёт хранилище поверх подключенного кэша.
func NewRedisStore(c *cache.Cache) *RedisStore {
	return &RedisStore{cache: c}
}

func (r *RedisStore) Save(ctx context.Context, s *Session, ttl time.Duration) error {
	const op = "session.RedisStore.Save"
	if s.Token == "" {
		return fmt.Errorf("%s: empty token", op)
	}
	if err := r.cache.Set(ctx, redisKeyPrefix+s.Token, s, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, token string) (*Session, error) {
	const op = "session.RedisStore.Load"
	var s Session
	found, err := r.cache.Get(ctx, redisKeyPrefix+token, &s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	s.Token = token
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	const op = "session.RedisStore.Delete"
	if err := r.cache.Invalidate(ctx, redisKeyPrefix+token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
