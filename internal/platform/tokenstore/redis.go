package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"codequest_admin/internal/common"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	rdb *redis.Client
}

// NewRedisStore keeps credentials in Redis so they survive restarts of the
// admin process. Keys carry no TTL; the backend decides when a token expires.
func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func (r *redisStore) Save(ctx context.Context, sessionID, token string) error {
	if err := r.rdb.Set(ctx, Key(sessionID), token, 0).Err(); err != nil {
		return fmt.Errorf("saving admin token: %w: %w", common.ErrServiceUnavailable, err)
	}
	return nil
}

func (r *redisStore) Get(ctx context.Context, sessionID string) (string, error) {
	token, err := r.rdb.Get(ctx, Key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading admin token: %w: %w", common.ErrServiceUnavailable, err)
	}
	return token, nil
}

func (r *redisStore) Remove(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("removing admin token: %w: %w", common.ErrServiceUnavailable, err)
	}
	return nil
}
