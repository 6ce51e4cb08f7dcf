package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResolveLock makes sure a finished game is finalized exactly once even
// when both players trigger resolution at the same time
type ResolveLock interface {
	Acquire(ctx context.Context, gameID string) (bool, error)
	Release(ctx context.Context, gameID string) error
}

type resolveLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResolveLock creates a SETNX based lock
func NewResolveLock(client *redis.Client, ttl time.Duration) ResolveLock {
	return &resolveLock{
		client: client,
		ttl:    ttl,
	}
}

func (c *resolveLock) key(gameID string) string {
	return "game:" + gameID + ":resolved"
}

func (c *resolveLock) Acquire(ctx context.Context, gameID string) (bool, error) {
	return c.client.SetNX(ctx, c.key(gameID), time.Now().Unix(), c.ttl).Result()
}

func (c *resolveLock) Release(ctx context.Context, gameID string) error {
	return c.client.Del(ctx, c.key(gameID)).Err()
}
