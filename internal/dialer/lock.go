package dialer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"autodialer/pkg/utils"
)

// Locker guards the single-session invariant across API replicas. The
// controller works without one (nil Locker) in single-process deployments
// and tests; the store's open-session check still applies.
type Locker interface {
	// Acquire takes the lock; false means another replica holds it.
	Acquire(ctx context.Context) (bool, error)

	// Refresh extends ownership; false means the lock was lost.
	Refresh(ctx context.Context) (bool, error)

	Release(ctx context.Context) error
}

// RedisLocker implements Locker over a single Redis key with an owner
// token, so a crashed replica's lock expires instead of wedging starts.
type RedisLocker struct {
	rdb   *redis.Client
	key   string
	token string
	ttl   time.Duration
}

func NewRedisLocker(rdb *redis.Client, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		rdb:   rdb,
		key:   key,
		token: uuid.NewString(),
		ttl:   ttl,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context) (bool, error) {
	return utils.AcquireSessionLock(ctx, l.rdb, l.key, l.token, l.ttl)
}

func (l *RedisLocker) Refresh(ctx context.Context) (bool, error) {
	return utils.RefreshSessionLock(ctx, l.rdb, l.key, l.token, l.ttl)
}

func (l *RedisLocker) Release(ctx context.Context) error {
	return utils.ReleaseSessionLock(ctx, l.rdb, l.key, l.token)
}
