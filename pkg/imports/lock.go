package imports

import (
	"context"
	"time"

	"github.com/Ramsey-B/clover/pkg/redis"
)

// RedisLocker adapts the redis locker to the service's Locker interface.
type RedisLocker struct {
	Locker *redis.Locker
}

// Acquire attempts to take the named lock without waiting.
func (r RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := r.Locker.Acquire(ctx, key, ttl)
	if err != nil {
		return nil, err
	}
	return lock, nil
}
