// Package distlock serializes import runs across hosts. Two admins
// importing at the same time could both probe a slug as free and write
// colliding markers, so the API and CLI take this lock around a run.
package distlock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is the interface for distributed locking.
// Implementations must be safe for use from a single goroutine;
// concurrent use across goroutines requires separate lock instances.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// NewLock creates a distributed lock. With no Redis client configured
// it degrades to a process-local lock, which is still correct for
// single-host deployments.
func NewLock(redisClient *redis.Client, key string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return newLocalLock(key)
}

// localLock is the in-process fallback. Lock state is shared across
// instances with the same key via a package-level registry.
type localLock struct {
	key string
}

var localLocks = newLocalRegistry()

func newLocalLock(key string) *localLock {
	return &localLock{key: key}
}

func (l *localLock) Acquire(context.Context) (bool, error) {
	return localLocks.tryAcquire(l.key), nil
}

func (l *localLock) Release(context.Context) error {
	localLocks.release(l.key)
	return nil
}
