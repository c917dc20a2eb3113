// Package distlock guards upstream fetches so that only one process (or
// goroutine) refreshes a cached payload at a time.
package distlock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotOwned is returned when extending a lock that expired or was taken
// over by another holder.
var ErrNotOwned = errors.New("distlock: lock not owned")

// DistLock is the interface for distributed locking.
// Implementations must be safe for use from a single goroutine;
// concurrent use across goroutines requires separate lock instances.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// Factory creates a fresh lock instance for key.
type Factory func(key string, ttl time.Duration) DistLock

// NewFactory returns a Redis-backed factory when client is non-nil
// (cross-host locking), otherwise an in-process one.
func NewFactory(client redis.UniversalClient) Factory {
	if client != nil {
		return func(key string, ttl time.Duration) DistLock {
			return NewRedisLock(client, key, ttl)
		}
	}
	table := &localTable{held: make(map[string]localHold)}
	return func(key string, ttl time.Duration) DistLock {
		return &LocalLock{table: table, key: key, ttl: ttl}
	}
}

// =============================================================================
// In-process lock (used when Redis is not configured)
// =============================================================================

type localTable struct {
	mu   sync.Mutex
	held map[string]localHold
}

type localHold struct {
	owner   *LocalLock
	expires time.Time
}

// LocalLock implements DistLock within one process. Locks expire after
// their TTL like their Redis counterpart.
type LocalLock struct {
	table *localTable
	key   string
	ttl   time.Duration
}

// Acquire takes the lock if it is free or expired.
func (l *LocalLock) Acquire(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.table.mu.Lock()
	defer l.table.mu.Unlock()

	now := time.Now()
	if h, ok := l.table.held[l.key]; ok && now.Before(h.expires) {
		return false, nil
	}
	l.table.held[l.key] = localHold{owner: l, expires: now.Add(l.ttl)}
	return true, nil
}

// Release frees the lock if this instance holds it.
func (l *LocalLock) Release(context.Context) error {
	l.table.mu.Lock()
	defer l.table.mu.Unlock()
	if h, ok := l.table.held[l.key]; ok && h.owner == l {
		delete(l.table.held, l.key)
	}
	return nil
}
