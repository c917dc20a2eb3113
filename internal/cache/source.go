package cache

import (
	"context"
	"time"

	"github.com/ignite/recon-dashboard/internal/pkg/distlock"
	"github.com/ignite/recon-dashboard/internal/pkg/logger"
	"github.com/ignite/recon-dashboard/internal/upstream"
)

// pollInterval is how often a waiting fetch re-checks the cache.
var pollInterval = 100 * time.Millisecond

// Source serves an upstream through the payload cache. On a miss only the
// lock holder fetches; concurrent callers wait for its result up to the
// lock TTL and then fetch themselves. Cache failures never fail a fetch.
type Source struct {
	next    upstream.Source
	cache   PayloadCache
	locks   distlock.Factory
	ttl     time.Duration
	lockTTL time.Duration
}

// Wrap returns next served through cache. A nil cache returns next as is.
func Wrap(next upstream.Source, cache PayloadCache, locks distlock.Factory, ttl, lockTTL time.Duration) upstream.Source {
	if cache == nil || next == nil {
		return next
	}
	if locks == nil {
		locks = distlock.NewFactory(nil)
	}
	return &Source{next: next, cache: cache, locks: locks, ttl: ttl, lockTTL: lockTTL}
}

// Name returns the wrapped source's name.
func (s *Source) Name() string { return s.next.Name() }

// Fetch returns the cached payload for q, fetching it on a miss.
func (s *Source) Fetch(ctx context.Context, q upstream.Query) ([]byte, error) {
	key := s.next.Name() + ":" + q.CacheKey()
	if data, ok := s.lookup(ctx, key); ok {
		return data, nil
	}

	lock := s.locks("fetch:"+key, s.lockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		logger.Warn("cache: fetch lock unavailable", "source", s.Name(), "error", err)
		return s.fetch(ctx, key, q)
	}
	if acquired {
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("cache: release fetch lock", "source", s.Name(), "error", err)
			}
		}()
		// Another holder may have filled the cache between lookup and lock.
		if data, ok := s.lookup(ctx, key); ok {
			return data, nil
		}
		return s.fetch(ctx, key, q)
	}

	if data, ok := s.wait(ctx, key); ok {
		return data, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return s.fetch(ctx, key, q)
}

func (s *Source) lookup(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache: lookup failed", "source", s.Name(), "error", err)
		return nil, false
	}
	if ok {
		logger.Debug("cache: hit", "source", s.Name())
	}
	return data, ok
}

func (s *Source) fetch(ctx context.Context, key string, q upstream.Query) ([]byte, error) {
	data, err := s.next.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		logger.Warn("cache: store failed", "source", s.Name(), "error", err)
	}
	return data, nil
}

// wait polls the cache while another process holds the fetch lock.
func (s *Source) wait(ctx context.Context, key string) ([]byte, bool) {
	deadline := time.NewTimer(s.lockTTL)
	defer deadline.Stop()
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-deadline.C:
			return nil, false
		case <-tick.C:
			if data, ok := s.lookup(ctx, key); ok {
				return data, true
			}
		}
	}
}
