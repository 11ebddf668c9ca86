package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig holds configuration for the store circuit breaker
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the store breaker
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      5,
	}
}

// BreakerStore stops calling an unreachable store for a while after repeated
// failures, so reads fall back to the repository without paying a network
// timeout each time. Misses are successes; only store errors count.
// Deletes and Ping always go to the inner store.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerStore(inner Store, cfg BreakerConfig, logger *zap.Logger) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cache-store",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Cache breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &BreakerStore{inner: inner, cb: cb}
}

// State exposes the breaker state for health reporting.
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}

func (s *BreakerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	type result struct {
		value []byte
		found bool
	}

	res, err := s.cb.Execute(func() (interface{}, error) {
		value, found, err := s.inner.Get(ctx, key)
		return result{value: value, found: found}, err
	})
	if err != nil {
		return nil, false, wrapBreakerErr(err)
	}

	r := res.(result)
	return r.value, r.found, nil
}

func (s *BreakerStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.Set(ctx, key, value, ttl)
	})
	return wrapBreakerErr(err)
}

// Delete bypasses the breaker. Invalidation after a committed write must
// reach the store whenever it is reachable, even while reads are short
// circuited.
func (s *BreakerStore) Delete(ctx context.Context, keys ...string) error {
	return s.inner.Delete(ctx, keys...)
}

func (s *BreakerStore) Exists(ctx context.Context, key string) (bool, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.inner.Exists(ctx, key)
	})
	if err != nil {
		return false, wrapBreakerErr(err)
	}
	return res.(bool), nil
}

// Invalidate bypasses the breaker for the same reason as Delete.
func (s *BreakerStore) Invalidate(ctx context.Context, prefix string) error {
	return s.inner.Invalidate(ctx, prefix)
}

// Ping bypasses the breaker so health checks see the real store state.
func (s *BreakerStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

func wrapBreakerErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return err
}

var _ Store = (*BreakerStore)(nil)
