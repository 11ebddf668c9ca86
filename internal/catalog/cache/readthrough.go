package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/umanagarjuna/go-catalog-service/internal/catalog/metrics"
)

const (
	// DefaultTTL applies to every catalog cache entry.
	DefaultTTL = time.Hour

	defaultOpTimeout    = 2 * time.Second
	defaultFetchTimeout = 30 * time.Second
)

// Options tune a ReadThrough.
type Options struct {
	TTL time.Duration
	// Coalesce collapses concurrent misses on one key into a single
	// repository query.
	Coalesce bool
	// OpTimeout bounds a populate that outlives its caller.
	OpTimeout time.Duration
	// FetchTimeout bounds a coalesced repository query, which runs detached
	// from any single caller.
	FetchTimeout time.Duration
}

// ReadThrough serves catalog reads from the Store and falls back to the
// repository on a miss, a corrupt entry, or a store failure. Store errors
// are logged and counted, never returned.
type ReadThrough struct {
	store        Store
	ttl          time.Duration
	opTimeout    time.Duration
	fetchTimeout time.Duration
	group        *singleflight.Group
	logger       *zap.Logger
	metrics      metrics.Metrics
}

func NewReadThrough(store Store, logger *zap.Logger, m metrics.Metrics,
	opts Options) *ReadThrough {

	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = defaultOpTimeout
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if m == nil {
		m = metrics.Nop{}
	}

	rt := &ReadThrough{
		store:        store,
		ttl:          opts.TTL,
		opTimeout:    opts.OpTimeout,
		fetchTimeout: opts.FetchTimeout,
		logger:       logger,
		metrics:      m,
	}
	if opts.Coalesce {
		rt.group = &singleflight.Group{}
	}
	return rt
}

// TTL reports the expiry applied to populated entries.
func (rt *ReadThrough) TTL() time.Duration {
	return rt.ttl
}

// ComputeFn loads the value for a key from the system of record.
type ComputeFn[T any] func(ctx context.Context) (T, error)

// GetOrCompute returns the cached value for key, or runs compute, stores its
// JSON encoding under key and returns it. Errors from compute are returned
// unchanged and nothing is cached for them.
func GetOrCompute[T any](ctx context.Context, rt *ReadThrough, kind Kind,
	key string, compute ComputeFn[T]) (T, error) {

	if v, ok := lookup[T](ctx, rt, kind, key); ok {
		return v, nil
	}

	rt.logger.Debug("cache miss",
		zap.String("key", key), zap.String("resource", string(kind)))
	rt.metrics.IncrementCounterWithLabels(metrics.CacheMissTotal,
		map[string]string{"resource": string(kind)})

	if rt.group == nil {
		return fill(ctx, rt, key, compute)
	}

	// The shared fill must not inherit one caller's cancellation; each
	// caller stops waiting on its own context instead.
	ch := rt.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rt.fetchTimeout)
		defer cancel()
		return fill(fetchCtx, rt, key, compute)
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

func lookup[T any](ctx context.Context, rt *ReadThrough, kind Kind,
	key string) (T, bool) {

	var v T

	raw, found, err := rt.store.Get(ctx, key)
	if err != nil {
		rt.logger.Warn("Cache get failed, serving from repository",
			zap.Error(err), zap.String("key", key))
		rt.metrics.IncrementCounterWithLabels(metrics.CacheErrorTotal,
			map[string]string{"op": "get"})
		return v, false
	}
	if !found {
		return v, false
	}

	if err := json.Unmarshal(raw, &v); err != nil {
		rt.logger.Warn("Discarding corrupt cache entry",
			zap.Error(fmt.Errorf("%w: %v", ErrSerialization, err)),
			zap.String("key", key))
		rt.metrics.IncrementCounterWithLabels(metrics.CacheErrorTotal,
			map[string]string{"op": "decode"})
		var zero T
		return zero, false
	}

	rt.logger.Debug("cache hit",
		zap.String("key", key), zap.String("resource", string(kind)))
	rt.metrics.IncrementCounterWithLabels(metrics.CacheHitTotal,
		map[string]string{"resource": string(kind)})
	return v, true
}

func fill[T any](ctx context.Context, rt *ReadThrough, key string,
	compute ComputeFn[T]) (T, error) {

	start := time.Now()
	v, err := compute(ctx)
	rt.metrics.RecordDuration(metrics.CacheFetch, time.Since(start))
	if err != nil {
		return v, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		rt.logger.Warn("Cannot encode value for cache",
			zap.Error(err), zap.String("key", key))
		return v, nil
	}

	rt.populate(ctx, key, raw)

	// Hand back what a later hit would decode so the first and subsequent
	// responses are identical.
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return v, nil
	}
	return out, nil
}

// populate writes the entry even if the caller has gone away; a late
// populate still holds data read after the last invalidation.
func (rt *ReadThrough) populate(ctx context.Context, key string, raw []byte) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rt.opTimeout)
	defer cancel()

	if err := rt.store.Set(ctx, key, raw, rt.ttl); err != nil {
		rt.logger.Warn("Failed to populate cache",
			zap.Error(err), zap.String("key", key))
		rt.metrics.IncrementCounterWithLabels(metrics.CacheErrorTotal,
			map[string]string{"op": "set"})
	}
}
