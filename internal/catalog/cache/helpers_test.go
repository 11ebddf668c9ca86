package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// failingStore simulates an unreachable cache.
type failingStore struct {
	calls atomic.Int64
}

func (s *failingStore) Get(context.Context, string) ([]byte, bool, error) {
	s.calls.Add(1)
	return nil, false, ErrCacheUnavailable
}

func (s *failingStore) Set(context.Context, string, []byte, time.Duration) error {
	s.calls.Add(1)
	return ErrCacheUnavailable
}

func (s *failingStore) Delete(context.Context, ...string) error {
	s.calls.Add(1)
	return ErrCacheUnavailable
}

func (s *failingStore) Exists(context.Context, string) (bool, error) {
	s.calls.Add(1)
	return false, ErrCacheUnavailable
}

func (s *failingStore) Invalidate(context.Context, string) error {
	s.calls.Add(1)
	return ErrCacheUnavailable
}

func (s *failingStore) Ping(context.Context) error {
	return ErrCacheUnavailable
}

// flakyStore fails reads while down is set and passes everything else
// through to the wrapped store.
type flakyStore struct {
	Store
	down atomic.Bool
}

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.down.Load() {
		return nil, false, ErrCacheUnavailable
	}
	return s.Store.Get(ctx, key)
}
