package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/umanagarjuna/go-catalog-service/internal/catalog/metrics"
)

// Invalidator removes the cache entries a committed write could have made
// stale. It must only be called after the repository write has committed.
//
// Product detail entries are keyed by the requested slug fragment, so an
// update cannot name every affected key; those entries stay stale for at most
// one TTL unless PurgeProductDetails is set.
type Invalidator struct {
	store     Store
	logger    *zap.Logger
	metrics   metrics.Metrics
	opTimeout time.Duration

	purgeProductDetails bool
}

// InvalidatorOptions tune an Invalidator.
type InvalidatorOptions struct {
	// PurgeProductDetails scans and removes every product detail key on
	// product update/delete.
	PurgeProductDetails bool
	OpTimeout           time.Duration
}

func NewInvalidator(store Store, logger *zap.Logger, m metrics.Metrics,
	opts InvalidatorOptions) *Invalidator {

	if opts.OpTimeout <= 0 {
		opts.OpTimeout = defaultOpTimeout
	}
	if m == nil {
		m = metrics.Nop{}
	}

	return &Invalidator{
		store:               store,
		logger:              logger,
		metrics:             m,
		opTimeout:           opts.OpTimeout,
		purgeProductDetails: opts.PurgeProductDetails,
	}
}

// CategoryCreated drops the category list. No detail key can exist yet.
func (i *Invalidator) CategoryCreated(ctx context.Context) {
	i.delete(ctx, KindCategory, ListKey(KindCategory))
}

// CategoryUpdated drops the list and the detail keys for the slug before and
// after the update.
func (i *Invalidator) CategoryUpdated(ctx context.Context, oldSlug, newSlug string) {
	keys := []string{ListKey(KindCategory), DetailKey(KindCategory, oldSlug)}
	if newSlug != oldSlug {
		keys = append(keys, DetailKey(KindCategory, newSlug))
	}
	i.delete(ctx, KindCategory, keys...)
}

// CategoryDeleted drops the list and detail keys. Deleting a category
// cascades to its products, so the product list goes too.
func (i *Invalidator) CategoryDeleted(ctx context.Context, slug string) {
	i.delete(ctx, KindCategory, ListKey(KindCategory), DetailKey(KindCategory, slug))
	i.ProductDeleted(ctx)
}

func (i *Invalidator) ProductCreated(ctx context.Context) {
	i.delete(ctx, KindProduct, ListKey(KindProduct))
}

func (i *Invalidator) ProductUpdated(ctx context.Context) {
	i.productChanged(ctx)
}

func (i *Invalidator) ProductDeleted(ctx context.Context) {
	i.productChanged(ctx)
}

func (i *Invalidator) productChanged(ctx context.Context) {
	i.delete(ctx, KindProduct, ListKey(KindProduct))
	if !i.purgeProductDetails {
		return
	}

	ctx, cancel := i.detach(ctx)
	defer cancel()

	if err := i.store.Invalidate(ctx, DetailPrefix(KindProduct)); err != nil {
		i.logger.Warn("Failed to purge product detail cache",
			zap.Error(err))
		i.metrics.IncrementCounterWithLabels(metrics.CacheErrorTotal,
			map[string]string{"op": "invalidate"})
	}
}

func (i *Invalidator) delete(ctx context.Context, kind Kind, keys ...string) {
	ctx, cancel := i.detach(ctx)
	defer cancel()

	if err := i.store.Delete(ctx, keys...); err != nil {
		i.logger.Warn("Failed to invalidate cache",
			zap.Error(err), zap.Strings("keys", keys))
		i.metrics.IncrementCounterWithLabels(metrics.CacheErrorTotal,
			map[string]string{"op": "delete"})
		return
	}

	for range keys {
		i.metrics.IncrementCounterWithLabels(metrics.CacheInvalidationTotal,
			map[string]string{"resource": string(kind)})
	}
}

// detach keeps invalidation running after a committed write even if the
// request that issued it was cancelled.
func (i *Invalidator) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), i.opTimeout)
}
