package service

import (
	"context"
	"errors"
	"sync"

	"github.com/umanagarjuna/go-catalog-service/internal/catalog/domain"
)

type publishedEvent struct {
	topic  string
	action domain.ChangeAction
	id     int64
}

// recordingPublisher remembers every event and optionally fails.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishCategoryChanged(_ context.Context, action domain.ChangeAction,
	category *domain.Category) error {

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{"category", action, category.ID})
	return p.err
}

func (p *recordingPublisher) PublishProductChanged(_ context.Context, action domain.ChangeAction,
	product *domain.Product) error {

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{"product", action, product.ID})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

var errBroker = errors.New("broker unavailable")
