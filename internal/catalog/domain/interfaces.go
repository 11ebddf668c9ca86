package domain

import "context"

// EventPublisher interface for publishing catalog change events
type EventPublisher interface {
	PublishCategoryChanged(ctx context.Context, action ChangeAction, category *Category) error
	PublishProductChanged(ctx context.Context, action ChangeAction, product *Product) error
	Close() error
}
