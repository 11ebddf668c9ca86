package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"

	"github.com/umanagarjuna/go-catalog-service/internal/catalog/domain"
)

const (
	TopicCategoryChanged = "catalog.category.changed"
	TopicProductChanged  = "catalog.product.changed"
)

// Event is the envelope written to Kafka
type Event struct {
	EventType string      `json:"event_type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type EventPublisher struct {
	producer sarama.SyncProducer
	now      func() time.Time
}

func NewEventPublisher(brokers []string) (*EventPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return NewEventPublisherWithProducer(producer), nil
}

// NewEventPublisherWithProducer wraps an existing producer
func NewEventPublisherWithProducer(producer sarama.SyncProducer) *EventPublisher {
	return &EventPublisher{producer: producer, now: time.Now}
}

func (p *EventPublisher) PublishCategoryChanged(ctx context.Context,
	action domain.ChangeAction, category *domain.Category) error {

	event := Event{
		EventType: "category_" + string(action),
		Timestamp: p.now(),
		Data:      category,
	}

	return p.publish(TopicCategoryChanged, strconv.FormatInt(category.ID, 10), event)
}

func (p *EventPublisher) PublishProductChanged(ctx context.Context,
	action domain.ChangeAction, product *domain.Product) error {

	event := Event{
		EventType: "product_" + string(action),
		Timestamp: p.now(),
		Data:      product,
	}

	return p.publish(TopicProductChanged, strconv.FormatInt(product.ID, 10), event)
}

func (p *EventPublisher) publish(topic, key string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	_, _, err = p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func (p *EventPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher is used when Kafka is disabled
type NopPublisher struct{}

func (NopPublisher) PublishCategoryChanged(context.Context, domain.ChangeAction, *domain.Category) error {
	return nil
}

func (NopPublisher) PublishProductChanged(context.Context, domain.ChangeAction, *domain.Product) error {
	return nil
}

func (NopPublisher) Close() error { return nil }

var (
	_ domain.EventPublisher = (*EventPublisher)(nil)
	_ domain.EventPublisher = NopPublisher{}
)
