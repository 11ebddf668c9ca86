package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umanagarjuna/go-catalog-service/internal/catalog/domain"
)

func producerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	return config
}

func TestPublishCategoryChanged(t *testing.T) {
	producer := mocks.NewSyncProducer(t, producerConfig())
	defer producer.Close()

	var sent *sarama.ProducerMessage
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		sent = msg
		return nil
	})

	pub := NewEventPublisherWithProducer(producer)
	fixed := time.Date(2024, 10, 16, 7, 29, 0, 0, time.UTC)
	pub.now = func() time.Time { return fixed }

	err := pub.PublishCategoryChanged(context.Background(), domain.ActionUpdated,
		&domain.Category{ID: 7, Name: "Shoes", Slug: "shoes"})
	require.NoError(t, err)

	require.NotNil(t, sent)
	assert.Equal(t, TopicCategoryChanged, sent.Topic)

	key, err := sent.Key.Encode()
	require.NoError(t, err)
	assert.Equal(t, "7", string(key))

	value, err := sent.Value.Encode()
	require.NoError(t, err)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(value, &event))
	assert.Equal(t, "category_updated", event["event_type"])
	assert.Equal(t, "shoes", event["data"].(map[string]interface{})["slug"])
}

func TestPublishProductChanged_Error(t *testing.T) {
	producer := mocks.NewSyncProducer(t, producerConfig())
	defer producer.Close()

	boom := errors.New("broker down")
	producer.ExpectSendMessageAndFail(boom)

	pub := NewEventPublisherWithProducer(producer)
	err := pub.PublishProductChanged(context.Background(), domain.ActionDeleted, &domain.Product{ID: 3})
	assert.ErrorIs(t, err, boom)
}

func TestNopPublisher(t *testing.T) {
	var pub domain.EventPublisher = NopPublisher{}
	assert.NoError(t, pub.PublishProductChanged(context.Background(), domain.ActionCreated, &domain.Product{}))
	assert.NoError(t, pub.Close())
}
