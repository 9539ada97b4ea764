package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/mhui/eventbuddy/internal/core/model"
)

// NewProducer creates a new producer.
func NewProducer(topic *pubsub.Topic) (*Producer, error) {
	if topic == nil {
		return nil, errors.New("topic is nil")
	}
	return &Producer{topic: topic}, nil
}

// Producer is the pubsub producer of cancellation notices.
type Producer struct {
	topic *pubsub.Topic
}

// Publish sends the cancellation notice to the topic. It blocks until the
// broker acknowledged the message, so a nil return means the notice is durably
// queued for the notification worker.
func (p *Producer) Publish(ctx context.Context, notice model.CancellationNotice) error {
	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("error marshaling cancellation notice: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type":    "event_cancelled",
			"eventId": notice.EventID,
		},
	})
	// Block until the result is returned and a server-generated
	// ID is returned for the published message.
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("pubsub: result.Get: %w", err)
	}
	return nil
}
