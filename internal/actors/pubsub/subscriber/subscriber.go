package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/mhui/eventbuddy/internal/core/model"
	"github.com/mhui/eventbuddy/internal/core/ports"

	log "github.com/sirupsen/logrus"
)

// SubscriberArgs contain the mandatory arguments to build a subscriber.
type SubscriberArgs struct {
	// Subscription is a pubsub subscription.
	Subscription *pubsub.Subscription

	// NoticeHandler handles decoded cancellation notices.
	NoticeHandler ports.NoticeHandler
}

// Subscriber is a pubsub async subscriber for cancellation notices.
type Subscriber struct {
	subscription  *pubsub.Subscription
	noticeHandler ports.NoticeHandler
}

// NewSubscriber creates a subscriber.
func NewSubscriber(args SubscriberArgs) *Subscriber {
	return &Subscriber{
		subscription:  args.Subscription,
		noticeHandler: args.NoticeHandler,
	}
}

// Consume starts the subscriber. This is a blocking method and should be
// started in its own go-routine. The way to terminate the method is to cancel
// the context in input.
func (s *Subscriber) Consume(ctx context.Context) error {
	if err := s.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		notice, err := decodeMsgIntoNotice(msg)
		if err != nil {
			// an undecodable message will never decode on redelivery
			log.WithError(err).Error("error decoding message into cancellation notice, dropping")
			msg.Ack()
			return
		}

		if err := s.noticeHandler.Handle(ctx, *notice); err != nil {
			log.WithError(err).WithField("eventId", notice.EventID).Error("error in cancellation notice handler")
			msg.Nack()
		} else {
			msg.Ack()
		}
	}); err != nil {
		return fmt.Errorf("error receiving messages from subscription: %w", err)
	}
	return nil
}

func decodeMsgIntoNotice(msg *pubsub.Message) (*model.CancellationNotice, error) {
	if msg == nil {
		return nil, errors.New("cannot decode nil pubsub msg")
	}
	notice := new(model.CancellationNotice)
	if err := json.Unmarshal(msg.Data, notice); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	if notice.EventID == "" {
		return nil, errors.New("cancellation notice without event id")
	}
	return notice, nil
}
