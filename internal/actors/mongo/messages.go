package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/mhui/eventbuddy/internal/core/model"
	"github.com/mhui/eventbuddy/internal/core/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SaveMessage appends the message to its event thread, assigning id and
// timestamp. The adapter clock stands in for a server timestamp, so order
// within a thread follows insertion order.
func (m *MongoDB) SaveMessage(ctx context.Context, message *model.Message) error {
	if message == nil {
		return errors.New("nil message passed to save method")
	}

	doc := messageDB{
		ID:        primitive.NewObjectID(),
		EventID:   message.EventID,
		UserID:    message.UserID,
		UserName:  message.UserName,
		Text:      message.Text,
		Timestamp: m.nowFunc(),
	}
	if _, err := m.messageCollection.InsertOne(ctx, doc); err != nil {
		return err
	}

	message.ID = doc.ID.Hex()
	message.Timestamp = doc.Timestamp
	return nil
}

// ListMessages returns the thread of one event ordered by timestamp
// ascending. Timestamp ties break on _id, which follows insertion order, so
// an order once observed never changes.
func (m *MongoDB) ListMessages(ctx context.Context, eventID string) ([]model.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := m.messageCollection.Find(ctx, bson.M{"eventId": eventID}, opts)
	if err != nil {
		return nil, err
	}
	var docs []messageDB
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return translateMessagesToModels(docs)
}

// WatchMessages opens a change stream scoped to one event thread and delivers
// the full thread on every commit touching it. Messages of other events never
// surface on the subscription.
func (m *MongoDB) WatchMessages(ctx context.Context, eventID string) (*ports.Subscription[model.Message], error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "fullDocument.eventId", Value: eventID}}}},
	}
	stream, err := m.messageCollection.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	sub := ports.NewSubscription[model.Message](cancel)
	go m.pumpMessages(streamCtx, eventID, stream, sub)
	return sub, nil
}

func (m *MongoDB) pumpMessages(ctx context.Context, eventID string, stream *mongo.ChangeStream, sub *ports.Subscription[model.Message]) {
	defer stream.Close(context.Background())
	defer sub.Close()

	emitThread := func() bool {
		messages, err := m.ListMessages(ctx, eventID)
		if err != nil {
			sub.Fail(err)
			return false
		}
		sub.Emit(messages)
		return true
	}

	if !emitThread() {
		return
	}
	for stream.Next(ctx) {
		if !emitThread() {
			return
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		sub.Fail(err)
	}
}

func translateMessagesToModels(docs []messageDB) ([]model.Message, error) {
	messages := make([]model.Message, len(docs))
	for i, doc := range docs {
		if doc.EventID == "" || doc.UserID == "" || doc.Text == "" {
			return nil, model.ErrCorruptRecord
		}
		messages[i] = model.Message{
			ID:        doc.ID.Hex(),
			EventID:   doc.EventID,
			UserID:    doc.UserID,
			UserName:  doc.UserName,
			Text:      doc.Text,
			Timestamp: doc.Timestamp,
		}
	}
	return messages, nil
}

type messageDB struct {
	// ID unique identifier of the message.
	ID primitive.ObjectID `bson:"_id"`

	// EventID scopes the message to one event thread.
	EventID string `bson:"eventId"`

	// UserID is the sender id.
	UserID string `bson:"userId"`

	// UserName is the sender display name snapshotted at send time.
	UserName string `bson:"userName"`

	// Text is the message body.
	Text string `bson:"text"`

	// Timestamp is the send instant assigned on insert.
	Timestamp time.Time `bson:"timestamp"`
}
