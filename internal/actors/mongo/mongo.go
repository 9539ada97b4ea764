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

// MongoDB is the document-store adapter. It owns the events, messages and
// users collections and the real-time subscription mechanics on top of change
// streams. It enforces no participation rules: the rules engine runs first.
type MongoDB struct {
	eventCollection   *mongo.Collection
	messageCollection *mongo.Collection
	userCollection    *mongo.Collection
	nowFunc           func() time.Time
}

// MongoDBArgs are the mandatory arguments for the creation of a MongoDB.
type MongoDBArgs struct {
	// EventCollection is the mongo collection holding event documents.
	EventCollection *mongo.Collection

	// MessageCollection is the mongo collection holding chat messages.
	MessageCollection *mongo.Collection

	// UserCollection is the mongo collection holding user profiles.
	UserCollection *mongo.Collection
}

// MongoDBOptArgs are the optional arguments for building a MongoDB.
type MongoDBOptArgs = func(*MongoDB)

// WithNowFunc can be used to override the nowFunc. Useful for testing.
func WithNowFunc(nowFunc func() time.Time) MongoDBOptArgs {
	return func(m *MongoDB) {
		m.nowFunc = nowFunc
	}
}

// NewMongoDB creates a new MongoDB.
func NewMongoDB(args MongoDBArgs, optArgs ...MongoDBOptArgs) (*MongoDB, error) {
	m := &MongoDB{
		eventCollection:   args.EventCollection,
		messageCollection: args.MessageCollection,
		userCollection:    args.UserCollection,
		nowFunc:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range optArgs {
		opt(m)
	}
	return m, nil
}

// ListEvents returns every event ordered by date ascending.
func (m *MongoDB) ListEvents(ctx context.Context) ([]model.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "startTime", Value: 1}})
	cursor, err := m.eventCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []eventDB
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return translateEventsToModels(docs)
}

// GetEvent returns the event with the given id, or model.ErrNotFound.
func (m *MongoDB) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, model.ErrNotFound
	}
	doc := new(eventDB)
	if err := m.eventCollection.FindOne(ctx, bson.D{{Key: "_id", Value: objectID}}).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	event, err := translateEventToModel(*doc)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// SaveEvent will save the event in the database, assigning its id.
func (m *MongoDB) SaveEvent(ctx context.Context, event *model.Event) error {
	if event == nil {
		return errors.New("nil event passed to save method")
	}

	doc := eventDB{
		ID:              primitive.NewObjectID(),
		Title:           event.Title,
		Icon:            event.Icon,
		Date:            event.Date,
		StartTime:       event.StartTime,
		EndTime:         event.EndTime,
		Location:        event.Location,
		Description:     event.Description,
		MaxParticipants: event.MaxParticipants,
		Participants:    event.Participants,
		CreatorID:       event.CreatorID,
		IsActive:        event.IsActive,
		CreatedAt:       m.nowFunc(),
	}
	if doc.Participants == nil {
		doc.Participants = []string{}
	}
	if _, err := m.eventCollection.InsertOne(ctx, doc); err != nil {
		return err
	}

	event.ID = doc.ID.Hex()
	event.CreatedAt = doc.CreatedAt
	return nil
}

// AddParticipant adds the user to the participant set. $addToSet gives the
// set-union semantics: adding a present id changes nothing and is no error.
func (m *MongoDB) AddParticipant(ctx context.Context, eventID, userID string) error {
	return m.updateParticipants(ctx, eventID, bson.D{{Key: "$addToSet", Value: bson.D{{Key: "participants", Value: userID}}}})
}

// RemoveParticipant removes the user from the participant set.
func (m *MongoDB) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	return m.updateParticipants(ctx, eventID, bson.D{{Key: "$pull", Value: bson.D{{Key: "participants", Value: userID}}}})
}

// SetInactive flips the isActive flag. The document is never removed.
func (m *MongoDB) SetInactive(ctx context.Context, eventID string) error {
	return m.updateParticipants(ctx, eventID, bson.D{{Key: "$set", Value: bson.D{{Key: "isActive", Value: false}}}})
}

func (m *MongoDB) updateParticipants(ctx context.Context, eventID string, update bson.D) error {
	objectID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return model.ErrNotFound
	}
	res, err := m.eventCollection.UpdateByID(ctx, objectID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return model.ErrNotFound
	}
	return nil
}

// WatchEvents opens a change stream on the events collection and delivers a
// full replacement snapshot on every commit, in commit order. The caller owns
// the subscription and must Close it to release the stream.
func (m *MongoDB) WatchEvents(ctx context.Context) (*ports.Subscription[model.Event], error) {
	stream, err := m.eventCollection.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	sub := ports.NewSubscription[model.Event](cancel)
	go m.pumpEvents(streamCtx, stream, sub)
	return sub, nil
}

func (m *MongoDB) pumpEvents(ctx context.Context, stream *mongo.ChangeStream, sub *ports.Subscription[model.Event]) {
	defer stream.Close(context.Background())
	defer sub.Close()

	emitSnapshot := func() bool {
		events, err := m.ListEvents(ctx)
		if err != nil {
			sub.Fail(err)
			return false
		}
		sub.Emit(events)
		return true
	}

	// seed the consumer before the first change arrives
	if !emitSnapshot() {
		return
	}
	for stream.Next(ctx) {
		if !emitSnapshot() {
			return
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		sub.Fail(err)
	}
}

func translateEventsToModels(docs []eventDB) ([]model.Event, error) {
	events := make([]model.Event, len(docs))
	for i, doc := range docs {
		event, err := translateEventToModel(doc)
		if err != nil {
			return nil, err
		}
		events[i] = event
	}
	return events, nil
}

// translateEventToModel fails closed on documents missing required fields.
// The only tolerated absence is isActive, which legacy records predate and
// which reads as active.
func translateEventToModel(doc eventDB) (model.Event, error) {
	if doc.Title == "" || doc.Date == "" || doc.StartTime == "" || doc.Location == "" ||
		doc.MaxParticipants < 1 || doc.CreatorID == "" {
		return model.Event{}, model.ErrCorruptRecord
	}
	participants := doc.Participants
	if participants == nil {
		participants = []string{}
	}
	return model.Event{
		ID:              doc.ID.Hex(),
		Title:           doc.Title,
		Icon:            doc.Icon,
		Date:            doc.Date,
		StartTime:       doc.StartTime,
		EndTime:         doc.EndTime,
		Location:        doc.Location,
		Description:     doc.Description,
		MaxParticipants: doc.MaxParticipants,
		Participants:    participants,
		CreatorID:       doc.CreatorID,
		IsActive:        doc.IsActive,
		CreatedAt:       doc.CreatedAt,
	}, nil
}

type eventDB struct {
	// ID unique identifier of the event.
	ID primitive.ObjectID `bson:"_id"`

	// Title is the event title.
	Title string `bson:"title"`

	// Icon is an optional display icon.
	Icon string `bson:"icon,omitempty"`

	// Date is the calendar date in YYYY-MM-DD form.
	Date string `bson:"date"`

	// StartTime is the start time-of-day in HH:MM form.
	StartTime string `bson:"startTime"`

	// EndTime is the optional end time-of-day in HH:MM form.
	EndTime string `bson:"endTime,omitempty"`

	// Location is the meeting place.
	Location string `bson:"location"`

	// Description is an optional free-form description.
	Description string `bson:"description,omitempty"`

	// MaxParticipants is the event capacity.
	MaxParticipants int `bson:"maxParticipants"`

	// Participants are the joined user ids, insertion ordered.
	Participants []string `bson:"participants"`

	// CreatorID is the id of the creating user.
	CreatorID string `bson:"creatorId"`

	// IsActive is absent or true for an active event, false for a cancelled
	// one. Absence is preserved on write so legacy documents stay legible.
	IsActive *bool `bson:"isActive,omitempty"`

	// CreatedAt is the insertion time.
	CreatedAt time.Time `bson:"createdAt"`
}
