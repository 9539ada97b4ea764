package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/mhui/eventbuddy/internal/core/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetUser returns the user with the given id, or model.ErrNotFound. User
// documents are keyed by the opaque id the device chose, not by ObjectID.
func (m *MongoDB) GetUser(ctx context.Context, id string) (*model.User, error) {
	doc := new(userDB)
	if err := m.userCollection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	user := translateUserToModel(*doc)
	return &user, nil
}

// SaveUser creates or updates the profile identified by user.ID.
func (m *MongoDB) SaveUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return errors.New("nil user passed to save method")
	}
	if user.ID == "" {
		return errors.New("user id must be set by the caller")
	}

	now := m.nowFunc()
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "name", Value: user.Name},
			{Key: "email", Value: user.Email},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: now}}},
	}
	if user.Role != nil {
		update[0].Value = append(update[0].Value.(bson.D), bson.E{Key: "role", Value: *user.Role})
	}
	opts := options.Update().SetUpsert(true)
	if _, err := m.userCollection.UpdateByID(ctx, user.ID, update, opts); err != nil {
		return err
	}
	user.UpdatedAt = now
	return nil
}

// UpdatePushToken records the device push token for the user.
func (m *MongoDB) UpdatePushToken(ctx context.Context, userID, token string) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "pushToken", Value: token},
		{Key: "updatedAt", Value: m.nowFunc()},
	}}}
	res, err := m.userCollection.UpdateByID(ctx, userID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return model.ErrNotFound
	}
	return nil
}

func translateUserToModel(doc userDB) model.User {
	return model.User{
		ID:        doc.ID,
		Name:      doc.Name,
		Email:     doc.Email,
		Role:      doc.Role,
		PushToken: doc.PushToken,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

type userDB struct {
	// ID unique identifier of the user, chosen by the device.
	ID string `bson:"_id"`

	// Name is the user display name.
	Name string `bson:"name"`

	// Email is the user email.
	Email string `bson:"email"`

	// Role is absent for a normal user and 0 for an administrator.
	Role *int `bson:"role,omitempty"`

	// PushToken is the device push token, when granted.
	PushToken string `bson:"pushToken,omitempty"`

	// CreatedAt is the time at which the profile was first saved.
	CreatedAt time.Time `bson:"createdAt"`

	// UpdatedAt is the time at which the profile was last updated.
	UpdatedAt time.Time `bson:"updatedAt"`
}
