package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/mhui/eventbuddy/internal/core/model"
)

// GetUser returns the profile with the given id, or model.ErrNotFound.
func (p *PostgresDB) GetUser(ctx context.Context, id string) (*model.User, error) {
	doc := new(userDB)
	err := p.db.ModelContext(ctx, doc).Where("id = ?", id).Select()
	if err == pg.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user := translateUserToModel(*doc)
	return &user, nil
}

// SaveUser creates or updates the profile identified by user.ID. The id is
// chosen by the device, so saving is an upsert.
func (p *PostgresDB) SaveUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return errors.New("nil user passed to save method")
	}
	if user.ID == "" {
		return errors.New("user id must be set by the caller")
	}

	now := p.nowFunc()
	doc := &userDB{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		PushToken: user.PushToken,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := p.db.ModelContext(ctx, doc).
		OnConflict("(id) DO UPDATE").
		Set("name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role, updated_at = EXCLUDED.updated_at").
		Insert()
	if err != nil {
		return err
	}

	user.UpdatedAt = now
	return nil
}

// UpdatePushToken records the device push token for the user.
func (p *PostgresDB) UpdatePushToken(ctx context.Context, userID, token string) error {
	res, err := p.db.ModelContext(ctx, &userDB{ID: userID}).
		WherePK().
		Set("push_token = ?, updated_at = ?", token, p.nowFunc()).
		Update()
	if err != nil {
		return err
	}
	if res.RowsAffected() < 1 {
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
	tableName struct{} `pg:"eventbuddy.users"`

	// ID unique identifier of the user, chosen by the device.
	ID string `pg:"id,pk"`

	// Name is the user display name.
	Name string `pg:"name,use_zero"`

	// Email is the user email.
	Email string `pg:"email,use_zero"`

	// Role is NULL for a normal user and 0 for an administrator.
	Role *int `pg:"role"`

	// PushToken is the device push token, when granted.
	PushToken string `pg:"push_token"`

	// CreatedAt is the time at which the profile was first saved.
	CreatedAt time.Time `pg:"created_at"`

	// UpdatedAt is the time at which the profile was last updated.
	UpdatedAt time.Time `pg:"updated_at"`
}
