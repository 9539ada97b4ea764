package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/google/uuid"
	"github.com/mhui/eventbuddy/internal/core/model"
)

// SaveMessage appends the message to the event thread. The adapter assigns the
// id and the timestamp so ordering follows the store clock, not the device
// clock.
func (p *PostgresDB) SaveMessage(ctx context.Context, message *model.Message) error {
	if message == nil {
		return errors.New("nil message passed to save method")
	}

	doc := &messageDB{
		ID:        uuid.NewString(),
		EventID:   message.EventID,
		UserID:    message.UserID,
		UserName:  message.UserName,
		Text:      message.Text,
		Timestamp: p.nowFunc(),
	}
	if _, err := p.db.ModelContext(ctx, doc).Insert(); err != nil {
		return err
	}

	message.ID = doc.ID
	message.Timestamp = doc.Timestamp
	return nil
}

// ListMessages returns the messages of one event ordered by timestamp
// ascending. The id breaks timestamp ties so the order is stable.
func (p *PostgresDB) ListMessages(ctx context.Context, eventID string) ([]model.Message, error) {
	var docs []messageDB
	err := p.db.ModelContext(ctx, &docs).
		Where("event_id = ?", eventID).
		Order("timestamp ASC", "id ASC").
		Select()
	if err != nil && err != pg.ErrNoRows {
		return nil, err
	}

	messages := make([]model.Message, len(docs))
	for i, doc := range docs {
		messages[i] = translateMessageToModel(doc)
	}
	return messages, nil
}

func translateMessageToModel(doc messageDB) model.Message {
	return model.Message{
		ID:        doc.ID,
		EventID:   doc.EventID,
		UserID:    doc.UserID,
		UserName:  doc.UserName,
		Text:      doc.Text,
		Timestamp: doc.Timestamp,
	}
}

type messageDB struct {
	tableName struct{} `pg:"eventbuddy.messages"`

	// ID unique identifier of the message.
	ID string `pg:"id,pk,type:uuid,default:uuid_generate_v4()"`

	// EventID is the id of the event thread.
	EventID string `pg:"event_id,use_zero"`

	// UserID is the id of the sender.
	UserID string `pg:"user_id,use_zero"`

	// UserName is the sender display name snapshotted at send time.
	UserName string `pg:"user_name,use_zero"`

	// Text is the message body.
	Text string `pg:"text,use_zero"`

	// Timestamp is the store-assigned send instant.
	Timestamp time.Time `pg:"timestamp"`
}
