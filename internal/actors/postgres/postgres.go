package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/google/uuid"
	"github.com/mhui/eventbuddy/internal/core/model"
)

// PostgresDB is a postgres adapter for persistence. It offers the same store
// surface as the mongo adapter so deployments can pick either backend.
type PostgresDB struct {
	db           *pg.DB
	nowFunc      func() time.Time
	pollInterval time.Duration
}

// PostgresDBArgs are the mandatory arguments for the creation of a PostgresDB.
type PostgresDBArgs struct {
	// DB is a postgres database handle.
	DB *pg.DB
}

// PostgresDBOptArgs are the optional arguments for building a PostgresDB.
type PostgresDBOptArgs = func(*PostgresDB)

// WithNowFunc can be used to override the nowFunc. Useful for testing.
func WithNowFunc(nowFunc func() time.Time) PostgresDBOptArgs {
	return func(p *PostgresDB) {
		p.nowFunc = nowFunc
	}
}

// WithPollInterval overrides the watch poll interval. Useful for testing.
func WithPollInterval(interval time.Duration) PostgresDBOptArgs {
	return func(p *PostgresDB) {
		p.pollInterval = interval
	}
}

// NewPostgresDB creates a new PostgresDB.
func NewPostgresDB(args PostgresDBArgs, optArgs ...PostgresDBOptArgs) (*PostgresDB, error) {
	p := &PostgresDB{
		db:           args.DB,
		nowFunc:      func() time.Time { return time.Now().UTC() },
		pollInterval: time.Second,
	}
	for _, opt := range optArgs {
		opt(p)
	}
	return p, nil
}

// ListEvents returns all events ordered by date and start time ascending.
func (p *PostgresDB) ListEvents(ctx context.Context) ([]model.Event, error) {
	var events []eventDB
	err := p.db.ModelContext(ctx, &events).Order("date ASC", "start_time ASC", "id ASC").Select()
	if err != nil && err != pg.ErrNoRows {
		return nil, err
	}
	return translateEventsToModels(events), nil
}

// GetEvent returns the event with the given id, or model.ErrNotFound.
func (p *PostgresDB) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	doc := new(eventDB)
	err := p.db.ModelContext(ctx, doc).Where("id = ?", id).Select()
	if err == pg.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	event := translateEventToModel(*doc)
	return &event, nil
}

// SaveEvent will save the event in the database, assigning its id and creation
// time.
func (p *PostgresDB) SaveEvent(ctx context.Context, event *model.Event) error {
	if event == nil {
		return errors.New("nil event passed to save method")
	}

	doc := p.toEventDB(event)
	if _, err := p.db.ModelContext(ctx, doc).Insert(); err != nil {
		return err
	}

	event.ID = doc.ID
	event.CreatedAt = doc.CreatedAt
	return nil
}

// AddParticipant adds the user to the participant set. Adding a user that is
// already present changes nothing and is no error.
func (p *PostgresDB) AddParticipant(ctx context.Context, eventID, userID string) error {
	return p.updateParticipants(ctx, eventID, func(participants []string) []string {
		for _, id := range participants {
			if id == userID {
				return participants
			}
		}
		return append(participants, userID)
	})
}

// RemoveParticipant removes the user from the participant set. Removing an
// absent user changes nothing and is no error.
func (p *PostgresDB) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	return p.updateParticipants(ctx, eventID, func(participants []string) []string {
		filtered := participants[:0]
		for _, id := range participants {
			if id != userID {
				filtered = append(filtered, id)
			}
		}
		return filtered
	})
}

func (p *PostgresDB) updateParticipants(ctx context.Context, eventID string, mutate func([]string) []string) error {
	conn := p.db.Conn()
	defer conn.Close()

	tx, err := conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	doc := new(eventDB)
	err = tx.ModelContext(ctx, doc).Where("id = ?", eventID).For("UPDATE").Select()
	if err == pg.ErrNoRows {
		return model.ErrNotFound
	}
	if err != nil {
		return err
	}

	doc.Participants = mutate(doc.Participants)
	if doc.Participants == nil {
		doc.Participants = []string{}
	}
	if _, err := tx.ModelContext(ctx, doc).WherePK().Update(); err != nil {
		return err
	}

	return tx.Commit()
}

// SetInactive flips the is_active flag to false. The row is never deleted.
func (p *PostgresDB) SetInactive(ctx context.Context, eventID string) error {
	inactive := false
	res, err := p.db.ModelContext(ctx, &eventDB{ID: eventID}).
		WherePK().
		Set("is_active = ?", inactive).
		Update()
	if err != nil {
		return err
	}
	if res.RowsAffected() < 1 {
		return model.ErrNotFound
	}
	return nil
}

func (p *PostgresDB) toEventDB(event *model.Event) *eventDB {
	doc := &eventDB{
		ID:              event.ID,
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
		CreatedAt:       event.CreatedAt,
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Participants == nil {
		doc.Participants = []string{}
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = p.nowFunc()
	}
	return doc
}

func translateEventsToModels(docs []eventDB) []model.Event {
	events := make([]model.Event, len(docs))
	for i, doc := range docs {
		events[i] = translateEventToModel(doc)
	}
	return events
}

func translateEventToModel(doc eventDB) model.Event {
	participants := doc.Participants
	if participants == nil {
		participants = []string{}
	}
	return model.Event{
		ID:              doc.ID,
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
	}
}

type eventDB struct {
	tableName struct{} `pg:"eventbuddy.events"`

	// ID unique identifier of the event.
	ID string `pg:"id,pk,type:uuid,default:uuid_generate_v4()"`

	// Title is the event title.
	Title string `pg:"title,use_zero"`

	// Icon is the optional display icon.
	Icon string `pg:"icon"`

	// Date is the calendar date in YYYY-MM-DD form.
	Date string `pg:"date,use_zero"`

	// StartTime is the start time-of-day in HH:MM form.
	StartTime string `pg:"start_time,use_zero"`

	// EndTime is the end time-of-day in HH:MM form, possibly empty.
	EndTime string `pg:"end_time"`

	// Location is the meeting place.
	Location string `pg:"location,use_zero"`

	// Description is the free-form description.
	Description string `pg:"description"`

	// MaxParticipants is the event capacity.
	MaxParticipants int `pg:"max_participants,use_zero"`

	// Participants are the joined user ids, insertion ordered.
	Participants []string `pg:"participants,array"`

	// CreatorID is the id of the creating user.
	CreatorID string `pg:"creator_id,use_zero"`

	// IsActive is NULL for records that predate cancellation support. A NULL
	// reads as active, the same as the document store.
	IsActive *bool `pg:"is_active"`

	// CreatedAt is the time at which the event was created.
	CreatedAt time.Time `pg:"created_at"`
}
