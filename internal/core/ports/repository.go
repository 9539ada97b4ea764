package ports

import (
	"context"

	"github.com/mhui/eventbuddy/internal/core/model"
)

// EventStore is the interface for event persistence. The store does not
// enforce participation rules; callers run the rules engine first.
type EventStore interface {
	// ListEvents returns the full event set ordered by date ascending.
	ListEvents(ctx context.Context) ([]model.Event, error)

	// GetEvent returns the event with the given id, or model.ErrNotFound.
	GetEvent(ctx context.Context, id string) (*model.Event, error)

	// SaveEvent durably saves a new event, assigning its id.
	SaveEvent(ctx context.Context, event *model.Event) error

	// AddParticipant adds the user to the participant set with set-union
	// semantics: adding an already-present id is a no-op, not an error.
	AddParticipant(ctx context.Context, eventID, userID string) error

	// RemoveParticipant removes the user from the participant set with
	// set-difference semantics.
	RemoveParticipant(ctx context.Context, eventID, userID string) error

	// SetInactive flips the isActive flag to false. Never a physical delete.
	SetInactive(ctx context.Context, eventID string) error
}

// EventWatcher delivers a live view of the event collection.
type EventWatcher interface {
	// WatchEvents opens a subscription delivering a full replacement snapshot
	// on every change, in the store's commit order. The caller owns the
	// subscription lifecycle and must Close it when done.
	WatchEvents(ctx context.Context) (*Subscription[model.Event], error)
}

// MessageStore is the interface for the append-only chat log.
type MessageStore interface {
	// SaveMessage appends the message, assigning its id and timestamp.
	SaveMessage(ctx context.Context, message *model.Message) error

	// ListMessages returns the messages of one event, timestamp ascending.
	ListMessages(ctx context.Context, eventID string) ([]model.Message, error)
}

// MessageWatcher delivers a live view of a single event thread.
type MessageWatcher interface {
	// WatchMessages opens a subscription scoped strictly to the given event,
	// delivering the full thread ordered by timestamp on every change.
	WatchMessages(ctx context.Context, eventID string) (*Subscription[model.Message], error)
}

// UserStore is the interface for profile persistence.
type UserStore interface {
	// GetUser returns the user with the given id, or model.ErrNotFound.
	GetUser(ctx context.Context, id string) (*model.User, error)

	// SaveUser creates or updates the profile identified by user.ID.
	SaveUser(ctx context.Context, user *model.User) error

	// UpdatePushToken records the device push token for the user.
	UpdatePushToken(ctx context.Context, userID, token string) error
}

// IdentityStore caches the viewer identity on the local device. It only seeds
// the session before the first network round-trip; it is not authoritative.
type IdentityStore interface {
	// Load returns the cached identity, or nil when none was stored.
	Load() (*model.StoredIdentity, error)

	// Save caches the identity and marks onboarding as complete.
	Save(identity model.StoredIdentity) error

	// Clear removes the cached identity and the onboarding marker.
	Clear() error

	// OnboardingComplete reports whether an identity was ever saved.
	OnboardingComplete() (bool, error)
}

// SnapshotCache holds the last-known-good event snapshot for degraded reads.
type SnapshotCache interface {
	// StoreEvents overwrites the cached snapshot.
	StoreEvents(ctx context.Context, events []model.Event) error

	// LastKnownGood returns the cached snapshot, or model.ErrNotFound when the
	// cache is cold or the entry expired.
	LastKnownGood(ctx context.Context) ([]model.Event, error)
}
