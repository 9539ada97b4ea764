package model

import "time"

// Event represents a scheduled meetup with a capacity and a participant set.
type Event struct {
	// ID unique identifier of the event, assigned by the store on creation.
	ID string `json:"id"`

	// Title is the event title.
	Title string `json:"title"`

	// Icon is an optional display icon for the event.
	Icon string `json:"icon,omitempty"`

	// Date is the calendar date of the event in YYYY-MM-DD form, timezone-naive.
	Date string `json:"date"`

	// StartTime is the start time-of-day in zero-padded 24h HH:MM form.
	StartTime string `json:"startTime"`

	// EndTime is the end time-of-day in HH:MM form. Empty means equal to StartTime
	// for expiry purposes.
	EndTime string `json:"endTime,omitempty"`

	// Location is the meeting place of the event.
	Location string `json:"location"`

	// Description is an optional free-form description.
	Description string `json:"description,omitempty"`

	// MaxParticipants is the capacity of the event, at least 1.
	MaxParticipants int `json:"maxParticipants"`

	// Participants are the ids of the users who joined, unique, insertion ordered.
	// The creator is always the first participant.
	Participants []string `json:"participants"`

	// CreatorID is the id of the user who created the event. Immutable.
	CreatorID string `json:"creatorId"`

	// IsActive is nil or true for an active event and false for a cancelled one.
	// Legacy records predate the field, so absence must read as active.
	IsActive *bool `json:"isActive,omitempty"`

	// CreatedAt is the time at which the event was created in the store.
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// HasParticipant reports whether the user is currently in the participant set.
func (e Event) HasParticipant(userID string) bool {
	for _, p := range e.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Status gathers the derived state of an event. The three flags are independent
// and may hold simultaneously; none of them is ever persisted.
type Status struct {
	// Cancelled is true when the event was soft-deleted by its creator.
	Cancelled bool `json:"cancelled"`

	// Expired is true when the event end instant lies strictly in the past.
	Expired bool `json:"expired"`

	// Full is true when the participant set reached capacity.
	Full bool `json:"full"`
}

// Message is a single entry in an event chat thread. Messages are append-only
// and never move between events.
type Message struct {
	// ID unique identifier of the message.
	ID string `json:"id"`

	// EventID is the id of the event thread the message belongs to.
	EventID string `json:"eventId"`

	// UserID is the id of the sender.
	UserID string `json:"userId"`

	// UserName is the sender display name snapshotted at send time. It is not
	// updated retroactively if the sender later renames.
	UserName string `json:"userName"`

	// Text is the message body, non-empty after trimming.
	Text string `json:"text"`

	// Timestamp is the store-assigned send instant, non-decreasing within a thread.
	Timestamp time.Time `json:"timestamp"`
}

// RoleAdmin is the role value marking an administrator account.
const RoleAdmin = 0

// User is a profile record. The engine treats the id as an opaque foreign key.
type User struct {
	// ID unique identifier of the user.
	ID string `json:"id"`

	// Name is the user display name.
	Name string `json:"name"`

	// Email is the user email.
	Email string `json:"email"`

	// Role is nil for a normal user and RoleAdmin for an administrator.
	Role *int `json:"role,omitempty"`

	// PushToken is the device push token, when the user granted permission.
	PushToken string `json:"pushToken,omitempty"`

	// CreatedAt is the time at which the profile was first saved.
	CreatedAt time.Time `json:"createdAt,omitempty"`

	// UpdatedAt is the time at which the profile was last updated.
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role != nil && *u.Role == RoleAdmin
}

// StoredIdentity is the locally cached viewer identity used to seed the session
// before any network round-trip completes. It is not authoritative.
type StoredIdentity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  *int   `json:"role,omitempty"`
}

// CancellationNotice is the fan-out intent produced when a creator cancels an
// event. Delivery is best-effort and must never fail the cancellation itself.
type CancellationNotice struct {
	// ID is the notice id.
	ID string `json:"id"`

	// EventID is the id of the cancelled event.
	EventID string `json:"eventId"`

	// EventTitle is the title of the cancelled event.
	EventTitle string `json:"eventTitle"`

	// Date is the event date in YYYY-MM-DD form.
	Date string `json:"date"`

	// StartTime is the event start time in HH:MM form.
	StartTime string `json:"startTime"`

	// CancelledBy is the id of the acting creator, excluded from delivery.
	CancelledBy string `json:"cancelledBy"`

	// Recipients are the participant ids to notify.
	Recipients []string `json:"recipients"`
}
