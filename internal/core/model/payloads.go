package model

// CreateEventArgs contain the arguments of the CreateEvent method.
type CreateEventArgs struct {
	// Title is the event title.
	Title string `validate:"required"`

	// Icon is an optional display icon.
	Icon string

	// Date is the calendar date in YYYY-MM-DD form.
	Date string `validate:"required,datetime=2006-01-02"`

	// StartTime is the start time-of-day in HH:MM form.
	StartTime string `validate:"required,datetime=15:04"`

	// EndTime is the optional end time-of-day in HH:MM form.
	EndTime string `validate:"omitempty,datetime=15:04"`

	// Location is the meeting place.
	Location string `validate:"required"`

	// Description is an optional free-form description.
	Description string

	// MaxParticipants is the event capacity.
	MaxParticipants int `validate:"min=1"`

	// CreatorID is the id of the creating user, seeded as first participant.
	CreatorID string `validate:"required"`
}

// CreateEventResponse contains the response of the CreateEvent method.
type CreateEventResponse struct {
	// Event is the created event as persisted, id assigned.
	Event Event
}

// SendMessageArgs contain the arguments of the SendMessage method.
type SendMessageArgs struct {
	// EventID is the id of the event thread.
	EventID string `validate:"required"`

	// UserID is the id of the sender.
	UserID string `validate:"required"`

	// UserName is the sender display name snapshotted at send time.
	UserName string `validate:"required"`

	// Text is the message body.
	Text string
}

// SendMessageResponse contains the response of the SendMessage method.
type SendMessageResponse struct {
	// Message is the appended message as persisted, id and timestamp assigned.
	Message Message
}
