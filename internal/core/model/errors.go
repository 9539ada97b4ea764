package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity is required to exist and does not.
	ErrNotFound = errors.New("entity was not found")

	// ErrCorruptRecord is returned when a fetched document is missing a required
	// field. The engine fails closed rather than guessing defaults, with the one
	// documented exception of an absent isActive flag reading as active.
	ErrCorruptRecord = errors.New("stored record is malformed")

	// ErrEventCancelled rejects a join against a cancelled event.
	ErrEventCancelled = errors.New("event has been cancelled")

	// ErrEventExpired rejects a join against an event whose end instant passed.
	ErrEventExpired = errors.New("event has already ended")

	// ErrAlreadyJoined rejects a join by a user who is already a participant.
	ErrAlreadyJoined = errors.New("already joined this event")

	// ErrEventFull rejects a join against an event at capacity.
	ErrEventFull = errors.New("event is full")

	// ErrNotParticipant rejects an exit by a user who never joined.
	ErrNotParticipant = errors.New("not a participant of this event")

	// ErrNotCreator rejects a cancellation by anyone but the event creator.
	ErrNotCreator = errors.New("only the creator can cancel this event")

	// ErrAlreadyCancelled rejects a second cancellation of the same event.
	ErrAlreadyCancelled = errors.New("event is already cancelled")

	// ErrEmptyMessage rejects a chat message that is blank after trimming.
	ErrEmptyMessage = errors.New("message text is empty")
)

// ValidationError reports malformed input rejected before any store call.
type ValidationError struct {
	// Field is the offending input field.
	Field string

	// Reason is a human-readable description of the violation.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRuleViolation reports whether err is one of the participation-rule
// rejections. Rule violations are not retryable: retrying without new input
// fails identically.
func IsRuleViolation(err error) bool {
	for _, sentinel := range []error{
		ErrEventCancelled,
		ErrEventExpired,
		ErrAlreadyJoined,
		ErrEventFull,
		ErrNotParticipant,
		ErrNotCreator,
		ErrAlreadyCancelled,
		ErrEmptyMessage,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
