// Package rules implements the participation rules engine: pure functions over
// an event snapshot and an acting user id. It performs no I/O and is the last
// line of defense against overbooking given a store that does not enforce
// cardinality on writes.
package rules

import (
	"time"

	"github.com/mhui/eventbuddy/internal/core/model"
)

// Cancelled reports whether the event was soft-deleted. An absent isActive
// flag reads as active: legacy records predate the field.
func Cancelled(e model.Event) bool {
	return e.IsActive != nil && !*e.IsActive
}

// Full reports whether the participant set reached capacity.
func Full(e model.Event) bool {
	return len(e.Participants) >= e.MaxParticipants
}

// EndInstant combines the event date with its end time into a single instant in
// the given location. An empty end time falls back to the start time. The zero
// time is returned when the stored fields do not parse; both fields are
// validated on write, so that only happens for corrupt records.
func EndInstant(e model.Event, loc *time.Location) time.Time {
	end := e.EndTime
	if end == "" {
		end = e.StartTime
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", e.Date+" "+end, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Expired reports whether the event end instant lies strictly before now. The
// comparison is `<`: an event ending at the current minute is already expired.
func Expired(e model.Event, now time.Time) bool {
	end := EndInstant(e, now.Location())
	if end.IsZero() {
		return false
	}
	return end.Before(now)
}

// DeriveStatus computes the derived state of an event at the given instant.
// It is total and pure; the three flags are independent and several may hold
// at once. UI precedence (cancelled > expired > full) is a consumer concern.
func DeriveStatus(e model.Event, now time.Time) model.Status {
	return model.Status{
		Cancelled: Cancelled(e),
		Expired:   Expired(e, now),
		Full:      Full(e),
	}
}

// CanJoin decides whether userID may join the event at the given instant.
// Preconditions are checked in order, first failure wins: cancelled, expired,
// already joined, full. A member of a full event therefore gets
// ErrAlreadyJoined, not ErrEventFull. A nil return does not make the
// subsequent store write safe against concurrent joins; that race is accepted.
func CanJoin(e model.Event, userID string, now time.Time) error {
	if Cancelled(e) {
		return model.ErrEventCancelled
	}
	if Expired(e, now) {
		return model.ErrEventExpired
	}
	if e.HasParticipant(userID) {
		return model.ErrAlreadyJoined
	}
	if Full(e) {
		return model.ErrEventFull
	}
	return nil
}

// CanExit decides whether userID may leave the event. Leaving an expired event
// is allowed: historical participation is not revoked. Leaving a cancelled
// event succeeds as a no-op, there is nothing meaningful to undo. The creator
// may exit without cancelling; the event stays owned by the absent creator.
func CanExit(e model.Event, userID string) error {
	if Cancelled(e) {
		return nil
	}
	if !e.HasParticipant(userID) {
		return model.ErrNotParticipant
	}
	return nil
}

// CanCancel decides whether the acting user may cancel the event. Cancelling
// an already-cancelled event fails with ErrAlreadyCancelled rather than
// succeeding silently, so a double-tap surfaces to the caller.
func CanCancel(e model.Event, actorID string) error {
	if actorID != e.CreatorID {
		return model.ErrNotCreator
	}
	if Cancelled(e) {
		return model.ErrAlreadyCancelled
	}
	return nil
}
