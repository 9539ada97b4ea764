package usecase

import (
	"context"
	"fmt"

	"github.com/mhui/eventbuddy/internal/core/model"
	"github.com/mhui/eventbuddy/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// NotifierArgs contain the mandatory arguments for the Notifier.
type NotifierArgs struct {
	// Users resolves recipient profiles to push tokens.
	Users ports.UserStore

	// Sender delivers the push notifications.
	Sender ports.PushSender
}

// NewNotifier builds a new Notifier.
func NewNotifier(args NotifierArgs) *Notifier {
	return &Notifier{users: args.Users, sender: args.Sender}
}

// Notifier turns cancellation notices into push notifications on the worker
// side. Delivery is best-effort throughout: recipients without a token are
// skipped, and a lookup failure for one recipient never blocks the rest.
type Notifier struct {
	users  ports.UserStore
	sender ports.PushSender
}

// Handle resolves the notice recipients to push tokens and sends the
// cancellation notification. The acting creator is never notified.
func (n *Notifier) Handle(ctx context.Context, notice model.CancellationNotice) error {
	tokens := make([]string, 0, len(notice.Recipients))
	for _, recipient := range notice.Recipients {
		if recipient == notice.CancelledBy {
			continue
		}
		user, err := n.users.GetUser(ctx, recipient)
		if err != nil {
			log.WithError(err).WithField("user_id", recipient).Warn("could not resolve notice recipient")
			continue
		}
		if user.PushToken == "" {
			continue
		}
		tokens = append(tokens, user.PushToken)
	}

	if len(tokens) == 0 {
		return nil
	}

	body := fmt.Sprintf("%q on %s at %s has been cancelled by the organizer.",
		notice.EventTitle, notice.Date, notice.StartTime)
	if err := n.sender.SendPush(ctx, tokens, "Event Cancelled", body, map[string]string{
		"type":    "event_cancelled",
		"eventId": notice.EventID,
	}); err != nil {
		return fmt.Errorf("error sending cancellation pushes for notice [%s]: %w", notice.ID, err)
	}
	return nil
}
