package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mhui/eventbuddy/internal/core/model"
	"github.com/mhui/eventbuddy/internal/core/ports"
	"github.com/mhui/eventbuddy/internal/core/projection"
	"github.com/mhui/eventbuddy/internal/core/rules"
	log "github.com/sirupsen/logrus"
)

// EventServiceArgs contain the mandatory arguments for the EventService.
type EventServiceArgs struct {
	// Store is the event persistence adapter.
	Store ports.EventStore

	// Watcher delivers live event snapshots. May be the same adapter as Store.
	Watcher ports.EventWatcher
}

// EventServiceOptArgs are the optional arguments for building an EventService.
type EventServiceOptArgs = func(*EventService)

// WithNowFunc can be used to override the nowFunc. Useful for testing.
func WithNowFunc(nowFunc func() time.Time) EventServiceOptArgs {
	return func(s *EventService) {
		s.nowFunc = nowFunc
	}
}

// WithPublisher wires a cancellation-notice publisher. Without one,
// cancellations simply skip the fan-out.
func WithPublisher(publisher ports.NoticePublisher) EventServiceOptArgs {
	return func(s *EventService) {
		s.publisher = publisher
	}
}

// WithFallback overrides the degraded-mode strategy for broken subscriptions.
// The default fails loud.
func WithFallback(fallback ports.FallbackStrategy) EventServiceOptArgs {
	return func(s *EventService) {
		s.fallback = fallback
	}
}

// WithSnapshotCache wires a cache that is refreshed with every live snapshot,
// feeding the last-known-good fallback strategy.
func WithSnapshotCache(cache ports.SnapshotCache) EventServiceOptArgs {
	return func(s *EventService) {
		s.cache = cache
	}
}

// NewEventService creates a new EventService.
func NewEventService(args EventServiceArgs, optArgs ...EventServiceOptArgs) *EventService {
	s := &EventService{
		store:    args.Store,
		watcher:  args.Watcher,
		fallback: FailLoud{},
		validate: validator.New(),
		nowFunc:  func() time.Time { return time.Now() },
	}
	for _, opt := range optArgs {
		opt(s)
	}
	return s
}

// EventService gathers the functionality around the event lifecycle: creation,
// participation, cancellation and live views.
type EventService struct {
	store     ports.EventStore
	watcher   ports.EventWatcher
	publisher ports.NoticePublisher
	fallback  ports.FallbackStrategy
	cache     ports.SnapshotCache
	validate  *validator.Validate
	nowFunc   func() time.Time
}

// CreateEvent validates the arguments and saves a new event with the creator
// as its first participant. The store assigns the id.
func (s *EventService) CreateEvent(ctx context.Context, args model.CreateEventArgs) (*model.CreateEventResponse, error) {
	if err := s.validateCreate(args); err != nil {
		return nil, err
	}

	event := &model.Event{
		Title:           args.Title,
		Icon:            args.Icon,
		Date:            args.Date,
		StartTime:       args.StartTime,
		EndTime:         args.EndTime,
		Location:        args.Location,
		Description:     args.Description,
		MaxParticipants: args.MaxParticipants,
		Participants:    []string{args.CreatorID},
		CreatorID:       args.CreatorID,
	}

	if err := s.store.SaveEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("error saving event in store: %w", err)
	}

	return &model.CreateEventResponse{Event: *event}, nil
}

func (s *EventService) validateCreate(args model.CreateEventArgs) error {
	if err := s.validate.Struct(args); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return &model.ValidationError{
				Field:  errs[0].Field(),
				Reason: fmt.Sprintf("failed on the %q rule", errs[0].Tag()),
			}
		}
		return err
	}
	candidate := model.Event{Date: args.Date, StartTime: args.StartTime, EndTime: args.EndTime}
	if rules.Expired(candidate, s.nowFunc()) {
		return &model.ValidationError{Field: "Date", Reason: "event lies in the past"}
	}
	return nil
}

// GetEvent returns one event, or model.ErrNotFound.
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error fetching event: %w", err)
	}
	return event, nil
}

// ListEvents returns the full event set ordered by date ascending.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing events from store: %w", err)
	}
	return events, nil
}

// Status derives the current state of an event.
func (s *EventService) Status(event model.Event) model.Status {
	return rules.DeriveStatus(event, s.nowFunc())
}

// UpcomingFeed returns the browsable feed: live events matching the search
// text, sorted by start.
func (s *EventService) UpcomingFeed(ctx context.Context, search string) ([]model.Event, error) {
	events, err := s.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	return projection.UpcomingFeed(events, s.nowFunc(), search), nil
}

// MySchedule returns the viewer's events partitioned into active and archive.
func (s *EventService) MySchedule(ctx context.Context, userID string) (active, archive []model.Event, err error) {
	events, err := s.ListEvents(ctx)
	if err != nil {
		return nil, nil, err
	}
	active, archive = projection.ActiveVsArchive(projection.MyEvents(events, userID), s.nowFunc())
	return active, archive, nil
}

// JoinEvent adds the user to the event after the rules engine admits the
// join. The check runs against a snapshot: a concurrent join can still push
// the event over capacity between check and commit. That gap is accepted, not
// masked; closing it requires a conditional write at the store boundary.
func (s *EventService) JoinEvent(ctx context.Context, eventID, userID string) error {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("error fetching event: %w", err)
	}
	if err := rules.CanJoin(*event, userID, s.nowFunc()); err != nil {
		return err
	}
	if err := s.store.AddParticipant(ctx, eventID, userID); err != nil {
		return fmt.Errorf("error adding participant: %w", err)
	}
	return nil
}

// ExitEvent removes the user from the event. Exiting a cancelled event
// succeeds without touching the store: cancellation is terminal and there is
// nothing meaningful to undo.
func (s *EventService) ExitEvent(ctx context.Context, eventID, userID string) error {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("error fetching event: %w", err)
	}
	if err := rules.CanExit(*event, userID); err != nil {
		return err
	}
	if rules.Cancelled(*event) {
		return nil
	}
	if err := s.store.RemoveParticipant(ctx, eventID, userID); err != nil {
		return fmt.Errorf("error removing participant: %w", err)
	}
	return nil
}

// CancelEvent soft-deletes the event and publishes a cancellation notice for
// the remaining participants. Publishing is best-effort: a fan-out failure is
// logged but never fails the cancellation itself.
func (s *EventService) CancelEvent(ctx context.Context, eventID, actorID string) error {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("error fetching event: %w", err)
	}
	if err := rules.CanCancel(*event, actorID); err != nil {
		return err
	}
	if err := s.store.SetInactive(ctx, eventID); err != nil {
		return fmt.Errorf("error cancelling event: %w", err)
	}

	if s.publisher == nil {
		return nil
	}
	recipients := make([]string, 0, len(event.Participants))
	for _, p := range event.Participants {
		if p != actorID {
			recipients = append(recipients, p)
		}
	}
	notice := model.CancellationNotice{
		ID:          uuid.NewString(),
		EventID:     event.ID,
		EventTitle:  event.Title,
		Date:        event.Date,
		StartTime:   event.StartTime,
		CancelledBy: actorID,
		Recipients:  recipients,
	}
	if err := s.publisher.Publish(ctx, notice); err != nil {
		log.WithError(err).WithField("event_id", event.ID).Error("could not publish cancellation notice")
	}
	return nil
}

// WatchEvents opens a live view of the event collection. Every snapshot also
// refreshes the last-known-good cache when one is wired. When the backing
// stream breaks, the fallback strategy decides between failing loud (default)
// and serving a degraded snapshot; a degraded snapshot is always logged.
func (s *EventService) WatchEvents(ctx context.Context) (*ports.Subscription[model.Event], error) {
	inner, err := s.watcher.WatchEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("error opening event subscription: %w", err)
	}

	out := ports.NewSubscription[model.Event](inner.Close)
	go s.pumpEvents(ctx, inner, out)
	return out, nil
}

func (s *EventService) pumpEvents(ctx context.Context, inner, out *ports.Subscription[model.Event]) {
	// closing out when the pump ends lets a consumer ranging over
	// Snapshots terminate instead of blocking on a dead stream
	defer out.Close()
	for {
		select {
		case snapshot, ok := <-inner.Snapshots():
			if !ok {
				// the producer may have failed right before closing
				select {
				case err, ok := <-inner.Err():
					if ok {
						s.relayStreamError(ctx, err, out)
					}
				default:
				}
				return
			}
			if s.cache != nil {
				if err := s.cache.StoreEvents(ctx, snapshot); err != nil {
					log.WithError(err).Warn("could not refresh snapshot cache")
				}
			}
			out.Emit(snapshot)
		case err, ok := <-inner.Err():
			if !ok {
				return
			}
			s.relayStreamError(ctx, err, out)
		}
	}
}

func (s *EventService) relayStreamError(ctx context.Context, err error, out *ports.Subscription[model.Event]) {
	if snapshot, served := s.fallback.OnStreamError(ctx, err); served {
		log.WithError(err).Warn("event stream broke, serving degraded snapshot")
		out.Emit(snapshot)
		return
	}
	out.Fail(err)
}
