package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mhui/eventbuddy/internal/core/model"
	"github.com/mhui/eventbuddy/internal/core/ports"
	"github.com/mhui/eventbuddy/internal/core/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var frozenNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

// MockEventStore is an in-memory implementation of the EventStore port.
type MockEventStore struct {
	events map[string]*model.Event

	saveErr     error
	addCalls    []string
	removeCalls []string
	inactive    []string
}

func NewMockEventStore(events ...model.Event) *MockEventStore {
	m := &MockEventStore{events: map[string]*model.Event{}}
	for i := range events {
		e := events[i]
		m.events[e.ID] = &e
	}
	return m
}

func (m *MockEventStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	out := make([]model.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, *e)
	}
	return out, nil
}

func (m *MockEventStore) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *MockEventStore) SaveEvent(ctx context.Context, event *model.Event) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	event.ID = "generated-id"
	event.CreatedAt = frozenNow
	copied := *event
	m.events[event.ID] = &copied
	return nil
}

func (m *MockEventStore) AddParticipant(ctx context.Context, eventID, userID string) error {
	m.addCalls = append(m.addCalls, eventID+"/"+userID)
	e := m.events[eventID]
	if !e.HasParticipant(userID) {
		e.Participants = append(e.Participants, userID)
	}
	return nil
}

func (m *MockEventStore) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	m.removeCalls = append(m.removeCalls, eventID+"/"+userID)
	e := m.events[eventID]
	kept := e.Participants[:0]
	for _, p := range e.Participants {
		if p != userID {
			kept = append(kept, p)
		}
	}
	e.Participants = kept
	return nil
}

func (m *MockEventStore) SetInactive(ctx context.Context, eventID string) error {
	m.inactive = append(m.inactive, eventID)
	inactive := false
	m.events[eventID].IsActive = &inactive
	return nil
}

// MockPublisher records published cancellation notices.
type MockPublisher struct {
	notices    []model.CancellationNotice
	publishErr error
}

func (m *MockPublisher) Publish(ctx context.Context, notice model.CancellationNotice) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.notices = append(m.notices, notice)
	return nil
}

func boolPtr(b bool) *bool { return &b }

func soccerEvent() model.Event {
	return model.Event{
		ID:              "e1",
		Title:           "Pickup Soccer",
		Date:            "2026-03-01",
		StartTime:       "18:00",
		EndTime:         "20:00",
		Location:        "Park",
		MaxParticipants: 10,
		Participants:    []string{"u1"},
		CreatorID:       "u1",
	}
}

func newService(store *MockEventStore, opts ...EventServiceOptArgs) *EventService {
	opts = append([]EventServiceOptArgs{WithNowFunc(func() time.Time { return frozenNow })}, opts...)
	return NewEventService(EventServiceArgs{Store: store, Watcher: nil}, opts...)
}

func TestCreateEvent(t *testing.T) {
	tests := []struct {
		name          string
		args          model.CreateEventArgs
		expectedErr   func(t *testing.T, err error)
		expectedEvent func(t *testing.T, event model.Event)
	}{
		{
			name: "round trip seeds creator as only participant",
			args: model.CreateEventArgs{
				Title:           "Pickup Soccer",
				Date:            "2026-03-01",
				StartTime:       "18:00",
				EndTime:         "20:00",
				Location:        "Park",
				MaxParticipants: 10,
				CreatorID:       "u1",
			},
			expectedEvent: func(t *testing.T, event model.Event) {
				assert.Equal(t, "generated-id", event.ID)
				assert.Equal(t, []string{"u1"}, event.Participants)
				assert.Nil(t, event.IsActive)
				assert.Equal(t, model.Status{}, rules.DeriveStatus(event, frozenNow))
			},
		},
		{
			name: "empty title is rejected before the store",
			args: model.CreateEventArgs{
				Date:            "2026-03-01",
				StartTime:       "18:00",
				Location:        "Park",
				MaxParticipants: 10,
				CreatorID:       "u1",
			},
			expectedErr: func(t *testing.T, err error) {
				assert.True(t, model.IsValidation(err))
			},
		},
		{
			name: "zero capacity is rejected",
			args: model.CreateEventArgs{
				Title:     "Pickup Soccer",
				Date:      "2026-03-01",
				StartTime: "18:00",
				Location:  "Park",
				CreatorID: "u1",
			},
			expectedErr: func(t *testing.T, err error) {
				assert.True(t, model.IsValidation(err))
			},
		},
		{
			name: "malformed time is rejected",
			args: model.CreateEventArgs{
				Title:           "Pickup Soccer",
				Date:            "2026-03-01",
				StartTime:       "6pm",
				Location:        "Park",
				MaxParticipants: 10,
				CreatorID:       "u1",
			},
			expectedErr: func(t *testing.T, err error) {
				assert.True(t, model.IsValidation(err))
			},
		},
		{
			name: "past date is rejected",
			args: model.CreateEventArgs{
				Title:           "Pickup Soccer",
				Date:            "2020-03-01",
				StartTime:       "18:00",
				Location:        "Park",
				MaxParticipants: 10,
				CreatorID:       "u1",
			},
			expectedErr: func(t *testing.T, err error) {
				assert.True(t, model.IsValidation(err))
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := NewMockEventStore()
			svc := newService(store)
			resp, err := svc.CreateEvent(context.Background(), test.args)
			if test.expectedErr != nil {
				require.Error(t, err)
				test.expectedErr(t, err)
				assert.Empty(t, store.events)
				return
			}
			require.NoError(t, err)
			test.expectedEvent(t, resp.Event)
		})
	}
}

func TestJoinEvent(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(e *model.Event)
		userID      string
		expectedErr error
		expectWrite bool
	}{
		{
			name:        "successful join writes the participant",
			userID:      "u2",
			expectWrite: true,
		},
		{
			name:        "full event rejects before any write",
			mutate:      func(e *model.Event) { e.MaxParticipants = 1 },
			userID:      "u2",
			expectedErr: model.ErrEventFull,
		},
		{
			name:        "member of a full event gets already-joined",
			mutate:      func(e *model.Event) { e.MaxParticipants = 1 },
			userID:      "u1",
			expectedErr: model.ErrAlreadyJoined,
		},
		{
			name:        "cancelled event rejects",
			mutate:      func(e *model.Event) { e.IsActive = boolPtr(false) },
			userID:      "u2",
			expectedErr: model.ErrEventCancelled,
		},
		{
			name:        "expired event rejects",
			mutate:      func(e *model.Event) { e.Date = "2026-01-01" },
			userID:      "u2",
			expectedErr: model.ErrEventExpired,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			event := soccerEvent()
			if test.mutate != nil {
				test.mutate(&event)
			}
			store := NewMockEventStore(event)
			svc := newService(store)

			err := svc.JoinEvent(context.Background(), "e1", test.userID)
			if test.expectedErr != nil {
				require.ErrorIs(t, err, test.expectedErr)
				assert.Empty(t, store.addCalls, "rule violation must not reach the store")
				return
			}
			require.NoError(t, err)
			require.True(t, test.expectWrite)
			assert.Equal(t, []string{"e1/" + test.userID}, store.addCalls)
		})
	}

	t.Run("unknown event surfaces not-found", func(t *testing.T) {
		svc := newService(NewMockEventStore())
		err := svc.JoinEvent(context.Background(), "missing", "u2")
		require.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestExitEvent(t *testing.T) {
	t.Run("participant exit removes from the set", func(t *testing.T) {
		event := soccerEvent()
		event.Participants = []string{"u1", "u2"}
		store := NewMockEventStore(event)
		svc := newService(store)

		require.NoError(t, svc.ExitEvent(context.Background(), "e1", "u2"))
		assert.Equal(t, []string{"e1/u2"}, store.removeCalls)
	})

	t.Run("non-participant is rejected", func(t *testing.T) {
		store := NewMockEventStore(soccerEvent())
		svc := newService(store)

		err := svc.ExitEvent(context.Background(), "e1", "u9")
		require.ErrorIs(t, err, model.ErrNotParticipant)
		assert.Empty(t, store.removeCalls)
	})

	t.Run("exit on cancelled event succeeds without a write", func(t *testing.T) {
		event := soccerEvent()
		event.IsActive = boolPtr(false)
		store := NewMockEventStore(event)
		svc := newService(store)

		require.NoError(t, svc.ExitEvent(context.Background(), "e1", "u1"))
		assert.Empty(t, store.removeCalls)
	})

	t.Run("creator may exit while others remain bound", func(t *testing.T) {
		event := soccerEvent()
		event.Participants = []string{"u1", "u2"}
		store := NewMockEventStore(event)
		svc := newService(store)

		require.NoError(t, svc.ExitEvent(context.Background(), "e1", "u1"))
		assert.Equal(t, []string{"e1/u1"}, store.removeCalls)
		assert.Equal(t, "u1", store.events["e1"].CreatorID, "ownership does not transfer")
	})
}

func TestCancelEvent(t *testing.T) {
	t.Run("creator cancel flips the flag and notifies the others", func(t *testing.T) {
		event := soccerEvent()
		event.Participants = []string{"u1", "u2", "u3"}
		store := NewMockEventStore(event)
		publisher := &MockPublisher{}
		svc := newService(store, WithPublisher(publisher))

		require.NoError(t, svc.CancelEvent(context.Background(), "e1", "u1"))
		assert.Equal(t, []string{"e1"}, store.inactive)

		require.Len(t, publisher.notices, 1)
		notice := publisher.notices[0]
		assert.Equal(t, "e1", notice.EventID)
		assert.Equal(t, "Pickup Soccer", notice.EventTitle)
		assert.Equal(t, "u1", notice.CancelledBy)
		assert.Equal(t, []string{"u2", "u3"}, notice.Recipients)
		assert.NotEmpty(t, notice.ID)
	})

	t.Run("non-creator is rejected", func(t *testing.T) {
		store := NewMockEventStore(soccerEvent())
		svc := newService(store)

		err := svc.CancelEvent(context.Background(), "e1", "u2")
		require.ErrorIs(t, err, model.ErrNotCreator)
		assert.Empty(t, store.inactive)
	})

	t.Run("second cancel is rejected consistently", func(t *testing.T) {
		store := NewMockEventStore(soccerEvent())
		svc := newService(store)

		require.NoError(t, svc.CancelEvent(context.Background(), "e1", "u1"))
		err := svc.CancelEvent(context.Background(), "e1", "u1")
		require.ErrorIs(t, err, model.ErrAlreadyCancelled)
		assert.Equal(t, []string{"e1"}, store.inactive)
	})

	t.Run("publish failure never fails the cancellation", func(t *testing.T) {
		event := soccerEvent()
		event.Participants = []string{"u1", "u2"}
		store := NewMockEventStore(event)
		publisher := &MockPublisher{publishErr: errors.New("fan-out down")}
		svc := newService(store, WithPublisher(publisher))

		require.NoError(t, svc.CancelEvent(context.Background(), "e1", "u1"))
		assert.Equal(t, []string{"e1"}, store.inactive)
	})
}

// fakeWatcher hands out a pre-built subscription.
type fakeWatcher struct {
	sub *ports.Subscription[model.Event]
}

func (f *fakeWatcher) WatchEvents(ctx context.Context) (*ports.Subscription[model.Event], error) {
	return f.sub, nil
}

// memoryCache is an in-memory SnapshotCache.
type memoryCache struct {
	snapshot []model.Event
	stored   int
}

func (c *memoryCache) StoreEvents(ctx context.Context, events []model.Event) error {
	c.snapshot = events
	c.stored++
	return nil
}

func (c *memoryCache) LastKnownGood(ctx context.Context) ([]model.Event, error) {
	if c.snapshot == nil {
		return nil, model.ErrNotFound
	}
	return c.snapshot, nil
}

func TestWatchEventsFailsLoudByDefault(t *testing.T) {
	inner := ports.NewSubscription[model.Event](nil)
	svc := NewEventService(EventServiceArgs{Store: NewMockEventStore(), Watcher: &fakeWatcher{sub: inner}})

	out, err := svc.WatchEvents(context.Background())
	require.NoError(t, err)
	defer out.Close()

	inner.Emit([]model.Event{soccerEvent()})
	snapshot := <-out.Snapshots()
	require.Len(t, snapshot, 1)

	streamErr := errors.New("listener dropped")
	inner.Fail(streamErr)
	got := <-out.Err()
	require.ErrorIs(t, got, streamErr)
}

func TestWatchEventsClosesWhenStreamEnds(t *testing.T) {
	inner := ports.NewSubscription[model.Event](nil)
	svc := NewEventService(EventServiceArgs{Store: NewMockEventStore(), Watcher: &fakeWatcher{sub: inner}})

	out, err := svc.WatchEvents(context.Background())
	require.NoError(t, err)

	inner.Emit([]model.Event{soccerEvent()})
	snapshot, ok := <-out.Snapshots()
	require.True(t, ok)
	require.Len(t, snapshot, 1)

	// a consumer ranging over Snapshots must terminate when the producer
	// side ends, without calling Close itself
	inner.Close()
	for range out.Snapshots() {
	}

	_, ok = <-out.Snapshots()
	assert.False(t, ok)
}

func TestWatchEventsDeliversBufferedErrorBeforeClosing(t *testing.T) {
	inner := ports.NewSubscription[model.Event](nil)
	svc := NewEventService(EventServiceArgs{Store: NewMockEventStore(), Watcher: &fakeWatcher{sub: inner}})

	out, err := svc.WatchEvents(context.Background())
	require.NoError(t, err)

	streamErr := errors.New("listener dropped")
	inner.Fail(streamErr)
	inner.Close()

	got, ok := <-out.Err()
	require.True(t, ok, "the error buffered at shutdown must still reach the consumer")
	require.ErrorIs(t, got, streamErr)

	_, ok = <-out.Snapshots()
	assert.False(t, ok)
}

func TestWatchEventsServesLastKnownGood(t *testing.T) {
	inner := ports.NewSubscription[model.Event](nil)
	cache := &memoryCache{}
	svc := NewEventService(
		EventServiceArgs{Store: NewMockEventStore(), Watcher: &fakeWatcher{sub: inner}},
		WithSnapshotCache(cache),
		WithFallback(LastKnownGood{Cache: cache}),
	)

	out, err := svc.WatchEvents(context.Background())
	require.NoError(t, err)
	defer out.Close()

	inner.Emit([]model.Event{soccerEvent()})
	first := <-out.Snapshots()
	require.Len(t, first, 1)

	inner.Fail(errors.New("listener dropped"))
	degraded := <-out.Snapshots()
	assert.Equal(t, first, degraded, "fallback serves the last-known-good snapshot")
	assert.GreaterOrEqual(t, cache.stored, 1)
}

func TestWatchEventsColdCacheStillFailsLoud(t *testing.T) {
	inner := ports.NewSubscription[model.Event](nil)
	cache := &memoryCache{}
	svc := NewEventService(
		EventServiceArgs{Store: NewMockEventStore(), Watcher: &fakeWatcher{sub: inner}},
		WithFallback(LastKnownGood{Cache: cache}),
	)

	out, err := svc.WatchEvents(context.Background())
	require.NoError(t, err)
	defer out.Close()

	streamErr := errors.New("listener dropped")
	inner.Fail(streamErr)
	got := <-out.Err()
	require.ErrorIs(t, got, streamErr)
}
