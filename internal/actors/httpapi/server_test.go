package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mhui/eventbuddy/internal/core/model"
	"github.com/mhui/eventbuddy/internal/core/ports"
	"github.com/mhui/eventbuddy/internal/core/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memStore is an in-memory implementation of the store and watcher ports.
type memStore struct {
	mu       sync.Mutex
	events   map[string]model.Event
	messages []model.Message
	users    map[string]model.User
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{
		events: map[string]model.Event{},
		users:  map[string]model.User{},
	}
}

func (m *memStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e)
	}
	return out, nil
}

func (m *memStore) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &event, nil
}

func (m *memStore) SaveEvent(ctx context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	event.ID = fmt.Sprintf("e%d", m.nextID)
	m.events[event.ID] = *event
	return nil
}

func (m *memStore) AddParticipant(ctx context.Context, eventID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[eventID]
	if !ok {
		return model.ErrNotFound
	}
	if !event.HasParticipant(userID) {
		event.Participants = append(event.Participants, userID)
	}
	m.events[eventID] = event
	return nil
}

func (m *memStore) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[eventID]
	if !ok {
		return model.ErrNotFound
	}
	kept := event.Participants[:0]
	for _, p := range event.Participants {
		if p != userID {
			kept = append(kept, p)
		}
	}
	event.Participants = kept
	m.events[eventID] = event
	return nil
}

func (m *memStore) SetInactive(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[eventID]
	if !ok {
		return model.ErrNotFound
	}
	inactive := false
	event.IsActive = &inactive
	m.events[eventID] = event
	return nil
}

func (m *memStore) SaveMessage(ctx context.Context, message *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	message.ID = fmt.Sprintf("m%d", m.nextID)
	message.Timestamp = time.Now()
	m.messages = append(m.messages, *message)
	return nil
}

func (m *memStore) ListMessages(ctx context.Context, eventID string) ([]model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Message
	for _, msg := range m.messages {
		if msg.EventID == eventID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &user, nil
}

func (m *memStore) SaveUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) UpdatePushToken(ctx context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return model.ErrNotFound
	}
	user.PushToken = token
	m.users[userID] = user
	return nil
}

func (m *memStore) WatchEvents(ctx context.Context) (*ports.Subscription[model.Event], error) {
	sub := ports.NewSubscription[model.Event](nil)
	snapshot, _ := m.ListEvents(ctx)
	sub.Emit(snapshot)
	return sub, nil
}

func (m *memStore) WatchMessages(ctx context.Context, eventID string) (*ports.Subscription[model.Message], error) {
	sub := ports.NewSubscription[model.Message](nil)
	snapshot, _ := m.ListMessages(ctx, eventID)
	sub.Emit(snapshot)
	return sub, nil
}

var frozenNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	store := newMemStore()
	events := usecase.NewEventService(
		usecase.EventServiceArgs{Store: store, Watcher: store},
		usecase.WithNowFunc(func() time.Time { return frozenNow }),
	)
	chat := usecase.NewChatService(usecase.ChatServiceArgs{Store: store, Watcher: store})
	server, err := NewServer(ServerArgs{Events: events, Chat: chat, Users: store})
	require.NoError(t, err)
	return server, store
}

func doJSON(t *testing.T, server *Server, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(actorHeader, actor)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func createEvent(t *testing.T, server *Server, actor string, capacity int) model.Event {
	t.Helper()
	rec := doJSON(t, server, http.MethodPost, "/api/events", actor, createEventReq{
		Title:           "Bowling Night",
		Date:            "2026-02-15",
		StartTime:       "19:00",
		EndTime:         "21:00",
		Location:        "Lanes",
		MaxParticipants: capacity,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var event model.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	return event
}

func TestCreateEvent(t *testing.T) {
	server, _ := newTestServer(t)

	event := createEvent(t, server, "u1", 4)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "u1", event.CreatorID)
	assert.Equal(t, []string{"u1"}, event.Participants)

	t.Run("missing actor header", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, "/api/events", "", createEventReq{Title: "x"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, "/api/events", "u1", createEventReq{
			Title: "No date", StartTime: "19:00", Location: "Lanes", MaxParticipants: 4,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("past event rejected", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, "/api/events", "u1", createEventReq{
			Title: "Yesterday", Date: "2026-01-01", StartTime: "19:00",
			Location: "Lanes", MaxParticipants: 4,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestJoinExitCancel(t *testing.T) {
	server, _ := newTestServer(t)
	event := createEvent(t, server, "u1", 2)
	path := "/api/events/" + event.ID

	rec := doJSON(t, server, http.MethodPost, path+"/join", "u2", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	t.Run("full event rejected with verbatim reason", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, path+"/join", "u3", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), model.ErrEventFull.Error())
	})

	t.Run("exit by non-participant", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, path+"/exit", "u9", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), model.ErrNotParticipant.Error())
	})

	t.Run("cancel by non-creator", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, path+"/cancel", "u2", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("cancel by creator then join rejected", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, path+"/cancel", "u1", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = doJSON(t, server, http.MethodPost, path+"/join", "u4", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), model.ErrEventCancelled.Error())
	})

	t.Run("unknown event", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, "/api/events/ghost/join", "u2", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEventStatus(t *testing.T) {
	server, _ := newTestServer(t)
	event := createEvent(t, server, "u1", 1)

	rec := doJSON(t, server, http.MethodGet, "/api/events/"+event.ID+"/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status model.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Cancelled)
	assert.False(t, status.Expired)
	assert.True(t, status.Full)
}

func TestFeedAndSchedule(t *testing.T) {
	server, _ := newTestServer(t)
	bowling := createEvent(t, server, "u1", 4)
	other := createEvent(t, server, "u2", 4)
	doJSON(t, server, http.MethodPost, "/api/events/"+other.ID+"/cancel", "u2", nil)

	rec := doJSON(t, server, http.MethodGet, "/api/events/feed?search=bowling", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed []model.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, bowling.ID, feed[0].ID)

	rec = doJSON(t, server, http.MethodGet, "/api/schedule", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var schedule struct {
		Active  []model.Event `json:"active"`
		Archive []model.Event `json:"archive"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schedule))
	require.Len(t, schedule.Active, 1)
	assert.Empty(t, schedule.Archive)
}

func TestMessages(t *testing.T) {
	server, _ := newTestServer(t)
	event := createEvent(t, server, "u1", 4)
	path := "/api/events/" + event.ID + "/messages"

	rec := doJSON(t, server, http.MethodPost, path, "u1", sendMessageReq{UserName: "Ann", Text: "  hello  "})
	require.Equal(t, http.StatusCreated, rec.Code)
	var message model.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &message))
	assert.Equal(t, "hello", message.Text)

	t.Run("blank message rejected", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, path, "u1", sendMessageReq{UserName: "Ann", Text: "   "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rec = doJSON(t, server, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var thread []model.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &thread))
	require.Len(t, thread, 1)
	assert.Equal(t, "hello", thread[0].Text)
}

func TestUsers(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPut, "/api/users/me", "u1", saveUserReq{Name: "Ann", Email: "ann@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodPut, "/api/users/me/push-token", "u1", pushTokenReq{Token: "tok-1"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/users/me", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var user model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "tok-1", user.PushToken)

	t.Run("missing fields rejected", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPut, "/api/users/me", "u1", saveUserReq{Name: "Ann"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWatchEventsStreamsSnapshot(t *testing.T) {
	server, _ := newTestServer(t)
	createEvent(t, server, "u1", 4)

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events/watch", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	scanner := bufio.NewScanner(resp.Body)
	var sawSnapshot bool
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") && strings.Contains(line, "snapshot") {
			sawSnapshot = true
		}
		if sawSnapshot && strings.HasPrefix(line, "data:") {
			assert.Contains(t, line, "Bowling Night")
			cancel()
			break
		}
	}
	assert.True(t, sawSnapshot)
}
