package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mhui/eventbuddy/internal/core/model"
	"github.com/mhui/eventbuddy/internal/core/ports"
)

// ChatServiceArgs contain the mandatory arguments for the ChatService.
type ChatServiceArgs struct {
	// Store is the append-only message persistence adapter.
	Store ports.MessageStore

	// Watcher delivers live thread snapshots. May be the same adapter as Store.
	Watcher ports.MessageWatcher
}

// NewChatService creates a new ChatService.
func NewChatService(args ChatServiceArgs) *ChatService {
	return &ChatService{
		store:    args.Store,
		watcher:  args.Watcher,
		validate: validator.New(),
	}
}

// ChatService runs the per-event chat threads. Messages are append-only: no
// edit or delete operations exist.
type ChatService struct {
	store    ports.MessageStore
	watcher  ports.MessageWatcher
	validate *validator.Validate
}

// SendMessage appends a message to the event thread. Blank text after
// trimming is rejected before any store call; the store assigns the
// timestamp so thread order follows commit order.
func (s *ChatService) SendMessage(ctx context.Context, args model.SendMessageArgs) (*model.SendMessageResponse, error) {
	text := strings.TrimSpace(args.Text)
	if text == "" {
		return nil, model.ErrEmptyMessage
	}
	if err := s.validate.Struct(args); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return nil, &model.ValidationError{
				Field:  errs[0].Field(),
				Reason: fmt.Sprintf("failed on the %q rule", errs[0].Tag()),
			}
		}
		return nil, err
	}

	message := &model.Message{
		EventID:  args.EventID,
		UserID:   args.UserID,
		UserName: args.UserName,
		Text:     text,
	}
	if err := s.store.SaveMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("error saving message in store: %w", err)
	}
	return &model.SendMessageResponse{Message: *message}, nil
}

// ListMessages returns the thread of one event, timestamp ascending.
func (s *ChatService) ListMessages(ctx context.Context, eventID string) ([]model.Message, error) {
	messages, err := s.store.ListMessages(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error listing messages from store: %w", err)
	}
	return messages, nil
}

// WatchThread opens a live view of one event thread, scoped strictly to that
// event. The caller owns the subscription and must Close it on teardown.
func (s *ChatService) WatchThread(ctx context.Context, eventID string) (*ports.Subscription[model.Message], error) {
	sub, err := s.watcher.WatchMessages(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error opening thread subscription: %w", err)
	}
	return sub, nil
}
