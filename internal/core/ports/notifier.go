package ports

import (
	"context"

	"github.com/mhui/eventbuddy/internal/core/model"
)

// NoticePublisher is the port for publishing outbound cancellation notices.
type NoticePublisher interface {
	// Publish sends the cancellation notice to the fan-out transport.
	Publish(ctx context.Context, notice model.CancellationNotice) error
}

// NoticeHandler handles incoming cancellation notices on the worker side.
type NoticeHandler interface {
	// Handle receives one cancellation notice and delivers notifications.
	Handle(ctx context.Context, notice model.CancellationNotice) error
}

// PushSender delivers push notifications to devices.
type PushSender interface {
	// SendPush sends the same notification to every token. Delivery is
	// best-effort; partial failure is reported but must not be treated as
	// fatal by callers.
	SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}
