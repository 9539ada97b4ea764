package ports

import (
	"context"

	"github.com/mhui/eventbuddy/internal/core/model"
)

// FallbackStrategy decides what a live event view serves when its subscription
// breaks. The default strategy fails loud; serving a substitute snapshot is an
// explicit, observable degraded-mode choice, never the store adapter's call.
type FallbackStrategy interface {
	// OnStreamError is invoked with the subscription error. A returned
	// snapshot with ok=true is served to the consumer as degraded data; with
	// ok=false the error propagates unchanged.
	OnStreamError(ctx context.Context, err error) (snapshot []model.Event, ok bool)
}
