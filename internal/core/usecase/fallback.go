package usecase

import (
	"context"

	"github.com/mhui/eventbuddy/internal/core/model"
	"github.com/mhui/eventbuddy/internal/core/ports"
)

// FailLoud is the default degraded-mode strategy: stream errors propagate to
// the consumer unchanged, never indistinguishable from a healthy state.
type FailLoud struct{}

// OnStreamError never serves a substitute snapshot.
func (FailLoud) OnStreamError(ctx context.Context, err error) ([]model.Event, bool) {
	return nil, false
}

// LastKnownGood serves the cached snapshot when the live stream breaks. The
// reference client fell back to fixture data on subscription failure; this is
// the same degraded-mode choice made explicit and observable.
type LastKnownGood struct {
	// Cache is the snapshot cache refreshed by the live view.
	Cache ports.SnapshotCache
}

// OnStreamError returns the last cached snapshot, or declines when the cache
// is cold so the error still propagates.
func (f LastKnownGood) OnStreamError(ctx context.Context, err error) ([]model.Event, bool) {
	if f.Cache == nil {
		return nil, false
	}
	snapshot, cacheErr := f.Cache.LastKnownGood(ctx)
	if cacheErr != nil {
		return nil, false
	}
	return snapshot, true
}
