package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mhui/eventbuddy/internal/core/model"
	"github.com/mhui/eventbuddy/internal/core/ports"
)

// WatchEvents opens a subscription delivering a full replacement snapshot of
// the event set whenever it changes. Postgres has no change streams here, so
// the adapter polls and suppresses snapshots identical to the last one
// delivered.
func (p *PostgresDB) WatchEvents(ctx context.Context) (*ports.Subscription[model.Event], error) {
	watchCtx, cancel := context.WithCancel(ctx)
	sub := ports.NewSubscription[model.Event](cancel)
	go poll(watchCtx, sub, p.pollInterval, func() ([]model.Event, error) {
		return p.ListEvents(watchCtx)
	})
	return sub, nil
}

// WatchMessages opens a subscription scoped to one event thread, delivering
// the full thread on every change.
func (p *PostgresDB) WatchMessages(ctx context.Context, eventID string) (*ports.Subscription[model.Message], error) {
	watchCtx, cancel := context.WithCancel(ctx)
	sub := ports.NewSubscription[model.Message](cancel)
	go poll(watchCtx, sub, p.pollInterval, func() ([]model.Message, error) {
		return p.ListMessages(watchCtx, eventID)
	})
	return sub, nil
}

// poll drives the producer side of a subscription. The first query delivers
// the current state immediately; afterwards a snapshot goes out only when the
// queried state differs from the previously delivered one.
func poll[T any](ctx context.Context, sub *ports.Subscription[T], interval time.Duration, query func() ([]T, error)) {
	defer sub.Close()

	var last []byte

	deliver := func() bool {
		snapshot, err := query()
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			sub.Fail(err)
			return false
		}
		fingerprint, err := json.Marshal(snapshot)
		if err != nil {
			sub.Fail(err)
			return false
		}
		if last != nil && string(fingerprint) == string(last) {
			return true
		}
		last = fingerprint
		sub.Emit(snapshot)
		return true
	}

	if !deliver() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !deliver() {
				return
			}
		}
	}
}
