package ports

import "sync"

// Subscription is a cancellable handle on a live stream of full replacement
// snapshots. Within one subscription, snapshots arrive in the store's commit
// order; no ordering is guaranteed across independent subscriptions. The
// consumer owns the lifecycle and must call Close when the view goes away,
// otherwise the backing listener leaks.
type Subscription[T any] struct {
	snapshots chan []T
	errs      chan error
	stop      func()
	closeOnce sync.Once
	emitMu    sync.Mutex
	closed    bool
}

// NewSubscription builds a subscription whose producer side is driven by the
// store adapter. stop tears down the backing listener; it may be nil.
func NewSubscription[T any](stop func()) *Subscription[T] {
	return &Subscription[T]{
		snapshots: make(chan []T, 1),
		errs:      make(chan error, 1),
		stop:      stop,
	}
}

// Snapshots returns the stream of full replacement snapshots.
func (s *Subscription[T]) Snapshots() <-chan []T {
	return s.snapshots
}

// Err returns the error channel. An error on it means the backing stream
// broke; the subscription will deliver no further snapshots and the caller
// decides whether to resubscribe. The core never resubscribes silently.
func (s *Subscription[T]) Err() <-chan error {
	return s.errs
}

// Close cancels the subscription and releases the backing listener. It is safe
// to call more than once.
func (s *Subscription[T]) Close() {
	s.closeOnce.Do(func() {
		s.emitMu.Lock()
		s.closed = true
		s.emitMu.Unlock()
		if s.stop != nil {
			s.stop()
		}
		close(s.snapshots)
		close(s.errs)
	})
}

// Emit pushes a snapshot to the consumer, replacing an undelivered one: a slow
// consumer observes the latest state, never a backlog of stale snapshots.
// Producer-side use only.
func (s *Subscription[T]) Emit(snapshot []T) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.snapshots:
	default:
	}
	s.snapshots <- snapshot
}

// Fail surfaces a stream error to the consumer. Producer-side use only.
func (s *Subscription[T]) Fail(err error) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.errs <- err:
	default:
	}
}
