package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/mhui/eventbuddy/internal/core/model"
)

const snapshotKey = "eventbuddy:events:snapshot"

// SnapshotCache keeps the last-known-good event snapshot in redis so the
// service can serve a degraded read when the primary store is unreachable.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// SnapshotCacheArgs are the mandatory arguments for the creation of a
// SnapshotCache.
type SnapshotCacheArgs struct {
	// Client is a connected redis client.
	Client *redis.Client
}

// SnapshotCacheOptArgs are the optional arguments for building a SnapshotCache.
type SnapshotCacheOptArgs = func(*SnapshotCache)

// WithTTL bounds the staleness of a cached snapshot. Zero means no expiry.
func WithTTL(ttl time.Duration) SnapshotCacheOptArgs {
	return func(c *SnapshotCache) {
		c.ttl = ttl
	}
}

// NewSnapshotCache creates a new SnapshotCache.
func NewSnapshotCache(args SnapshotCacheArgs, optArgs ...SnapshotCacheOptArgs) (*SnapshotCache, error) {
	if args.Client == nil {
		return nil, errors.New("nil redis client")
	}
	c := &SnapshotCache{client: args.Client}
	for _, opt := range optArgs {
		opt(c)
	}
	return c, nil
}

// StoreEvents overwrites the cached snapshot.
func (c *SnapshotCache) StoreEvents(ctx context.Context, events []model.Event) error {
	if events == nil {
		events = []model.Event{}
	}
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("could not encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("could not store snapshot: %w", err)
	}
	return nil
}

// LastKnownGood returns the cached snapshot, or model.ErrNotFound when the
// cache is cold or the entry expired.
func (c *SnapshotCache) LastKnownGood(ctx context.Context) ([]model.Event, error) {
	payload, err := c.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not load snapshot: %w", err)
	}
	var events []model.Event
	if err := json.Unmarshal(payload, &events); err != nil {
		return nil, fmt.Errorf("could not decode snapshot: %w", err)
	}
	return events, nil
}
