// Package cache decorates an event.Directory with a Redis read-through cache.
// Event facts (dates, ownership, approval) change rarely but are consulted on
// every registration and result write, so a short TTL keeps lookups cheap
// without risking stale approvals for long.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bloodlink/internal/event"
	"bloodlink/pkg/domain"
)

const keyPrefix = "event:"

// Directory is the caching decorator.
type Directory struct {
	next   event.Directory
	client *redis.Client
	ttl    time.Duration
}

func New(next event.Directory, client *redis.Client, ttl time.Duration) *Directory {
	return &Directory{next: next, client: client, ttl: ttl}
}

// Lookup serves from Redis when possible and falls through to the wrapped
// directory otherwise. Cache failures degrade to direct lookups; they are
// never surfaced to the caller.
func (d *Directory) Lookup(ctx context.Context, id domain.EventID) (*event.Event, error) {
	key := keyPrefix + id.String()

	cached, err := d.client.Get(ctx, key).Bytes()
	if err == nil {
		var e event.Event
		if unmarshalErr := json.Unmarshal(cached, &e); unmarshalErr == nil {
			return &e, nil
		}
		// Corrupt entry; drop it and fall through.
		d.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		// Redis unavailable; fall through to the source directory.
		e, lookupErr := d.next.Lookup(ctx, id)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return e, nil
	}

	e, err := d.next.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event for cache: %w", err)
	}
	// Best effort; a failed SET only costs the next lookup.
	d.client.Set(ctx, key, payload, d.ttl)

	return e, nil
}
