package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a cached value is absent or expired.
var ErrMiss = errors.New("cache miss")

// ResultCache stores finished generation run payloads keyed by run ID so
// asynchronous institution-wide runs can be polled after completion.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewResultCache builds a result cache with the given TTL.
func NewResultCache(client *redis.Client, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResultCache{client: client, ttl: ttl, prefix: "timetable:run:"}
}

// Put serialises the value and stores it under the run ID.
func (c *ResultCache) Put(ctx context.Context, runID string, value any) error {
	if c.client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached run: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+runID, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("store cached run: %w", err)
	}
	return nil
}

// Get decodes a cached run payload into out. Returns ErrMiss when absent.
func (c *ResultCache) Get(ctx context.Context, runID string, out any) error {
	if c.client == nil {
		return ErrMiss
	}
	payload, err := c.client.Get(ctx, c.prefix+runID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return fmt.Errorf("load cached run: %w", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode cached run: %w", err)
	}
	return nil
}
