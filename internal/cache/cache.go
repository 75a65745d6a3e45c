// Package cache keeps recent ship statistics responses so repeated fleet
// assemblies do not hit the backend for the same window.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sailboard/dashboard/pkg/core"
)

// KeyPrefix namespaces every cache key.
const KeyPrefix = "sailboard:stats"

// Store is a byte cache with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Source fetches the raw statistics of one ship.
type Source interface {
	ShipStatistics(ctx context.Context, imo string, window core.TimeWindow) (*core.StatisticsResponse, error)
}

// CachedSource serves statistics from a Store before asking the wrapped Source.
// Store failures are logged and treated as misses; errors from the source
// are never cached.
type CachedSource struct {
	source Source
	store  Store
	ttl    time.Duration
	logger *slog.Logger

	Hits   SafeCounter
	Misses SafeCounter
}

// NewCachedSource wraps source with store.
func NewCachedSource(source Source, store Store, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{source: source, store: store, ttl: ttl, logger: logger}
}

// Key builds the cache key of one ship window.
func Key(imo string, window core.TimeWindow) string {
	return fmt.Sprintf("%s:%s:%d:%d", KeyPrefix, imo, window.Start, window.End)
}

// ShipStatistics implements Source.
func (c *CachedSource) ShipStatistics(ctx context.Context, imo string, window core.TimeWindow) (*core.StatisticsResponse, error) {
	key := Key(imo, window)

	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Statistics cache read failed", "key", key, "error", err)
	}
	if ok {
		var resp core.StatisticsResponse
		if err := json.Unmarshal(data, &resp); err == nil {
			c.Hits.Inc()
			return &resp, nil
		}
		c.logger.Warn("Discarding undecodable cache entry", "key", key)
	}
	c.Misses.Inc()

	resp, err := c.source.ShipStatistics(ctx, imo, window)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		return resp, nil
	}
	if err := c.store.Set(ctx, key, encoded, c.ttl); err != nil {
		c.logger.Warn("Statistics cache write failed", "key", key, "error", err)
	}
	return resp, nil
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
