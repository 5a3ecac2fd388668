// Package cache caches derived feature columns in Redis so repeated
// derivations of the same panel and parameters are served without
// recomputation. Safe because columns are pure functions of an immutable
// panel: a hit is always bit-identical to a fresh computation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/courtsignal/panel-api/internal/panel"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "panelapi_feature_cache_hits_total",
		Help: "Total feature cache hits",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "panelapi_feature_cache_misses_total",
		Help: "Total feature cache misses, including degraded backend reads",
	})
)

// RedisClient narrows *redis.Client for testing.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type FeatureCache struct {
	client RedisClient
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewFeatureCache(client RedisClient, ttl time.Duration, logger *zap.SugaredLogger) *FeatureCache {
	return &FeatureCache{client: client, ttl: ttl, logger: logger}
}

func key(panelID, signature string) string {
	return fmt.Sprintf("panel:%s:col:%s", panelID, signature)
}

// Get returns the cached column for (panelID, signature), or false on miss.
// Cache failures degrade to a miss; the caller recomputes.
func (c *FeatureCache) Get(ctx context.Context, panelID, signature string) (*panel.Column, bool) {
	raw, err := c.client.Get(ctx, key(panelID, signature)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warnw("Feature cache read failed", "panel_id", panelID, "signature", signature, "error", err)
		}
		cacheMisses.Inc()
		return nil, false
	}

	var col panel.Column
	if err := json.Unmarshal([]byte(raw), &col); err != nil {
		c.logger.Warnw("Feature cache entry corrupt", "panel_id", panelID, "signature", signature, "error", err)
		cacheMisses.Inc()
		return nil, false
	}
	cacheHits.Inc()
	return &col, true
}

// Put stores a derived column. Failures are logged and ignored; the cache is
// an optimization, never a source of truth.
func (c *FeatureCache) Put(ctx context.Context, panelID, signature string, col *panel.Column) {
	raw, err := json.Marshal(col)
	if err != nil {
		c.logger.Warnw("Feature cache marshal failed", "panel_id", panelID, "signature", signature, "error", err)
		return
	}
	if err := c.client.Set(ctx, key(panelID, signature), raw, c.ttl).Err(); err != nil {
		c.logger.Warnw("Feature cache write failed", "panel_id", panelID, "signature", signature, "error", err)
	}
}
