package logic

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/footyodds/stats-api/internal/models"
)

// RedisFeatureCache stores team features as JSON with a TTL. Cache errors are
// logged and treated as misses.
type RedisFeatureCache struct {
	redis  RedisClient
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewRedisFeatureCache(client RedisClient, ttl time.Duration, logger *zap.Logger) *RedisFeatureCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisFeatureCache{redis: client, ttl: ttl, logger: logger.Sugar()}
}

func (c *RedisFeatureCache) Get(ctx context.Context, key string) (*models.TeamFeatures, bool) {
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warnw("Feature cache read failed", "key", key, "error", err)
		}
		featureCacheMisses.Inc()
		return nil, false
	}

	var f models.TeamFeatures
	if err := json.Unmarshal(raw, &f); err != nil {
		c.logger.Warnw("Discarding corrupt feature cache entry", "key", key, "error", err)
		featureCacheMisses.Inc()
		return nil, false
	}
	featureCacheHits.Inc()
	return &f, true
}

func (c *RedisFeatureCache) Set(ctx context.Context, key string, features *models.TeamFeatures) {
	raw, err := json.Marshal(features)
	if err != nil {
		c.logger.Warnw("Failed to encode team features", "key", key, "error", err)
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warnw("Feature cache write failed", "key", key, "error", err)
	}
}
