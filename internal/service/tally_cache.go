package service

import (
	"context"
	"encoding/json"

	"amendvote-be/internal/domain"
	"amendvote-be/pkg/logger"
	"amendvote-be/pkg/redis"
)

// RedisTallyCache caches public tallies with a short TTL so tally reads stay
// cheap without aggregating or even hitting the amendments table on every
// request. The counters it serves may lag writes by up to the TTL.
type RedisTallyCache struct {
	redis *redis.Client
	log   *logger.Logger
}

// NewRedisTallyCache creates a Redis-backed TallyCache.
func NewRedisTallyCache(redisClient *redis.Client, log *logger.Logger) *RedisTallyCache {
	return &RedisTallyCache{redis: redisClient, log: log}
}

func (c *RedisTallyCache) GetPublicTally(ctx context.Context, amendmentID int64) (*domain.PublicTally, bool) {
	payload, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyPublicTally(amendmentID))
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Debug("tally cache read failed")
		}
		return nil, false
	}

	var tally domain.PublicTally
	if err := json.Unmarshal([]byte(payload), &tally); err != nil {
		return nil, false
	}

	return &tally, true
}

func (c *RedisTallyCache) SetPublicTally(ctx context.Context, amendmentID int64, tally *domain.PublicTally) {
	payload, err := json.Marshal(tally)
	if err != nil {
		return
	}

	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyPublicTally(amendmentID), payload, redis.TTLPublicTally); err != nil {
		c.log.WithError(err).Debug("tally cache write failed")
	}
}

func (c *RedisTallyCache) Invalidate(ctx context.Context, amendmentID int64) {
	_, err := c.redis.Delete(ctx,
		c.redis.KeyBuilder.KeyPublicTally(amendmentID),
		c.redis.KeyBuilder.KeyAmendmentList(),
	)
	if err != nil {
		c.log.WithError(err).Debug("tally cache invalidation failed")
	}
}
