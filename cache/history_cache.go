package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"MagicLists/db"
	"MagicLists/logger"
	"MagicLists/model"

	"github.com/redis/go-redis/v9"
)

// HistoryFetcher is the upstream capability being cached.
type HistoryFetcher interface {
	FetchPlayHistory(ctx context.Context, windowDays int) ([]model.PlayEvent, error)
}

// CachedHistory caches listening-history fetches in Redis so repeated
// curation runs inside the analysis window don't hammer the Subsonic API.
// Degrades to a pass-through when Redis is unavailable.
type CachedHistory struct {
	inner HistoryFetcher
	ttl   time.Duration
}

// NewCachedHistory wraps a history fetcher with a Redis cache.
func NewCachedHistory(inner HistoryFetcher, ttl time.Duration) *CachedHistory {
	return &CachedHistory{inner: inner, ttl: ttl}
}

// historyKey builds the Redis key for a history window.
func historyKey(windowDays int) string {
	return fmt.Sprintf("history:window:%d", windowDays)
}

// FetchPlayHistory returns cached history when fresh, otherwise fetches
// from the upstream provider and stores the result.
func (c *CachedHistory) FetchPlayHistory(ctx context.Context, windowDays int) ([]model.PlayEvent, error) {
	key := historyKey(windowDays)

	if db.RedisClient != nil {
		data, err := db.RedisClient.Get(ctx, key).Bytes()
		if err == nil {
			var events []model.PlayEvent
			if err := json.Unmarshal(data, &events); err == nil {
				logger.Debug("Listening history cache hit",
					logger.String("key", key),
					logger.Int("events", len(events)))
				return events, nil
			}
			// Corrupt entry; drop it and refetch.
			db.RedisClient.Del(ctx, key)
		} else if err != redis.Nil {
			logger.Warn("History cache read failed", logger.ErrorField(err))
		}
	}

	events, err := c.inner.FetchPlayHistory(ctx, windowDays)
	if err != nil {
		return nil, err
	}

	if db.RedisClient != nil && len(events) > 0 {
		data, err := json.Marshal(events)
		if err == nil {
			if err := db.RedisClient.Set(ctx, key, data, c.ttl).Err(); err != nil {
				logger.Warn("History cache write failed", logger.ErrorField(err))
			}
		}
	}

	return events, nil
}

// InvalidateHistory drops all cached history windows.
func InvalidateHistory(ctx context.Context) error {
	if db.RedisClient == nil {
		return nil
	}
	iter := db.RedisClient.Scan(ctx, 0, "history:window:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := db.RedisClient.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cached history %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}
