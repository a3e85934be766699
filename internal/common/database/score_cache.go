// internal/common/database/score_cache.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const latestScoreKeyPrefix = "yecs:score:latest:"

// ScoreCache keeps the latest score of each user in Redis as JSON.
type ScoreCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewScoreCache accepts any redis.Cmdable so tests can use redismock.
func NewScoreCache(client redis.Cmdable, ttl time.Duration) *ScoreCache {
	return &ScoreCache{client: client, ttl: ttl}
}

// LatestScoreKey returns the cache key of userID's latest score.
func LatestScoreKey(userID string) string {
	return latestScoreKeyPrefix + userID
}

// SetLatest stores s as the latest score of its user.
func (c *ScoreCache) SetLatest(ctx context.Context, s *StoredScore) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode cached score: %w", err)
	}
	if err := c.client.Set(ctx, LatestScoreKey(s.UserID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache latest score: %w", err)
	}
	return nil
}

// GetLatest returns the cached latest score of userID. A miss returns
// (nil, false, nil).
func (c *ScoreCache) GetLatest(ctx context.Context, userID string) (*StoredScore, bool, error) {
	val, err := c.client.Get(ctx, LatestScoreKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached score: %w", err)
	}

	var s StoredScore
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, false, fmt.Errorf("decode cached score: %w", err)
	}
	return &s, true, nil
}
