package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/swipe-trader/internal/models"
)

const trendingCacheKey = "tokens:trending"

// TokenCache stores trending-token snapshots in Redis with a TTL so the
// discovery provider is not hit on every request.
type TokenCache struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewTokenCache creates a new token cache
func NewTokenCache(cache *RedisCache, ttl time.Duration) *TokenCache {
	return &TokenCache{cache: cache, ttl: ttl}
}

// SetTrending stores the trending snapshot
func (c *TokenCache) SetTrending(ctx context.Context, tokens []models.Token) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, trendingCacheKey, data, c.ttl)
}

// GetTrending returns the cached trending snapshot, or (nil, nil) on a
// cache miss.
func (c *TokenCache) GetTrending(ctx context.Context) ([]models.Token, error) {
	data, err := c.cache.Get(ctx, trendingCacheKey)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var tokens []models.Token
	if err := json.Unmarshal([]byte(data), &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// InvalidateTrending drops the cached snapshot
func (c *TokenCache) InvalidateTrending(ctx context.Context) error {
	return c.cache.Del(ctx, trendingCacheKey)
}
