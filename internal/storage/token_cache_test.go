package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swipe-trader/internal/models"
)

// newTestTokenCache creates a TokenCache backed by a test Redis instance.
func newTestTokenCache(t *testing.T, ttl time.Duration) (*TokenCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewTokenCache(NewRedisCacheWithClient(client), ttl), mr
}

func TestTokenCache_SetGetTrending(t *testing.T) {
	cache, _ := newTestTokenCache(t, time.Minute)
	ctx := context.Background()

	tokens := []models.Token{
		{Address: "mint-1", Symbol: "AAA", Price: 1.5},
		{Address: "mint-2", Symbol: "BBB", Price: 0.003},
	}

	require.NoError(t, cache.SetTrending(ctx, tokens))

	got, err := cache.GetTrending(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "mint-1", got[0].Address)
	assert.Equal(t, 0.003, got[1].Price)
}

func TestTokenCache_MissReturnsNil(t *testing.T) {
	cache, _ := newTestTokenCache(t, time.Minute)

	got, err := cache.GetTrending(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTokenCache_TTLExpiry(t *testing.T) {
	cache, mr := newTestTokenCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetTrending(ctx, []models.Token{{Address: "mint-1"}}))

	mr.FastForward(2 * time.Minute)

	got, err := cache.GetTrending(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "expired snapshot should read as a miss")
}

func TestTokenCache_Invalidate(t *testing.T) {
	cache, _ := newTestTokenCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetTrending(ctx, []models.Token{{Address: "mint-1"}}))
	require.NoError(t, cache.InvalidateTrending(ctx))

	got, err := cache.GetTrending(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
