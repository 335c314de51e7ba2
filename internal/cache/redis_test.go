package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and a client pointing to it
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client, mr
}

func TestDiscountTokens_IssueClaim(t *testing.T) {
	client, mr := setupTestRedis(t)
	tokens := cache.NewDiscountTokens(client)
	ctx := t.Context()
	userID := uuid.New()

	require.NoError(t, tokens.Issue(ctx, userID, decimal.NewFromInt(10), time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("user:"+userID.String()+":abandoned_cart_discount"))

	token, ok, err := tokens.Claim(ctx, userID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(10).Equal(token.Percent))
	assert.Equal(t, userID, token.UserID)
	assert.Greater(t, token.TTL, time.Duration(0))

	// one-time: the second claim finds nothing
	_, ok, err = tokens.Claim(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiscountTokens_ConcurrentClaim(t *testing.T) {
	client, _ := setupTestRedis(t)
	tokens := cache.NewDiscountTokens(client)
	ctx := t.Context()
	userID := uuid.New()

	require.NoError(t, tokens.Issue(ctx, userID, decimal.NewFromInt(10), time.Hour))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := tokens.Claim(ctx, userID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, claimed)
}

func TestDiscountTokens_Restore(t *testing.T) {
	client, mr := setupTestRedis(t)
	tokens := cache.NewDiscountTokens(client)
	ctx := t.Context()
	userID := uuid.New()

	require.NoError(t, tokens.Issue(ctx, userID, decimal.NewFromInt(15), time.Hour))

	token, ok, err := tokens.Claim(ctx, userID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, tokens.Restore(ctx, token))

	key := "user:" + userID.String() + ":abandoned_cart_discount"
	value, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "15", value)
	assert.Greater(t, mr.TTL(key), time.Duration(0))

	// a newer token is not overwritten
	require.NoError(t, tokens.Issue(ctx, userID, decimal.NewFromInt(20), time.Hour))
	require.NoError(t, tokens.Restore(ctx, token))

	value, err = mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "20", value)
}

func TestDiscountTokens_Expired(t *testing.T) {
	client, mr := setupTestRedis(t)
	tokens := cache.NewDiscountTokens(client)
	ctx := t.Context()
	userID := uuid.New()

	require.NoError(t, tokens.Issue(ctx, userID, decimal.NewFromInt(10), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, ok, err := tokens.Claim(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNotificationMarks(t *testing.T) {
	client, mr := setupTestRedis(t)
	marks := cache.NewNotificationMarks(client)
	ctx := t.Context()
	userID := uuid.New()

	exists, err := marks.Exists(ctx, userID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, marks.Set(ctx, userID, time.Hour))

	exists, err = marks.Exists(ctx, userID)
	require.NoError(t, err)
	assert.True(t, exists)

	mr.FastForward(time.Hour + time.Second)

	exists, err = marks.Exists(ctx, userID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisUnavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	marks := cache.NewNotificationMarks(client)
	mr.Close()

	_, err := marks.Exists(t.Context(), uuid.New())
	assert.Error(t, err)
}
