package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheSetAndGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "rate:USD:EUR", []byte(`{"rate":"0.92"}`), time.Minute))

	val, err := cache.Get(ctx, "rate:USD:EUR")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"rate":"0.92"}`), val)
}

func TestCacheGetMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	val, err := cache.Get(context.Background(), "rate:USD:JPY")
	require.NoError(t, err, "a miss is not an error")
	require.Nil(t, val)
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "rate:EUR:GBP", []byte("stale"), time.Second))

	mr.FastForward(2 * time.Second)

	val, err := cache.Get(ctx, "rate:EUR:GBP")
	require.NoError(t, err)
	require.Nil(t, val, "expired key should read as a miss")
}

func TestCacheDelete(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "rate:USD:EUR", []byte("0.92"), time.Minute))
	require.NoError(t, cache.Delete(ctx, "rate:USD:EUR"))

	val, err := cache.Get(ctx, "rate:USD:EUR")
	require.NoError(t, err)
	require.Nil(t, val)

	require.NoError(t, cache.Delete(ctx, "rate:USD:EUR"), "deleting an absent key should not fail")
}
