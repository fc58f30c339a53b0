package cache_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cricketxpert/checkout-service/internal/cache"
	"github.com/cricketxpert/checkout-service/internal/config"
	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (cache.Cache, redismock.ClientMock, *config.CacheConfig) {
	t.Helper()

	client, mock := redismock.NewClientMock()
	cfg := &config.CacheConfig{
		DefaultTTL: 10 * time.Minute,
	}

	return cache.NewRedisCache(client, cfg), mock, cfg
}

func testCart() models.Cart {
	return models.Cart{
		CustomerID: uuid.MustParse("8f14e45f-ceea-467f-a0e6-2b6f6b2f9a11"),
		Lines:      []models.CartLine{{ProductID: uuid.MustParse("c9f0f895-fb98-4ab3-a2d5-9f1b5c3a6e21"), Quantity: 2}},
		Address:    "12 Galle Road, Colombo",
	}
}

func TestGet(t *testing.T) {
	ctx := t.Context()
	key := cache.Key(cache.CartKeyPrefix, "c1")
	value := testCart()
	jsonData, err := json.Marshal(value)
	require.NoError(t, err)

	t.Run("Success - Key Found", func(t *testing.T) {
		// Arrange
		redisCache, mock, _ := setup(t)

		var result models.Cart

		mock.ExpectGet(key).SetVal(string(jsonData))

		// Act
		found, err := redisCache.Get(ctx, key, &result)

		// Assert
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, value.Lines, result.Lines)
		assert.Equal(t, value.Address, result.Address)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - Cache Miss", func(t *testing.T) {
		// Arrange
		redisCache, mock, _ := setup(t)

		var result models.Cart

		mock.ExpectGet(key).SetErr(redis.Nil)

		// Act
		found, err := redisCache.Get(ctx, key, &result)

		// Assert
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, result.Lines)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Redis Error", func(t *testing.T) {
		// Arrange
		redisCache, mock, _ := setup(t)

		var result models.Cart

		expectedErr := errors.New("redis connection error")

		mock.ExpectGet(key).SetErr(expectedErr)

		// Act
		found, err := redisCache.Get(ctx, key, &result)

		// Assert
		require.Error(t, err)
		assert.False(t, found)
		assert.ErrorIs(t, err, expectedErr)
		assert.Contains(t, err.Error(), fmt.Sprintf("failed to get key %s from redis", key))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Unmarshal Error", func(t *testing.T) {
		// Arrange
		redisCache, mock, _ := setup(t)

		var result models.Cart

		mock.ExpectGet(key).SetVal(`{"lines": "not_a_list"}`)

		// Act
		found, err := redisCache.Get(ctx, key, &result)

		// Assert
		require.Error(t, err)
		assert.False(t, found)

		var jsonErr *json.UnmarshalTypeError

		assert.ErrorAs(t, err, &jsonErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSet(t *testing.T) {
	ctx := t.Context()
	key := cache.Key(cache.CartKeyPrefix, "c1")
	value := testCart()
	jsonData, err := json.Marshal(value)
	require.NoError(t, err)

	t.Run("Success - With Specific TTL", func(t *testing.T) {
		redisCache, mock, _ := setup(t)
		ttl := 720 * time.Hour

		mock.ExpectSet(key, jsonData, ttl).SetVal("OK")

		err := redisCache.Set(ctx, key, value, ttl)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - Default TTL", func(t *testing.T) {
		redisCache, mock, cfg := setup(t)

		mock.ExpectSet(key, jsonData, cfg.DefaultTTL).SetVal("OK")

		err := redisCache.Set(ctx, key, value, 0)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Marshal Error", func(t *testing.T) {
		redisCache, mock, _ := setup(t)

		err := redisCache.Set(ctx, key, make(chan int), time.Minute)

		require.Error(t, err)

		var jsonErr *json.UnsupportedTypeError

		assert.ErrorAs(t, err, &jsonErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Redis Error", func(t *testing.T) {
		redisCache, mock, _ := setup(t)
		expectedErr := errors.New("redis SET failed")

		mock.ExpectSet(key, jsonData, time.Minute).SetErr(expectedErr)

		err := redisCache.Set(ctx, key, value, time.Minute)

		require.Error(t, err)
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDelete(t *testing.T) {
	ctx := t.Context()
	key := cache.Key(cache.ProductKeyPrefix, "p1")

	t.Run("Success", func(t *testing.T) {
		redisCache, mock, _ := setup(t)

		mock.ExpectDel(key).SetVal(1)

		require.NoError(t, redisCache.Delete(ctx, key))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - Missing Key", func(t *testing.T) {
		redisCache, mock, _ := setup(t)

		mock.ExpectDel(key).SetVal(0)

		require.NoError(t, redisCache.Delete(ctx, key))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Redis Error", func(t *testing.T) {
		redisCache, mock, _ := setup(t)
		expectedErr := errors.New("redis DEL failed")

		mock.ExpectDel(key).SetErr(expectedErr)

		err := redisCache.Delete(ctx, key)

		require.Error(t, err)
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRoundTripWithMiniredis(t *testing.T) {
	// Arrange
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	redisCache := cache.NewRedisCache(client, &config.CacheConfig{DefaultTTL: time.Minute})
	key := cache.Key(cache.CartKeyPrefix, "c1")
	value := testCart()

	// Act
	require.NoError(t, redisCache.Set(t.Context(), key, value, time.Hour))

	var got models.Cart
	found, err := redisCache.Get(t.Context(), key, &got)

	// Assert
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, value.CustomerID, got.CustomerID)
	assert.Equal(t, value.Lines, got.Lines)
	assert.Equal(t, time.Hour, srv.TTL(key))

	srv.FastForward(2 * time.Hour)

	found, err = redisCache.Get(t.Context(), key, &got)
	require.NoError(t, err)
	assert.False(t, found, "expired carts read as a miss")
}

func TestKey(t *testing.T) {
	assert.Equal(t, "cart:123e4567-e89b-12d3-a456-426614174000", cache.Key(cache.CartKeyPrefix, "123e4567-e89b-12d3-a456-426614174000"))
	assert.Equal(t, "product:abc", cache.Key(cache.ProductKeyPrefix, "abc"))
	assert.Equal(t, "prefix:", cache.Key("prefix", ""))
}
