package cache

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user_api/internal/config"
)

// setupTestRedis needs Redis on localhost:6379; the test is skipped otherwise.
func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping test")
	}
	client.FlushDB(ctx)

	return client
}

func TestUserKey(t *testing.T) {
	assert.Equal(t, "user:42", UserKey("42"))
	assert.Equal(t, "user:", UserKey(""))
}

func TestNewRedisClient_InvalidDB(t *testing.T) {
	client, err := NewRedisClient(&config.RedisConfig{Host: "localhost", Port: "6379", RedisDB: "zero"})

	assert.Nil(t, client)
	assert.Error(t, err)
}

func TestUserCache_SetGetDelete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	c := NewUserCache(client)
	ctx := context.Background()

	miss, err := c.Get(ctx, UserKey("u1"))
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, c.Set(ctx, UserKey("u1"), map[string]string{"id": "u1"}))

	hit, err := c.Get(ctx, UserKey("u1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1"}`, string(hit))

	require.NoError(t, c.Delete(ctx, UserKey("u1"), AllUsersKey))

	gone, err := c.Get(ctx, UserKey("u1"))
	require.NoError(t, err)
	assert.Nil(t, gone)
}
