package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user_api/internal/auth"
)

// setupTestRedis creates a Redis client for testing
// Make sure Redis is running on localhost:6379
func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     "localhost:6379",
		Password: "",
		DB:       1, // Use DB 1 for tests (not default DB 0)
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis not available, skipping test")
	}

	client.FlushDB(ctx)

	return client
}

// setupTestRouter creates a test Gin router with a per-user rate limiter
func setupTestRouter(redisClient *redis.Client, config *RateLimiterConfig, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Mock JWT middleware - sets userID in context
	router.Use(func(c *gin.Context) {
		c.Set(auth.UserIDKey, userID)
		c.Next()
	})

	router.Use(RateLimiterMiddleware(redisClient, config, ByUserID))

	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	return router
}

func doGet(router *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowRequestsUnderLimit(t *testing.T) {
	redisClient := setupTestRedis(t)
	defer redisClient.Close()

	router := setupTestRouter(redisClient, &RateLimiterConfig{Capacity: 5, RefillRate: 10.0}, "u-1")

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doGet(router).Code, "Request %d should succeed", i+1)
	}
}

func TestRateLimiter_DenyRequestsOverLimit(t *testing.T) {
	redisClient := setupTestRedis(t)
	defer redisClient.Close()

	router := setupTestRouter(redisClient, &RateLimiterConfig{Capacity: 3, RefillRate: 0.5}, "u-1")

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doGet(router).Code, "Request %d should succeed", i+1)
	}

	w := doGet(router)
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "Request should be rate limited")
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	redisClient := setupTestRedis(t)
	defer redisClient.Close()

	// 2 tokens per second = 1 token per 0.5 seconds
	router := setupTestRouter(redisClient, &RateLimiterConfig{Capacity: 2, RefillRate: 2.0}, "u-1")

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, doGet(router).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, doGet(router).Code)

	time.Sleep(1 * time.Second)

	assert.Equal(t, http.StatusOK, doGet(router).Code, "Request should succeed after token refill")
}

func TestRateLimiter_DifferentUsers(t *testing.T) {
	redisClient := setupTestRedis(t)
	defer redisClient.Close()

	config := &RateLimiterConfig{Capacity: 2, RefillRate: 0.5}
	router1 := setupTestRouter(redisClient, config, "u-1")
	router2 := setupTestRouter(redisClient, config, "u-2")

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, doGet(router1).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, doGet(router1).Code)

	assert.Equal(t, http.StatusOK, doGet(router2).Code, "User 2 should not be affected by User 1's rate limit")
}

func TestRateLimiter_ByClientIP(t *testing.T) {
	redisClient := setupTestRedis(t)
	defer redisClient.Close()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/signIn", RateLimiterMiddleware(redisClient, &RateLimiterConfig{Capacity: 1, RefillRate: 0.1}, ByClientIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(ip string) int {
		req := httptest.NewRequest("POST", "/signIn", nil)
		req.RemoteAddr = ip + ":5555"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestRateLimiter_NoUserIDInContext(t *testing.T) {
	// the key func rejects before Redis is touched
	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:9999"})
	defer redisClient.Close()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimiterMiddleware(redisClient, SignInRateLimiter(), ByUserID))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	w := doGet(router)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "user_id not found in context")
}

func TestRateLimiter_RedisFailure_FailOpen(t *testing.T) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:        "localhost:9999", // Non-existent Redis
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer redisClient.Close()

	router := setupTestRouter(redisClient, &RateLimiterConfig{Capacity: 1, RefillRate: 0.1}, "u-1")

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doGet(router).Code, "Request %d should pass when Redis is down", i+1)
	}
}

func TestRateLimiterKeys(t *testing.T) {
	assert.Equal(t, "rate_limiter:user:u-1", UserRateLimiterKey("u-1"))
	assert.Equal(t, "rate_limiter:ip:127.0.0.1", ClientRateLimiterKey("127.0.0.1"))
}

func TestRateLimiterPresets(t *testing.T) {
	signIn := SignInRateLimiter()
	require.NotNil(t, signIn)
	assert.Equal(t, 5, signIn.Capacity)
	assert.Equal(t, 0.1, signIn.RefillRate)

	generous := GenerousRateLimiter()
	require.NotNil(t, generous)
	assert.Equal(t, 100, generous.Capacity)
	assert.Equal(t, 50.0, generous.RefillRate)
}
