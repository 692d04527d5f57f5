package middleware

import (
	_ "embed"
	"fmt"
	"net/http"
	"time"
	"user_api/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

//go:embed rate_limiter.lua
var luaScript string

// tokenBucket runs via EVALSHA and falls back to EVAL when the script is not
// cached on the server yet.
var tokenBucket = redis.NewScript(luaScript)

// RateLimiterConfig holds rate limiter configuration
type RateLimiterConfig struct {
	Capacity   int     // Maximum number of tokens (max requests)
	RefillRate float64 // Tokens refilled per second
}

// KeyFunc derives the bucket key for a request. ok=false rejects the request.
type KeyFunc func(c *gin.Context) (key string, ok bool)

// ByUserID buckets authenticated requests per user. It must run after
// AuthMiddleware.
func ByUserID(c *gin.Context) (string, bool) {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return "", false
	}
	return UserRateLimiterKey(userID), true
}

// ByClientIP buckets anonymous requests per client address.
func ByClientIP(c *gin.Context) (string, bool) {
	return ClientRateLimiterKey(c.ClientIP()), true
}

// RateLimiterMiddleware implements Token Bucket algorithm using Redis + Lua script
func RateLimiterMiddleware(redisClient *redis.Client, config *RateLimiterConfig, keyFunc KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := keyFunc(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized - user_id not found in context",
			})
			return
		}

		now := time.Now().UnixMilli()

		allowed, err := tokenBucket.Run(c.Request.Context(), redisClient, []string{key},
			config.Capacity,
			config.RefillRate,
			now,
		).Int64()

		if err != nil {
			logrus.WithError(err).WithField("key", key).Error("Failed to execute rate limiter Lua script")
			// Fail open: allow request if Redis fails
			c.Next()
			return
		}

		if allowed == 0 {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"message":     fmt.Sprintf("Maximum %g requests per second allowed", config.RefillRate),
				"retry_after": fmt.Sprintf("%.1f seconds", 1.0/config.RefillRate),
			})
			return
		}

		c.Next()
	}
}

func UserRateLimiterKey(userID string) string {
	return fmt.Sprintf("rate_limiter:user:%s", userID)
}

func ClientRateLimiterKey(ip string) string {
	return fmt.Sprintf("rate_limiter:ip:%s", ip)
}
