package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"user_api/internal/config"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

func NewRedisClient(redisCfg *config.RedisConfig) (*redis.Client, error) {
	db, err := strconv.Atoi(redisCfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis DB number %q: %w", redisCfg.RedisDB, err)
	}

	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", redisCfg.Host, redisCfg.Port),
		Password: redisCfg.RedisPassword,
		DB:       db,
	}), nil
}

// SetupRedis connects and pings, exiting the process when Redis is unreachable.
func SetupRedis(redisCfg *config.RedisConfig) *redis.Client {
	rdb, err := NewRedisClient(redisCfg)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid Redis configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to Redis")
	}

	logrus.WithField("addr", rdb.Options().Addr).Info("Redis connection established successfully")
	return rdb
}
