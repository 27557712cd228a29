package database

import (
	"context"
	"time"

	"github.com/AnshRaj112/thoughtify-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// ConnectRedis connects to Redis database
func ConnectRedis(ctx context.Context, redisURI string, log *logger.Logger) error {
	opt, err := redis.ParseURL(redisURI)
	if err != nil {
		return err
	}

	// Connection pool and timeouts
	opt.PoolSize = 10
	opt.MinIdleConns = 5
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return err
	}

	RedisClient = client
	log.Info("connected to Redis", "addr", opt.Addr, "db", opt.DB)
	return nil
}

// DisconnectRedis closes the Redis connection
func DisconnectRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}
