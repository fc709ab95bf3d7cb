package db

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/tradejournal/brokergate/internal/config"
)

// ConnectRedis establishes a connection to Redis, used for the last-value
// quote cache. Redis is optional; callers tolerate a nil client.
func ConnectRedis(config config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	ctx := context.Background()

	// Test the connection
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	return client, nil
}
