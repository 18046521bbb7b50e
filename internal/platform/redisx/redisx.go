// Package redisx is the Redis connection hub backing Auth's refresh-session
// cache, adapted from the common/mredis connection-hub shape.
package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/corebooks/core/internal/platform/logging"
)

// Connection is a singleton hub for one Redis client.
type Connection struct {
	ConnectionStringSource string
	Logger                 logging.Logger

	client *redis.Client
}

// Connect dials and pings Redis.
func (c *Connection) Connect(ctx context.Context) error {
	if c.Logger == nil {
		c.Logger = logging.NewNoop()
	}

	c.Logger.Info("connecting to redis...")

	opts, err := redis.ParseURL(c.ConnectionStringSource)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	c.client = client

	c.Logger.Info("connected to redis")

	return nil
}

// GetClient returns the client, connecting lazily if necessary.
func (c *Connection) GetClient(ctx context.Context) (*redis.Client, error) {
	if c.client == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.client, nil
}
