// Package mongox is the Mongo connection hub backing the Ledger metadata
// side-store, adapted from the common/mmongo package.
package mongox

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/corebooks/core/internal/platform/logging"
)

// Connection is a singleton hub for one Mongo client.
type Connection struct {
	ConnectionStringSource string
	Database               string
	Logger                 logging.Logger

	client *mongo.Client
}

// Connect dials and pings Mongo.
func (c *Connection) Connect(ctx context.Context) error {
	if c.Logger == nil {
		c.Logger = logging.NewNoop()
	}

	c.Logger.Info("connecting to mongodb...")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.ConnectionStringSource))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}

	c.client = client

	c.Logger.Info("connected to mongodb")

	return nil
}

// GetDB returns the database handle, connecting lazily if necessary.
func (c *Connection) GetDB(ctx context.Context) (*mongo.Database, error) {
	if c.client == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.client.Database(c.Database), nil
}
