// Package redis caches Auth's hot refresh-session lookups, adapted from the
// teacher's common/mredis connection-hub usage pattern.
package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/corebooks/core/internal/auth/domain"
	"github.com/corebooks/core/internal/platform/redisx"
)

// SessionCache fronts RefreshSessionRepository lookups with a short-lived
// Redis cache, so a /refresh call can skip the Postgres session lookup.
type SessionCache struct {
	conn *redisx.Connection
	ttl  time.Duration
}

// NewSessionCache builds a SessionCache backed by conn.
func NewSessionCache(conn *redisx.Connection, ttl time.Duration) *SessionCache {
	return &SessionCache{conn: conn, ttl: ttl}
}

func key(sessionID string) string { return "auth:session:" + sessionID }

// Get returns the cached session, or (nil, nil) on a cache miss.
func (c *SessionCache) Get(ctx context.Context, sessionID string) (*domain.RefreshSession, error) {
	client, err := c.conn.GetClient(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := client.Get(ctx, key(sessionID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}

		return nil, err
	}

	var s domain.RefreshSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}

	return &s, nil
}

// Set caches s until its expiry, capped at ttl.
func (c *SessionCache) Set(ctx context.Context, s *domain.RefreshSession) error {
	client, err := c.conn.GetClient(ctx)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	ttl := c.ttl
	if remaining := time.Until(s.ExpiresAt); remaining < ttl {
		ttl = remaining
	}

	if ttl <= 0 {
		return nil
	}

	return client.Set(ctx, key(s.ID), raw, ttl).Err()
}

// Invalidate removes a cached session (on logout or revocation).
func (c *SessionCache) Invalidate(ctx context.Context, sessionID string) error {
	client, err := c.conn.GetClient(ctx)
	if err != nil {
		return err
	}

	return client.Del(ctx, key(sessionID)).Err()
}
