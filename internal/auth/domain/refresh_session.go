package domain

import "time"

// RefreshSession is one issued refresh token, tracked so it can be revoked
// individually (logout) or en masse (password change invalidates all of a
// user's sessions).
type RefreshSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
