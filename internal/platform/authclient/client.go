// Package authclient is the HTTP client every non-Auth service uses to
// re-verify a bearer token against Auth's /profile endpoint: a service must
// never trust a JWT's claims on their own, only what Auth currently says
// about the bearer.
package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Profile is Auth's view of the caller behind a bearer token.
type Profile struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Active      bool     `json:"active"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Client talks to Auth's /profile endpoint over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New builds a Client with a conservative default timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// ErrUnauthorized is returned when Auth rejects the bearer token outright.
var ErrUnauthorized = fmt.Errorf("auth: token rejected")

// Profile fetches the caller's current profile for the given bearer token.
func (c *Client) Profile(ctx context.Context, bearerToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/v1/profile", nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call auth profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("auth profile returned %d: %s", resp.StatusCode, string(body))
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode auth profile: %w", err)
	}

	return &p, nil
}
