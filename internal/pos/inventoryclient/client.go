// Package inventoryclient is the HTTP client POS uses to decrement and
// restore stock against the Inventory service.
package inventoryclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to Inventory's catalog and stock-adjust endpoints over HTTP,
// carrying the bearer token the original sale was authorized with.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New builds a Client with a conservative default timeout.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTPClient: &http.Client{Timeout: 5 * time.Second}}
}

// Product is the subset of Inventory's catalog entry the sale pipeline
// needs to decide whether a line's size is required.
type Product struct {
	ID              string `json:"id"`
	HasSizeVariants bool   `json:"has_size_variants"`
}

// FindProduct calls GET /api/v1/products/{id}.
func (c *Client) FindProduct(ctx context.Context, bearerToken, productID string) (*Product, error) {
	u := fmt.Sprintf("%s/api/v1/products/%s", c.BaseURL, url.PathEscape(productID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build find-product request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call inventory find-product: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("inventory find-product returned %d: %s", resp.StatusCode, string(body))
	}

	var p Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode inventory find-product response: %w", err)
	}

	return &p, nil
}

// Adjust calls PUT /api/v1/stock/{product}/{size}/adjust with the given
// signed quantityChange, movementType, and referenceID. A non-2xx response
// is returned as an error: the sale pipeline treats this call as strictly
// synchronous and fatal on failure.
func (c *Client) Adjust(ctx context.Context, bearerToken, productID, size string, quantityChange int, movementType, referenceID string) error {
	u := fmt.Sprintf("%s/api/v1/stock/%s/%s/adjust?quantity_change=%d&movement_type=%s&reference_id=%s",
		c.BaseURL, url.PathEscape(productID), url.PathEscape(size), quantityChange, movementType, url.QueryEscape(referenceID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, nil)
	if err != nil {
		return fmt.Errorf("build stock adjust request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("call inventory stock adjust: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("inventory stock adjust returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
