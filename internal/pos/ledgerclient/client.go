// Package ledgerclient is the HTTP client the POS broker worker uses to
// publish a sale's journal entry to the Ledger service.
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Line is one side of a journal entry posted to Ledger.
type Line struct {
	AccountName string `json:"account_name"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
}

// PostTransactionRequest mirrors Ledger's POST /api/v1/transactions body.
type PostTransactionRequest struct {
	Description string `json:"description"`
	Source      string `json:"source"`
	Reference   string `json:"reference"`
	Lines       []Line `json:"lines"`
}

// PostTransactionResponse is the subset of Ledger's response the worker
// needs.
type PostTransactionResponse struct {
	ID string `json:"id"`
}

// Client talks to Ledger's transactions endpoints over HTTP, carrying the
// bearer token the original sale was authorized with.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New builds a Client with a conservative default timeout.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTPClient: &http.Client{Timeout: 10 * time.Second}}
}

// ErrConflict is returned when Ledger rejects a post as a duplicate
// (source, reference) pair.
var ErrConflict = fmt.Errorf("ledgerclient: duplicate reference")

// PostTransaction posts a balanced journal entry and returns the new
// transaction's id.
func (c *Client) PostTransaction(ctx context.Context, bearerToken string, in PostTransactionRequest) (string, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encode post-transaction body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build post-transaction request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ledger post-transaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return "", ErrConflict
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ledger post-transaction returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out PostTransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ledger post-transaction response: %w", err)
	}

	return out.ID, nil
}

// FindByReference supports the worker's pre-check: does a transaction for
// this (source, reference) pair already exist? Returns "", nil when none is
// found.
func (c *Client) FindByReference(ctx context.Context, bearerToken, source, reference string) (string, error) {
	url := fmt.Sprintf("%s/api/v1/transactions/by-reference?source=%s&reference=%s", c.BaseURL, source, reference)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build find-by-reference request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ledger find-by-reference: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	var out PostTransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ledger find-by-reference response: %w", err)
	}

	return out.ID, nil
}
