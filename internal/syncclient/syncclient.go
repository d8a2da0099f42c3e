// Package syncclient talks to the optional remote backup service. Pulls
// go through an explicit coercion step (see parse.go) so only well-typed
// catalogs and transactions ever reach the ledger; anything else becomes
// a sync error.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teneobot-lab/POS/internal/domain"
	"github.com/teneobot-lab/POS/internal/store"
)

const deviceIDHeader = "X-Device-ID"

type Client struct {
	baseURL  string
	httpc    *http.Client
	deviceID string
	now      func() time.Time
}

type Option func(*Client)

func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpc:    &http.Client{Timeout: 10 * time.Second},
		deviceID: uuid.NewString(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PullResult carries whichever collections the remote returned. A nil
// slice means the remote sent nothing for that collection.
type PullResult struct {
	Catalog      []domain.CatalogItem
	Transactions []domain.Transaction
}

// Pull fetches the remote state and coerces it into typed values.
// A successful pull replaces the full local set; the caller re-sorts the
// ledger newest first.
func (c *Client) Pull(ctx context.Context) (*PullResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/state", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrSync, err)
	}
	req.Header.Set(deviceIDHeader, c.deviceID)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: pull: %v", store.ErrSync, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: pull: unexpected status %d", store.ErrSync, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: pull: %v", store.ErrSync, err)
	}

	var envelope rawEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: pull: malformed envelope: %v", store.ErrSync, err)
	}

	return coerceEnvelope(envelope, c.now()), nil
}

func (c *Client) PushCatalog(ctx context.Context, items []domain.CatalogItem) error {
	return c.push(ctx, http.MethodPut, "/v1/catalog", items)
}

func (c *Client) PushTransaction(ctx context.Context, tx domain.Transaction) error {
	return c.push(ctx, http.MethodPost, "/v1/transactions", tx)
}

func (c *Client) push(ctx context.Context, method string, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrSync, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrSync, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(deviceIDHeader, c.deviceID)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: push %s: %v", store.ErrSync, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: push %s: unexpected status %d", store.ErrSync, path, resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
