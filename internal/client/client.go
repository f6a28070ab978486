// Package client is a thin HTTP client for the shopping-list API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/shoplist/internal/convert"
	"github.com/and161185/shoplist/internal/errs"
	"github.com/and161185/shoplist/internal/model"
)

// StatusError is a non-2xx answer. It unwraps to the matching errs sentinel.
type StatusError struct {
	Op        string
	Code      int
	RequestID string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d (request %s)", e.Op, e.Code, e.RequestID)
}

// Unwrap maps the status back to a sentinel. 400 covers both validation and
// missing items because the server does not distinguish them on the wire.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusBadRequest:
		return errs.ErrValidation
	case http.StatusServiceUnavailable:
		return errs.ErrBusy
	case http.StatusNotImplemented:
		return errs.ErrUnsupported
	default:
		return errs.ErrStorage
	}
}

// Client talks to one server.
type Client struct {
	base string
	hc   *http.Client
}

// New creates a client for baseURL (e.g. http://localhost:8080).
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: timeout},
	}
}

// List fetches all items in list order.
func (c *Client) List(ctx context.Context) ([]model.Item, error) {
	var wire []convert.Item
	if err := c.do(ctx, "list", http.MethodGet, "/items", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(wire))
	for _, w := range wire {
		out = append(out, convert.ToDomainItem(w))
	}
	return out, nil
}

// Add creates an item.
func (c *Client) Add(ctx context.Context, it model.NewItem) error {
	return c.do(ctx, "add", http.MethodPost, "/items", convert.FromDomainNewItem(it), nil)
}

// Toggle flips is_shopped of id.
func (c *Client) Toggle(ctx context.Context, id int64) error {
	return c.do(ctx, "toggle", http.MethodPut, "/items/"+strconv.FormatInt(id, 10)+"/toggle", nil, nil)
}

// Reorder moves id to idx.
func (c *Client) Reorder(ctx context.Context, id int64, idx int32) error {
	return c.do(ctx, "reorder", http.MethodPut, "/items/reorder", convert.Item{ID: &id, OrderIndex: &idx}, nil)
}

// Swap exchanges the positions of a and b.
func (c *Client) Swap(ctx context.Context, a, b int64) error {
	return c.do(ctx, "swap", http.MethodPut, "/items/swap", convert.SwapRequest{IDA: a, IDB: b}, nil)
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	u, err := url.JoinPath(c.base, path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Op: op, Code: resp.StatusCode, RequestID: resp.Header.Get("X-Request-ID")}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}
