package restclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tinytelemetry/logstream/internal/model"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 10 * time.Second

// maxResponseSize caps how much of a response body is read (8 MB).
const maxResponseSize = 8 * 1024 * 1024

// Client calls the log API of a logstream server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL (e.g. http://127.0.0.1:3000).
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// FetchLogs returns the newest limit entries and the server's known sources.
func (c *Client) FetchLogs(ctx context.Context, limit int) (model.LogsPayload, error) {
	var payload model.LogsPayload
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	err := c.call(ctx, http.MethodGet, "/api/logs", q, &payload)
	return payload, err
}

// FetchStats returns the server's authoritative counts.
func (c *Client) FetchStats(ctx context.Context) (model.Stats, error) {
	var s model.Stats
	err := c.call(ctx, http.MethodGet, "/api/logs/stats", nil, &s)
	return s, err
}

// Clear wipes the server-side log. Clients learn of it via log_cleared.
func (c *Client) Clear(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/api/logs/clear", nil, nil)
}

// Demo asks the server to generate sample entries.
func (c *Client) Demo(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/api/logs/demo", nil, nil)
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, dest any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("restclient: %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("restclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("restclient: %s %s: read body: %w", method, path, err)
	}

	var env model.APIResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("restclient: %s %s: status %d: unmarshal response: %w", method, path, resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("restclient: %s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}

	if dest != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			return fmt.Errorf("restclient: %s %s: unmarshal data: %w", method, path, err)
		}
	}
	return nil
}
