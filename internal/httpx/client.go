// Package httpx provides the JSON POST helper used to reach the
// text-generation backend. It is deliberately small: one request shape, a
// per-attempt timeout, and linear backoff between failed attempts.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds a single request attempt.
	DefaultTimeout = 60 * time.Second
	// DefaultMaxRetries is the number of extra attempts after the first one.
	DefaultMaxRetries = 1

	backoffStep = 500 * time.Millisecond
)

// StatusError reports a response with a non-2xx status code, carrying the
// status and the response body text when available.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.Code, e.Body)
}

// Client posts JSON bodies to paths under a backend base URL. Any failed
// attempt, whether a network error, a timeout, or a non-2xx status, is
// retried with linear backoff until the attempts run out. Semantically failed
// but well-formed responses are not its concern; those belong to the protocol
// layer above.
type Client struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int

	client *http.Client

	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMaxRetries overrides how many extra attempts follow a failed one.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// NewClient creates a Client targeting the given base URL.
func NewClient(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		client:     &http.Client{},
		logger:     logger.With(slog.String("module", "httpx")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostJSON sends body as a JSON POST to path and returns the raw response
// body. Each attempt is bounded by the configured timeout; after a failed
// attempt the client waits attempt*500ms before trying again, and the last
// error is propagated once the attempts are exhausted.
func (c *Client) PostJSON(ctx context.Context, path string, body any) (json.RawMessage, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying request",
				slog.String("path", path),
				slog.Int("attempt", attempt),
				slog.String("err", lastErr.Error()))

			select {
			case <-time.After(time.Duration(attempt) * backoffStep):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		res, err := c.doOnce(ctx, path, jsonBody)
		if err == nil {
			return res, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, path string, jsonBody []byte) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	return json.RawMessage(respBody), nil
}
