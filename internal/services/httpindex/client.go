package httpindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout    = 300 * time.Second
	defaultRetries    = 5
	defaultRetryDelay = 250 * time.Millisecond
	maxIndexBytes     = 32 << 20
)

// Config captures the runtime settings for repository requests.
type Config struct {
	UserAgent  string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

// Client issues GET and HEAD requests against a staging repository.
type Client struct {
	cfg        Config
	httpClient *http.Client
	sleeper    func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a repository client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retries <= 0 {
		cfg.Retries = defaultRetries
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	cfg.UserAgent = strings.TrimSpace(cfg.UserAgent)
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// StatusError reports a non-success HTTP response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: http %d", e.Method, e.URL, e.StatusCode)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// Fetch downloads the full body of a listing page.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.withRetry(ctx, func() error {
		resp, err := c.do(ctx, http.MethodGet, url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxIndexBytes))
		if err != nil {
			return fmt.Errorf("read %s: %w", url, err)
		}
		body = data
		return nil
	})
	return body, err
}

// Open starts a GET request and returns the response body for streaming.
// Retries cover establishing the response only; the caller owns the reader.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := c.withRetry(ctx, func() error {
		resp, err := c.do(ctx, http.MethodGet, url)
		if err != nil {
			return err
		}
		body = resp.Body
		return nil
	})
	return body, err
}

// ContentLength issues a HEAD request and returns the advertised length, or -1
// when the server omits it.
func (c *Client) ContentLength(ctx context.Context, url string) (int64, error) {
	length := int64(-1)
	err := c.withRetry(ctx, func() error {
		resp, err := c.do(ctx, http.MethodHead, url)
		if err != nil {
			return err
		}
		resp.Body.Close()
		length = resp.ContentLength
		if length < 0 {
			length = -1
		}
		return nil
	})
	return length, err
}

func (c *Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, permanent{fmt.Errorf("%s %s: new request: %w", method, url, err)}
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{Method: method, URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// permanent marks errors that must not be retried.
type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }

func (p permanent) Unwrap() error { return p.err }

func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	attempts := c.cfg.Retries
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !c.shouldRetry(ctx, err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if err := c.sleep(ctx, c.cfg.RetryDelay); err != nil {
			return err
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var perm permanent
	if errors.As(err, &perm) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
