// Package fetch downloads arbitrary URLs with rate limiting and retries. It is
// used for profile photos, which live on a CDN outside the Data API.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"ytthumb/internal/retry"
)

// Config holds client configuration.
type Config struct {
	// Timeout for an individual request attempt.
	Timeout time.Duration
	// RPS caps the request rate; zero means unlimited.
	RPS float64
	// MaxBodyBytes bounds how much of a response is read.
	MaxBodyBytes int64
	// UserAgent sent with every request.
	UserAgent string
	// Retry configures attempts for transport errors and retryable statuses.
	Retry retry.Config
}

// DefaultConfig returns sensible defaults for photo downloads.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		RPS:          2,
		MaxBodyBytes: 10 << 20,
		UserAgent:    "ytthumb/1.0",
		Retry:        retry.DefaultConfig(),
	}
}

// Client wraps an HTTP client with retry logic and a token bucket limiter.
type Client struct {
	base    *http.Client
	config  Config
	limiter *rate.Limiter
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// New creates a client. If base is nil a client with cfg.Timeout is created.
func New(cfg Config, base *http.Client) *Client {
	if base == nil {
		base = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}

	return &Client{base: base, config: cfg, limiter: limiter}
}

// Get performs a GET request, retrying transport failures and 5xx/408/429
// responses. Other non-2xx statuses fail immediately with *HTTPError.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	var out *Response
	err = retry.Do(ctx, c.config.Retry, nil, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.once(ctx, rawURL)
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) once(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		httpErr := &HTTPError{URL: rawURL, StatusCode: resp.StatusCode, Body: snippet}
		if httpErr.Temporary() {
			return nil, httpErr
		}
		return nil, retry.Permanent(httpErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > c.config.MaxBodyBytes {
		return nil, retry.Permanent(ErrBodyTooLarge)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// Download fetches rawURL and copies the body to w. Nothing is written to w
// unless the whole body was read successfully.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	return io.Copy(w, bytes.NewReader(resp.Body))
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.base.CloseIdleConnections()
	return nil
}
