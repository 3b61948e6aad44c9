package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Client is a timeout-bound HTTP client that stamps every request with a User-Agent.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

// New creates a client with the given timeout and User-Agent.
func New(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		userAgent:  userAgent,
	}
}

// Get performs a GET request. Extra headers override the defaults.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return c.httpClient.Do(req)
}

// Timeout returns the client timeout
func (c *Client) Timeout() time.Duration {
	return c.timeout
}
