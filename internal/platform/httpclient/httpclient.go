// Package httpclient provides the shared HTTP client used by all API
// sources. One client (one connection pool) serves every concurrent
// runner; retry policy is owned by the caller.
package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"reconx/internal/platform/errors"
	"reconx/internal/platform/logx"
)

// Config holds the configuration for the HTTP client.
type Config struct {
	// Timeout bounds a single request end to end.
	// Default: 15 seconds.
	Timeout time.Duration

	// ConnectTimeout bounds connection establishment only.
	// Default: 5 seconds.
	ConnectTimeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:        15 * time.Second,
		ConnectTimeout: 5 * time.Second,
		UserAgent:      "reconx/dev",
	}
}

// Client wraps a shared http.Client.
type Client struct {
	httpClient *http.Client
	logger     logx.Logger
	config     Config
}

// New creates the shared client.
func New(config Config, logger logx.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 5 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "reconx/dev"
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: config.ConnectTimeout,
		}).DialContext,
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     60 * time.Second,
	}
	if config.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		logger: logger.With("component", "httpclient"),
		config: config,
	}
}

// Get performs a single GET attempt with the given extra headers.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request for %s", url)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Debug("HTTP request failed",
			"url", url,
			"error", err.Error(),
			"duration_ms", duration.Milliseconds(),
		)
		return nil, err
	}

	c.logger.Debug("HTTP response received",
		"url", url,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)

	return resp, nil
}

// Post performs a single POST attempt.
func (c *Client) Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request for %s", url)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Content-Type", contentType)

	return c.httpClient.Do(req)
}

// UserAgent returns the configured User-Agent value.
func (c *Client) UserAgent() string {
	return c.config.UserAgent
}

// CloseIdle releases pooled connections.
func (c *Client) CloseIdle() {
	c.httpClient.CloseIdleConnections()
}

// ReadBody reads the response body and closes it.
func ReadBody(resp *http.Response) ([]byte, error) {
	if resp == nil {
		return nil, errors.New("response is nil")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	return body, nil
}

// CheckStatus validates the HTTP status code. Any status >= 400 is an
// error: recon APIs routinely signal throttling with 4xx, so the caller's
// retry budget covers the whole range.
func CheckStatus(resp *http.Response) error {
	if resp == nil {
		return errors.New("response is nil")
	}

	if resp.StatusCode < 400 {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrap(errors.ErrUnauthorized, resp.Status)
	default:
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
}

// String returns a human-readable representation of the client configuration.
func (c *Client) String() string {
	return fmt.Sprintf("HTTPClient{timeout=%s, connect=%s, ua=%q}",
		c.config.Timeout,
		c.config.ConnectTimeout,
		c.config.UserAgent,
	)
}
