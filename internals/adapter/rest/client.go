// Package rest provides the shared HTTP plumbing for provider adapters:
// a pooled client with a request timeout and a token-bucket rate limiter
// so free-tier endpoints are not hammered during catalog refreshes.
package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// ErrUnexpectedStatus is returned when a provider answers with a non-200
// status. Callers treat it like any other transport failure.
var ErrUnexpectedStatus = errors.New("unexpected response status")

const defaultTimeout = 30 * time.Second

// Client wraps http.Client with rate limiting shared across one provider's
// endpoints.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRateLimit converts an interval/actions pair into an actions-per-second
// limiter. Burst stays at one so a refresh burst cannot drain the bucket.
func NewRateLimit(interval time.Duration, actions int) *rate.Limiter {
	if actions <= 0 || interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	rps := float64(actions) / interval.Seconds()
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// New returns a Client honouring the given per-provider rate limit.
func New(timeout time.Duration, limiter *rate.Limiter, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger,
	}
}

// Get performs a rate-limited GET and returns the raw body so callers can
// pick fields out of it without committing to a full response schema.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	if len(params) > 0 {
		rawURL = fmt.Sprintf("%s?%s", rawURL, params.Encode())
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("provider request", "url", rawURL)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("provider returned error status", "url", rawURL, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, rawURL)
	}

	return body, nil
}
