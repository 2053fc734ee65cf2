package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/semaphore"
)

// BackoffConfig controls retry behaviour for a client.
type BackoffConfig struct {
	// MaxRetries caps how often a rate-limited request is retried.
	MaxRetries int
	// InitialInterval is the first backoff delay; it doubles per attempt.
	InitialInterval time.Duration
	// MaxInterval caps a single backoff delay.
	MaxInterval time.Duration
	// MaxElapsed is the total retry budget for transient network errors.
	MaxElapsed time.Duration
}

// Config describes one logical endpoint family.
type Config struct {
	BaseURL string
	// Headers are attached to every request (e.g. the DataMall AccountKey).
	Headers map[string]string
	// Concurrency is the maximum number of in-flight requests.
	Concurrency int64
	Backoff     BackoffConfig
}

var (
	// ErrRateLimited marks a request that exhausted its rate-limit retries.
	ErrRateLimited = errors.New("rate limited")
	// ErrRejected marks a permanent non-success response; never retried.
	ErrRejected = errors.New("request rejected")
)

// Client wraps HTTP GET against one endpoint family with a concurrency
// ceiling, a circuit breaker and retry with exponential backoff. A failed
// request is an error for that request only; the caller decides whether
// that aborts anything.
type Client struct {
	hc      *http.Client
	baseURL string
	headers map[string]string
	sem     *semaphore.Weighted
	circuit *gobreaker.CircuitBreaker
	backoff BackoffConfig
}

// New creates a Client. The concurrency ceiling is independent per Client,
// so two endpoint families never contend for each other's slots.
func New(hc *http.Client, cfg Config) *Client {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.BaseURL,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &Client{
		hc:      hc,
		baseURL: cfg.BaseURL,
		headers: cfg.Headers,
		sem:     semaphore.NewWeighted(concurrency),
		circuit: cb,
		backoff: cfg.Backoff,
	}
}

var (
	errRateLimitStatus = errors.New("status 429")
	errNetwork         = errors.New("network error")
)

// Get performs GET baseURL+endpoint?params and returns the response body.
// The concurrency permit is held for the whole call, including backoff
// waits, so retries never push the ceiling. Rate-limit responses retry up
// to MaxRetries; transient network errors retry until MaxElapsed is spent;
// any other non-2xx status resolves immediately to ErrRejected.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	start := time.Now()
	attempt := 0

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		body, err := c.do(ctx, u)
		if err == nil {
			return body, nil
		}

		switch {
		case errors.Is(err, errRateLimitStatus):
			if attempt >= c.backoff.MaxRetries {
				return nil, fmt.Errorf("%w after %d attempts: %s", ErrRateLimited, attempt+1, u)
			}
		case errors.Is(err, errNetwork):
			if c.backoff.MaxElapsed > 0 && time.Since(start) >= c.backoff.MaxElapsed {
				return nil, fmt.Errorf("retry budget exhausted: %w", err)
			}
		default:
			// Permanent rejection, circuit open, or context cancellation.
			return nil, err
		}

		if err := c.wait(ctx, attempt); err != nil {
			return nil, err
		}
		attempt++
	}
}

// do performs a single attempt through the circuit breaker and classifies
// the outcome, the same way the provider clients do.
func (c *Client) do(ctx context.Context, u string) ([]byte, error) {
	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", errNetwork, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			io.Copy(io.Discard, resp.Body)
			return nil, errRateLimitStatus
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errNetwork, err)
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrRejected)
		}
		return nil, err
	}
	return result.([]byte), nil
}

// wait sleeps for the attempt's backoff delay: initial * 2^attempt,
// scaled by a jitter factor in [1.0, 1.5) so delays stay strictly
// increasing while desynchronizing concurrent retriers, capped at
// MaxInterval.
func (c *Client) wait(ctx context.Context, attempt int) error {
	delay := time.Duration(float64(c.backoff.InitialInterval) *
		math.Pow(2, float64(attempt)) *
		(1 + 0.5*rand.Float64()))
	if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
		delay = c.backoff.MaxInterval
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
