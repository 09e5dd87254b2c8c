package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cwygoda/vidrag/internal/domain"
	"github.com/cwygoda/vidrag/internal/netutil"
)

// errUnavailable marks failures meaning "this video has no usable transcript",
// as opposed to failures that may go away on retry.
var errUnavailable = errors.New("transcript not available")

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUnavailable, fmt.Sprintf(format, args...))
}

// classify maps a strategy error onto an acquisition outcome.
func classify(strategy string, err error) domain.Outcome {
	if errors.Is(err, errUnavailable) {
		return domain.NotAvailable(strategy, strings.TrimPrefix(err.Error(), errUnavailable.Error()+": "))
	}
	return domain.TransientError(strategy, err.Error())
}

// Client is the shared HTTP plumbing for the transcript strategies.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	retry     netutil.RetryConfig
	endpoints Endpoints
	languages []string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit caps outbound requests per second across all strategies.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithRetry overrides the retry policy.
func WithRetry(rc netutil.RetryConfig) ClientOption {
	return func(c *Client) { c.retry = rc }
}

// WithEndpoints overrides the YouTube URLs.
func WithEndpoints(e Endpoints) ClientOption {
	return func(c *Client) { c.endpoints = e }
}

// WithLanguages sets the caption language preference, most preferred first.
func WithLanguages(langs ...string) ClientOption {
	return func(c *Client) { c.languages = langs }
}

// NewClient creates a Client with English-then-Hindi language preference.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 20 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(5), 5),
		retry:     netutil.DefaultRetryConfig,
		endpoints: DefaultEndpoints(),
		languages: []string{"en", "hi"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Languages returns the caption language preference.
func (c *Client) Languages() []string {
	return c.languages
}

// do sends the request built by build, retrying transient failures.
// Only 200 responses are returned; the caller closes the body.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	resp, err := netutil.RetryHTTP(ctx, c.retry, func() (*http.Response, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := build()
		if err != nil {
			return nil, err
		}
		return c.http.Do(req)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusGone:
			return nil, unavailable("HTTP %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet)
	}
	return resp, nil
}

// get fetches rawURL and returns at most limit bytes of the body.
func (c *Client) get(ctx context.Context, rawURL, userAgent string, limit int64) ([]byte, error) {
	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// postJSON posts payload to endpoint with the given headers.
func (c *Client) postJSON(ctx context.Context, endpoint string, payload any, headers map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?prettyPrint=false", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
}
