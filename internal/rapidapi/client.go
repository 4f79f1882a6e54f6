package rapidapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Header names RapidAPI uses for authentication and routing.
const (
	HeaderKey  = "x-rapidapi-key"
	HeaderHost = "x-rapidapi-host"
)

// Options configures a Client.
type Options struct {
	// URL is the flight search endpoint.
	URL string

	// Host is sent as x-rapidapi-host.
	Host string

	// Key is sent as x-rapidapi-key.
	Key string

	// Timeout bounds each request, including reading the body.
	Timeout time.Duration

	// RateLimit is the maximum number of requests per second.
	// Zero or negative disables throttling.
	RateLimit float64

	// MaxBodySize caps the number of bytes read from a response.
	MaxBodySize int64

	// Transport is the underlying round tripper. Tests inject
	// httptest transports here; nil uses http.DefaultTransport.
	Transport http.RoundTripper

	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger
}

// Client calls the flight search API.
// A Client is safe for concurrent use; the rate limiter is shared.
type Client struct {
	endpoint    *url.URL
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxBodySize int64
	logger      *slog.Logger
}

// NewClient validates opts and returns a ready Client.
// It fails with ErrMissingAPIKey when no key is configured, so a run
// without credentials stops before touching the network.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Key) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(opts.Host) == "" {
		return nil, ErrMissingHost
	}
	endpoint, err := url.Parse(opts.URL)
	if err != nil || (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return nil, ErrInvalidURL
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	maxBody := opts.MaxBodySize
	if maxBody <= 0 {
		maxBody = 10 * 1024 * 1024
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Transport: &headerInjectingTransport{
				base: base,
				headers: map[string]string{
					HeaderKey:  opts.Key,
					HeaderHost: opts.Host,
					"Accept":   "application/json",
				},
			},
			Timeout: opts.Timeout,
		},
		limiter:     rate.NewLimiter(limit, 1),
		maxBodySize: maxBody,
		logger:      logger,
	}, nil
}

// SearchFlights performs one GET against the search endpoint with params
// as the query string and returns the raw JSON body.
//
// A non-2xx answer yields a *StatusError. The body must be valid JSON and
// no larger than the configured limit. There is no retry: a failed call
// fails the run.
func (c *Client) SearchFlights(ctx context.Context, params url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := *c.endpoint
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug("requesting flight search", "url", &u)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Read one byte past the limit to detect oversized bodies.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("flight search answered",
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(body)), maxErrorBody),
		}
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, ErrResponseTooLarge
	}
	if !json.Valid(body) {
		return nil, ErrInvalidJSON
	}
	return json.RawMessage(bytes.TrimSpace(body)), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// headerInjectingTransport wraps an http.RoundTripper to inject the
// RapidAPI headers into every request.
type headerInjectingTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}
	return t.base.RoundTrip(clone)
}
