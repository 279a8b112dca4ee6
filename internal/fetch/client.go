// Package fetch wraps outbound HTTP calls with a bounded wait so a provider
// that never answers cannot hang a request.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// DefaultTimeout bounds a call when neither the request nor the client set one.
const DefaultTimeout = 10 * time.Second

// Request describes a single outbound call. Method defaults to GET and
// Timeout to the client's default.
type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Timeout time.Duration
}

// Response is a fully read upstream response. Non-2xx statuses are returned
// as a Response; interpreting them is left to the caller.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// TimeoutError is returned when the adapter's own deadline fired before the
// upstream finished responding.
type TimeoutError struct {
	URL   string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetch: %s: timed out after %s", e.URL, e.After)
}

// Is matches domain.ErrUpstreamTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == domain.ErrUpstreamTimeout
}

// NetworkError is any other transport-level failure.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch: %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is matches domain.ErrUpstreamNetwork.
func (e *NetworkError) Is(target error) bool {
	return target == domain.ErrUpstreamNetwork
}

// Client performs timeout-bounded HTTP calls.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the default per-call bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a Client. The underlying http.Client carries no timeout
// of its own; every call is bounded by a context deadline instead.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the default per-call bound.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Do performs req and reads the whole body before the deadline. The deadline
// timer is released on every return path.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, method, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.classify(ctx, callCtx, req.URL, timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classify(ctx, callCtx, req.URL, timeout, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// classify separates our own deadline from caller cancellation and genuine
// network failures.
func (c *Client) classify(parent, callCtx context.Context, url string, timeout time.Duration, err error) error {
	if parent.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{URL: url, After: timeout}
	}
	if parentErr := parent.Err(); parentErr != nil {
		return fmt.Errorf("fetch: %s: %w", url, parentErr)
	}
	return &NetworkError{URL: url, Err: err}
}
