package checks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jwebframework/jweb/health"
)

// HTTPOption configures an HTTP dependency check.
type HTTPOption func(*httpCheck)

// WithHTTPClient sets the client used for requests. Default: a client with a
// 5 second timeout.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *httpCheck) {
		if client != nil {
			c.client = client
		}
	}
}

// WithMethod sets the request method. Default: GET.
func WithMethod(method string) HTTPOption {
	return func(c *httpCheck) {
		c.method = method
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) HTTPOption {
	return func(c *httpCheck) {
		c.header.Add(key, value)
	}
}

// WithAcceptStatus sets the predicate deciding which response codes are
// healthy. Default: any 2xx.
func WithAcceptStatus(accept func(code int) bool) HTTPOption {
	return func(c *httpCheck) {
		if accept != nil {
			c.accept = accept
		}
	}
}

// WithDegradedLatency reports DEGRADED when a healthy response takes longer
// than d. Zero disables the latency check.
func WithDegradedLatency(d time.Duration) HTTPOption {
	return func(c *httpCheck) {
		c.slow = d
	}
}

// HTTP creates a check that calls a dependency's endpoint and reports DOWN
// when it is unreachable or answers with an unaccepted status.
func HTTP(url string, opts ...HTTPOption) health.Check {
	c := &httpCheck{
		url:    url,
		method: http.MethodGet,
		client: &http.Client{Timeout: 5 * time.Second},
		header: make(http.Header),
		accept: func(code int) bool { return code >= 200 && code < 300 },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type httpCheck struct {
	url    string
	method string
	client *http.Client
	header http.Header
	accept func(int) bool
	slow   time.Duration
}

func (c *httpCheck) Check(ctx context.Context) (health.Status, error) {
	req, err := http.NewRequestWithContext(ctx, c.method, c.url, nil)
	if err != nil {
		return health.Status{}, fmt.Errorf("build request: %w", err)
	}
	req.Header = c.header.Clone()

	start := time.Now()
	resp, err := c.client.Do(req)
	latency := time.Since(start)

	details := map[string]any{
		"url":       c.url,
		"latencyMs": latency.Milliseconds(),
	}

	if err != nil {
		return health.Down("dependency unreachable").
			WithDetails(details).
			WithDetail("error", err.Error()), nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	details["statusCode"] = resp.StatusCode

	if !c.accept(resp.StatusCode) {
		return health.Down(fmt.Sprintf("%s: %d", ErrUnexpectedStatus, resp.StatusCode)).WithDetails(details), nil
	}
	if c.slow > 0 && latency > c.slow {
		return health.Degraded("dependency responding slowly").WithDetails(details), nil
	}
	return health.Up().WithDetails(details), nil
}
