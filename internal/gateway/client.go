// Package gateway is the portal's only route to the banking backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bankportal.org/internal/obs"
)

const maxResponseBytes = 4 << 20

// Endpoints are path prefixes relative to the base URL.
type Endpoints struct {
	Auth          string
	Accounts      string
	Transactions  string
	Users         string
	Notifications string
	Employee      string
	Applications  string
}

// DefaultEndpoints mirrors the backend's standard layout.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Auth:          "/auth",
		Accounts:      "/accounts",
		Transactions:  "/transactions",
		Users:         "/users",
		Notifications: "/notifications",
		Employee:      "/employee",
		Applications:  "/applications",
	}
}

// Client is a REST client for the backend. One Client is shared by all sessions;
// per-session credentials travel in the request context.
type Client struct {
	base      *url.URL
	endpoints Endpoints
	transport http.RoundTripper
	timeout   time.Duration
	http      *http.Client
}

// Option configures Client.
type Option func(*Client)

// WithEndpoints overrides the endpoint prefixes.
func WithEndpoints(ep Endpoints) Option {
	return func(c *Client) { c.endpoints = ep }
}

// WithTransport sets the innermost transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.transport = rt
		}
	}
}

// WithTimeout bounds each call. Zero leaves only transport defaults.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New builds a Client for baseURL, e.g. http://localhost:8080/api.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	c := &Client{
		base:      u,
		endpoints: DefaultEndpoints(),
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = &http.Client{
		Transport: otelhttp.NewTransport(authTransport{next: c.transport}),
		Timeout:   c.timeout,
	}
	return c, nil
}

// Endpoints returns the configured prefixes.
func (c *Client) Endpoints() Endpoints { return c.endpoints }

// call describes one backend request.
type call struct {
	op     string // metric label
	method string
	path   string
	query  url.Values
	body   any
}

// seg escapes one path segment.
func seg(s string) string { return url.PathEscape(s) }

func (c *Client) do(ctx context.Context, cl call, out any) error {
	u := c.base.JoinPath(cl.path)
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", cl.op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json, text/plain")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		obs.ObserveUpstream(cl.method, cl.op, 0, time.Since(start))
		return fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()
	obs.ObserveUpstream(cl.method, cl.op, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", cl.op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(cl.method, cl.path, resp.StatusCode, data)
		obs.FromContext(ctx).Debug().
			Str("op", cl.op).
			Int("status", resp.StatusCode).
			Str("message", apiErr.Message).
			Msg("backend call failed")
		return apiErr
	}
	return decodeBody(data, out)
}

func decodeBody(data []byte, out any) error {
	switch dst := out.(type) {
	case nil:
		return nil
	case *string:
		*dst = strings.TrimSpace(string(data))
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
