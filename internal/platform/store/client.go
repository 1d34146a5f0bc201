// Package store provides the HTTP+JSON client for the remote clinic store.
// The store owns all persistence; this process never talks to a database.
// Domain packages build their queries on top of the generic Get/Post/Put
// helpers and translate the store's machine-readable error codes into their
// own sentinel errors.
package store

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
)

// ErrUnavailable covers transport failures and 5xx responses from the store.
// Callers treat it as transient: user-facing operations surface it once with
// no retry, the lab-update poller swallows it and re-queries on the next tick.
var ErrUnavailable = errors.New("clinic store unavailable")

// RemoteError is a 4xx rejection from the store carrying a machine-readable
// reason code. The store's verdict is authoritative: a conflict code returned
// by a write overrides any optimistic pre-check the caller made.
type RemoteError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e *RemoteError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("store rejected request: %s (%s)", e.Code, e.Details)
	}
	return fmt.Sprintf("store rejected request: %s", e.Code)
}

// Reason codes the store uses in RemoteError.Code.
const (
	CodeSlotConflict      = "slot_conflict"
	CodeDuplicateBooking  = "duplicate_booking"
	CodeInvalidTransition = "invalid_transition"
	CodeNotFound          = "not_found"
)

type bearerKey struct{}

// WithBearer returns a context carrying the caller's bearer credential. The
// credential is opaque to this process; it is forwarded to the store verbatim.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerFromContext returns the bearer credential, if any, carried by ctx.
func BearerFromContext(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// Client issues typed JSON requests against the remote clinic store.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient creates a store client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse store base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("store base url scheme must be http or https, got %q", u.Scheme)
	}

	c := &Client{
		base: u,
		http: &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT request with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := BearerFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s %s returned %d", ErrUnavailable, method, path, resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		remote := &RemoteError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(raw, remote); err != nil || remote.Code == "" {
			remote.Code = fmt.Sprintf("http_%d", resp.StatusCode)
		}
		return remote
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s response: %v", ErrUnavailable, method, path, err)
	}
	return nil
}
