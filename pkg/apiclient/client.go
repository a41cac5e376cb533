// Package apiclient is the thin HTTP client the gateway uses to reach the
// Book of Wisdom REST backend. It comes in two flavours built from the same
// base URL: a public client that never sends credentials and an
// authenticated client that forwards the caller's bearer credential.
package apiclient

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

	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/pkg/middleware/requestid"
)

const maxErrorBody = 4 << 10

// ErrNoCredential is returned by Secure when the context carries no session credential.
var ErrNoCredential = errors.New("apiclient: no credential on context")

// Observer receives timing for every upstream call.
type Observer interface {
	ObserveUpstream(method, resource string, status int, duration time.Duration)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
	Observer   Observer
}

// Client issues JSON requests against the backend.
type Client struct {
	base       *url.URL
	http       *http.Client
	logger     *zap.Logger
	observer   Observer
	credential string
}

// New builds the public (unauthenticated) client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("apiclient: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{base: base, http: httpClient, logger: logger, observer: cfg.Observer}, nil
}

// WithCredential returns an authenticated copy of the client.
func (c *Client) WithCredential(credential string) *Client {
	clone := *c
	clone.credential = credential
	return &clone
}

// Authenticated reports whether the client attaches a credential.
func (c *Client) Authenticated() bool {
	return c != nil && c.credential != ""
}

// Secure returns the authenticated client for the session carried by ctx.
func (c *Client) Secure(ctx context.Context) (*Client, error) {
	credential := CredentialFromContext(ctx)
	if credential == "" {
		return nil, ErrNoCredential
	}
	return c.WithCredential(credential), nil
}

// Get reads path into dest.
func (c *Client) Get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, dest)
}

// Post creates a resource.
func (c *Client) Post(ctx context.Context, path string, body, dest interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, dest)
}

// Patch partially updates a resource.
func (c *Client) Patch(ctx context.Context, path string, body, dest interface{}) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, dest)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, path string, dest interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, dest)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest interface{}) error {
	endpoint := c.resolve(path, query)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("apiclient: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.credential != "" {
		req.Header.Set("Authorization", "Bearer "+c.credential)
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		req.Header.Set(requestid.HeaderKey, reqID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(method, path, 0, duration)
		c.logger.Debug("upstream transport error", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	c.observe(method, path, resp.StatusCode, duration)
	c.logger.Debug("upstream call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Bool("authenticated", c.credential != ""),
		zap.Duration("latency", duration),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{Status: resp.StatusCode, Method: method, Path: path, Message: backendMessage(resp.StatusCode, raw)}
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("apiclient: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) observe(method, path string, status int, duration time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream(method, Resource(path), status, duration)
}

// Resource returns the collection name of a path, e.g. "lessons" for "/lessons/42/status".
func Resource(path string) string {
	trimmed := strings.TrimLeft(path, "/")
	if idx := strings.IndexAny(trimmed, "/?"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}

func backendMessage(status int, raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(status)
}
