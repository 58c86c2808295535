// Package api is the REST client for the scheduling backend.
//
// A [Client] talks to session-scoped endpoints (identity, tenant listing and
// creation). Tenant-scoped endpoints are only reachable through a
// [TenantClient], obtained from [Client.ForTenant], which sends the
// X-Tenant-ID header on every request it issues. The unscoped client never
// sends that header, so two tenant clients can be used side by side without
// one tenant's requests leaking into the other.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/logging"
)

const (
	// HeaderTenantID carries the active tenant on tenant-scoped requests.
	HeaderTenantID = "X-Tenant-ID"

	// HeaderIdempotencyKey lets the backend collapse duplicate mutations.
	HeaderIdempotencyKey = "Idempotency-Key"

	// defaultTimeout is the HTTP request timeout.
	defaultTimeout = 30 * time.Second

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 * 1024
)

// Client is the session-scoped REST client. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	token      string
	userAgent  string
	httpClient *http.Client
	logger     *logging.Logger
	newKey     func() string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the bearer token presented on every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIdempotencyKeys overrides how idempotency keys are generated.
func WithIdempotencyKeys(fn func() string) ClientOption {
	return func(c *Client) {
		if fn != nil {
			c.newKey = fn
		}
	}
}

// New creates a Client for the backend rooted at baseURL.
func New(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must use http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		userAgent:  "somectl",
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.NopLogger(),
		newKey:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("api")

	return c, nil
}

// Token returns the configured bearer token.
func (c *Client) Token() string {
	return c.token
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ForTenant returns a client whose requests are scoped to tenantID.
func (c *Client) ForTenant(tenantID string) *TenantClient {
	return &TenantClient{
		client:   c,
		tenantID: tenantID,
		logger:   c.logger.WithTenant(tenantID),
	}
}

// request describes one call to the backend.
type request struct {
	method      string
	path        string
	query       url.Values
	tenantID    string
	body        io.Reader
	contentType string
	idempotent  bool
}

// jsonBody encodes v for use as a request body.
func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// do sends req and decodes a 2xx JSON response into out (which may be nil).
func (c *Client) do(ctx context.Context, logger *logging.Logger, req request, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), req.body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if req.tenantID != "" {
		httpReq.Header.Set(HeaderTenantID, req.tenantID)
	}
	if req.idempotent {
		httpReq.Header.Set(HeaderIdempotencyKey, c.newKey())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Debug("request failed", "method", req.method, "path", req.path, "error", err.Error())
		return errors.NewTransportError(req.method, req.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	logger.Debug("request finished",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(req.method, req.path, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

// decodeError turns a non-2xx response into an *errors.APIError. The
// backend's {status, error} body is used when present, otherwise the raw
// body text.
func decodeError(method, path string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message := strings.TrimSpace(string(body))
	var er struct {
		Status  int    `json:"status"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &er) == nil {
		switch {
		case er.Error != "":
			message = er.Error
		case er.Message != "":
			message = er.Message
		}
	}

	return errors.NewAPIError(method, path, resp.StatusCode, message)
}
