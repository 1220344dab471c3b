// Package restapi implements the service.Service interface over the task backend's REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"

	"taskchat/internal/auth"
	"taskchat/internal/config"
	"taskchat/internal/service"
)

const (
	// APITimeout is the default deadline for a single API call.
	APITimeout = config.DefaultTimeout

	// RequestIDHeader carries a per-request id for correlating logs.
	RequestIDHeader = "X-Request-ID"

	userAgent = "taskchat/0.1.0"
)

// Client implements service.Service against the REST backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      oauth2.TokenSource
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a client for cfg.BaseURL. creds supplies the bearer token for
// each request; nil means requests are sent without credentials.
func New(ctx context.Context, cfg *config.Config, creds oauth2.TokenSource, opts ...Option) (*Client, error) {
	// Credentials are attached per request from creds, so the transport
	// itself is built without authentication.
	httpClient, _, err := htransport.NewClient(ctx,
		option.WithoutAuthentication(),
		option.WithEndpoint(cfg.BaseURL),
		option.WithUserAgent(userAgent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	opts = append([]Option{WithTimeout(cfg.Timeout)}, opts...)
	return NewWithHTTPClient(httpClient, cfg.BaseURL, creds, opts...), nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(httpClient *http.Client, baseURL string, creds oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		creds:      creds,
		timeout:    APITimeout,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Result is a decoded response body. A nil *Result means the backend
// answered 204 or with an empty body.
type Result struct {
	Status int

	// JSON is set when the body parsed as JSON.
	JSON json.RawMessage

	// Text holds the raw body when it was not valid JSON.
	Text string
}

// Decode unmarshals the JSON body into v.
func (r *Result) Decode(v any) error {
	if r == nil || r.JSON == nil {
		return errors.New("response has no JSON body")
	}
	return json.Unmarshal(r.JSON, v)
}

// RequestOption adjusts an outgoing request after defaults are applied.
type RequestOption func(*http.Request)

// WithHeader sets a request header, overriding defaults such as Content-Type.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// Request sends a request to path (relative to the base URL) with body
// encoded as JSON, and returns the parsed response body.
// Failures are *service.RequestError, except caller cancellation, which
// is returned as a wrapped context.Canceled.
func (c *Client) Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if err := c.authorize(req); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(req)
	}

	c.logger.Debug("api request", "method", method, "url", url, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(c.transportError(method, path, err), requestID)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(c.transportError(method, path, err), requestID)
	}
	result := parseBody(resp.StatusCode, data)

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, c.fail(&service.RequestError{
			Kind:    service.KindHTTP,
			Status:  resp.StatusCode,
			Method:  method,
			Path:    path,
			Message: errorMessage(resp.StatusCode, result),
		}, requestID)
	}

	return result, nil
}

// authorize attaches the bearer token when one is present.
func (c *Client) authorize(req *http.Request) error {
	if c.creds == nil {
		return nil
	}
	token, err := c.creds.Token()
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if auth.HasCredentials(token) {
		token.SetAuthHeader(req)
	}
	return nil
}

// transportError maps a failure to get any response at all.
func (c *Client) transportError(method, path string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s %s: %w", method, path, err)
	case errors.Is(err, context.DeadlineExceeded):
		return &service.RequestError{
			Kind:    service.KindTimeout,
			Method:  method,
			Path:    path,
			Message: "request timed out",
			Err:     err,
		}
	default:
		return &service.RequestError{
			Kind:    service.KindNetwork,
			Method:  method,
			Path:    path,
			Message: fmt.Sprintf("Network error: Unable to connect to %s. Make sure the backend server is running.", c.baseURL),
			Err:     err,
		}
	}
}

// fail logs err and returns it unchanged.
func (c *Client) fail(err error, requestID string) error {
	if reqErr, ok := service.AsRequestError(err); ok {
		c.logger.Warn("api error",
			"method", reqErr.Method,
			"path", reqErr.Path,
			"kind", reqErr.Kind.String(),
			"status", reqErr.Status,
			"request_id", requestID,
			"error", reqErr.Message,
		)
	} else {
		c.logger.Debug("api request aborted", "request_id", requestID, "error", err)
	}
	return err
}

// parseBody interprets a response body: empty is nil, valid JSON is kept
// raw, anything else falls back to text.
func parseBody(status int, data []byte) *Result {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if json.Valid(data) {
		return &Result{Status: status, JSON: json.RawMessage(data)}
	}
	return &Result{Status: status, Text: string(data)}
}

// errorMessage picks the user-facing message for an error response:
// detail, then message, then "HTTP <status>".
func errorMessage(status int, result *Result) string {
	if result != nil && result.JSON != nil {
		var body struct {
			Detail  json.RawMessage `json:"detail"`
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal(result.JSON, &body); err == nil {
			if msg := fieldMessage(body.Detail); msg != "" {
				return msg
			}
			if msg := fieldMessage(body.Message); msg != "" {
				return msg
			}
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

// fieldMessage renders an error field. Strings are used as-is; structured
// values (e.g. a list of validation problems) are rendered as compact JSON.
func fieldMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
