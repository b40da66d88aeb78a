package connection

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

	"github.com/branchweb/branchweb-go/internal/infra/buildinfo"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a reply is read.
const maxResponseBytes = 4 << 20

// StatusSuccess is the envelope status of a successful call.
const StatusSuccess = "SUCCESS"

// StatusError is a well-formed envelope reporting a failure.
type StatusError struct {
	Status  string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (%d)", e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%d): %s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Status       string          `json:"status"`
	ResponseCode int             `json:"response_code"`
	Payload      json.RawMessage `json:"payload"`
}

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// NewHTTPClient creates a client for server, given as host:port or URL.
func NewHTTPClient(server string, opts ...Option) *HTTPClient {
	baseURL := server
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get calls a GET endpoint and decodes the payload into target.
func (c *HTTPClient) Get(ctx context.Context, path string, query url.Values, target any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, target)
}

// Post calls a POST endpoint with a JSON object body and decodes the
// payload into target.
func (c *HTTPClient) Post(ctx context.Context, path string, fields map[string]string, target any) error {
	if fields == nil {
		fields = map[string]string{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, target)
}

func (c *HTTPClient) do(req *http.Request, target any) error {
	req.Header.Set("User-Agent", "branchweb-cli/"+buildinfo.Version)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return ParseResponse(resp, target)
}

// ParseResponse decodes an envelope reply. The payload of a successful
// reply is decoded into target when target is non-nil.
func ParseResponse(resp *http.Response, target any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if env.Status != StatusSuccess {
		se := &StatusError{Status: env.Status, Code: env.ResponseCode}
		_ = json.Unmarshal(env.Payload, &se.Message)
		return se
	}

	if target != nil && len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, target); err != nil {
			return fmt.Errorf("parse payload: %w", err)
		}
	}
	return nil
}
