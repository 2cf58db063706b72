// Package client is a Go client for the caseintake HTTP API. It carries the
// session cookie between calls and implements assessment.Submitter so the
// public form can be driven from another process.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 32 << 20
)

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the server root, e.g. "http://localhost:8080".
	BaseURL string
	// HTTPClient is used for all requests. Its jar is replaced when nil.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to one caseintake server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// New creates a client. A fresh cookie jar holds the session.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("client: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("client: invalid base URL %q: %w", base, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("client: cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{baseURL: base, httpClient: httpClient, log: log}, nil
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

// doJSON sends body as JSON and decodes the data member of the reply into out.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	return c.do(ctx, method, path, query, contentType, reader, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}
	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("client: unexpected %d response from %s %s: %s", resp.StatusCode, method, path, string(raw))
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Code: env.Code, Message: msg}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}
