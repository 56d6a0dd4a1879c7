// Package linkaapi is the HTTP client for the remote service. It consumes an
// injected token capability and exposes one typed method per endpoint; it
// implements no offline behavior itself.
package linkaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// TokenFunc returns a bearer token for an outgoing request.
type TokenFunc func(ctx context.Context) (string, error)

// APIError is a non-2xx response from the remote service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// IsAPIError reports whether err carries a remote service status, and
// returns it if so.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Client talks to the remote service. Exported fields may be replaced before
// first use (tests swap HTTP for a fake transport).
type Client struct {
	BaseURL string
	Token   TokenFunc
	HTTP    *http.Client

	logger *slog.Logger
}

// NewClient creates a client for the given base URL. The token capability is
// required; acquisition and refresh happen behind it.
func NewClient(baseURL string, token TokenFunc) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 120 * time.Second},
		logger:  slog.Default(),
	}
}

// SetLogger replaces the client logger.
func (c *Client) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// do performs an authorized JSON request. body and out may be nil.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// send attaches the token, executes the request and decodes the response.
func (c *Client) send(req *http.Request, out any) error {
	token, err := c.Token(req.Context())
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
