package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	envAPIURL   = "SEVAK_API_URL"
	envAdminKey = "SEVAK_ADMIN_API_KEY"

	defaultAPIURL = "http://localhost:8080"

	// Replies wait on the model, so leave room beyond the server's chat timeout.
	defaultHTTPTimeout = 60 * time.Second

	// maxResponseBytes bounds what the CLI reads from a misbehaving server.
	maxResponseBytes = 1 << 20
)

// UserAgent is sent with every request. cmd/sevak sets the version.
var UserAgent = "sevak-cli/dev"

// APIClient talks to a sevakd server. Admin requests carry the key as a Bearer token.
type APIClient struct {
	baseURL    string
	adminKey   string
	httpClient *http.Client
}

// NewAPIClientWithCmd resolves settings from cmd's --api-url/--admin-key flags,
// then env (including .env), then global config. cmd may be nil.
func NewAPIClientWithCmd(cmd *cobra.Command) (*APIClient, error) {
	_ = godotenv.Load()

	var flagURL, flagKey string
	if cmd != nil {
		flagURL, _ = cmd.Flags().GetString("api-url")
		flagKey, _ = cmd.Flags().GetString("admin-key")
	}

	settings, err := ResolveSettings(flagURL, flagKey)
	if err != nil {
		return nil, err
	}
	return NewAPIClientWithConfig(settings.APIURL, settings.AdminKey), nil
}

// NewAPIClientWithConfig creates an APIClient with explicit settings.
// adminKey may be empty; only the admin endpoints need it.
func NewAPIClientWithConfig(baseURL, adminKey string) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminKey:   adminKey,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// BaseURL returns the server the client talks to.
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

// HasAdminKey reports whether admin requests can be made.
func (c *APIClient) HasAdminKey() bool {
	return c.adminKey != ""
}

// APIResponse is the server's {"data"} / {"error"} envelope.
type APIResponse struct {
	StatusCode int             `json:"-"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Decode unmarshals the data envelope into v.
func (r *APIResponse) Decode(v interface{}) error {
	if len(r.Data) == 0 {
		return errors.New("response has no data")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// APIError is a 4xx/5xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Get performs a GET request.
func (c *APIClient) Get(ctx context.Context, path string) (*APIResponse, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body. body may be nil.
func (c *APIClient) Post(ctx context.Context, path string, body interface{}) (*APIResponse, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Delete performs a DELETE request.
func (c *APIClient) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *APIClient) do(ctx context.Context, method, path string, body interface{}) (*APIResponse, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return decodeEnvelope(resp.StatusCode, raw)
}

func (c *APIClient) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if c.adminKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.adminKey)
	}
	return req, nil
}

// decodeEnvelope turns a raw response into an APIResponse or an *APIError.
// Error bodies that are not JSON (proxies, load balancers) become the message verbatim.
func decodeEnvelope(status int, raw []byte) (*APIResponse, error) {
	out := &APIResponse{StatusCode: status}
	failed := status >= http.StatusBadRequest

	if len(bytes.TrimSpace(raw)) == 0 {
		if failed {
			return nil, &APIError{StatusCode: status, Message: http.StatusText(status)}
		}
		return out, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		if failed {
			return nil, &APIError{StatusCode: status, Message: strings.TrimSpace(string(raw))}
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if failed {
		msg := out.Error
		if msg == "" {
			msg = http.StatusText(status)
		}
		return nil, &APIError{StatusCode: status, Message: msg}
	}
	return out, nil
}

// fetch sends a request and decodes the data envelope into a T.
func fetch[T any](ctx context.Context, c *APIClient, method, path string, body interface{}) (*T, error) {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	var v T
	if err := resp.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}
