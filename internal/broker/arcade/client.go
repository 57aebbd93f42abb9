// Package arcade is a broker.Broker for the Arcade Engine REST API.
package arcade

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Cyclone1070/memeagent/internal/broker"
	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultBaseURL is the hosted Arcade Engine.
	DefaultBaseURL = "https://api.arcade.dev"

	defaultPageSize     = 100
	defaultWaitSeconds  = 30
	defaultPollInterval = time.Second
	defaultAuthTimeout  = 10 * time.Minute
)

// errStillPending keeps the authorization poll going.
var errStillPending = errors.New("authorization still pending")

// APIError is a non-2xx answer from the Arcade API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("arcade API error (%d): %s", e.StatusCode, e.Message)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	// Limit caps the number of tools listed per toolkit. Zero means no cap.
	Limit int

	// WaitSeconds is the long-poll duration of each auth status request.
	WaitSeconds int
	// PollInterval is the initial delay between auth status requests.
	PollInterval time.Duration
	// AuthTimeout bounds WaitForAuthorization.
	AuthTimeout time.Duration
}

// Client talks to the Arcade Engine.
type Client struct {
	baseURL      string
	apiKey       string
	http         *http.Client
	limit        int
	waitSeconds  int
	pollInterval time.Duration
	authTimeout  time.Duration
}

var _ broker.Broker = (*Client)(nil)

// New creates a Client. Zero options get defaults.
func New(opts Options) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		apiKey:       opts.APIKey,
		http:         opts.HTTPClient,
		limit:        opts.Limit,
		waitSeconds:  opts.WaitSeconds,
		pollInterval: opts.PollInterval,
		authTimeout:  opts.AuthTimeout,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 60 * time.Second}
	}
	if c.waitSeconds <= 0 {
		c.waitSeconds = defaultWaitSeconds
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.authTimeout <= 0 {
		c.authTimeout = defaultAuthTimeout
	}
	return c
}

// ListTools pages through GET /v1/tools for toolkit.
func (c *Client) ListTools(ctx context.Context, toolkit string) ([]broker.Descriptor, error) {
	var out []broker.Descriptor
	pageSize := defaultPageSize
	if c.limit > 0 && c.limit < pageSize {
		pageSize = c.limit
	}

	for offset := 0; ; {
		q := url.Values{}
		q.Set("toolkit", toolkit)
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))

		var page listToolsResponse
		if err := c.do(ctx, http.MethodGet, "/v1/tools?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}

		for _, def := range page.Items {
			out = append(out, def.toDescriptor())
			if c.limit > 0 && len(out) >= c.limit {
				return out, nil
			}
		}

		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.TotalCount {
			return out, nil
		}
	}
}

// Authorize calls POST /v1/tools/authorize.
func (c *Client) Authorize(ctx context.Context, toolName, userID string) (*broker.Authorization, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/v1/tools/authorize", authorizeRequest{ToolName: toolName, UserID: userID}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.toAuthorization(), nil
}

// WaitForAuthorization long-polls GET /v1/auth/status until the
// authorization leaves the pending state or AuthTimeout passes.
func (c *Client) WaitForAuthorization(ctx context.Context, auth *broker.Authorization) (*broker.Authorization, error) {
	if auth.Status != broker.AuthPending {
		return auth, nil
	}
	if auth.ID == "" {
		return nil, errors.New("pending authorization has no id")
	}

	q := url.Values{}
	q.Set("id", auth.ID)
	q.Set("wait", strconv.Itoa(c.waitSeconds))
	path := "/v1/auth/status?" + q.Encode()

	poll := func() (*broker.Authorization, error) {
		var resp authResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		current := resp.toAuthorization()
		if current.Status == broker.AuthPending {
			return nil, errStillPending
		}
		return current, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.pollInterval
	b.MaxInterval = 10 * c.pollInterval

	result, err := backoff.Retry(ctx, poll,
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(c.authTimeout),
		backoff.WithNotify(func(err error, d time.Duration) {
			slog.Debug("authorization poll", "id", auth.ID, "error", err, "next", d)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("waiting for authorization %s: %w", auth.ID, err)
	}
	return result, nil
}

// Execute calls POST /v1/tools/execute and returns the output value as text.
func (c *Client) Execute(ctx context.Context, toolName, userID string, args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}

	var resp executeResponse
	err := c.do(ctx, http.MethodPost, "/v1/tools/execute", executeRequest{ToolName: toolName, Input: args, UserID: userID}, &resp)
	if err != nil {
		return "", err
	}

	if resp.Output.Error != nil {
		return "", fmt.Errorf("%w: %s: %s", broker.ErrToolFailed, toolName, resp.Output.Error.Message)
	}
	if !resp.Success {
		return "", fmt.Errorf("%w: %s: status %s", broker.ErrToolFailed, toolName, resp.Status)
	}

	return valueText(resp.Output.Value)
}

func valueText(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return "", fmt.Errorf("failed to encode tool output: %w", err)
		}
		return string(data), nil
	}
}

func (r authResponse) toAuthorization() *broker.Authorization {
	status := broker.AuthStatus(r.Status)
	switch status {
	case broker.AuthCompleted, broker.AuthPending, broker.AuthFailed:
	default:
		status = broker.AuthFailed
	}
	return &broker.Authorization{ID: r.ID, Status: status, URL: r.URL}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("arcade request %s %s: %w", method, strings.SplitN(path, "?", 2)[0], err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data, resp.Status)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func errorMessage(body []byte, status string) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return status
}
