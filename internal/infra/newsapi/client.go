package newsapi

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
	"strings"
	"time"

	"github.com/NewsFlow/internal/domain"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

const maxBodyBytes = 8 << 20

// Client performs single requests against the news backend. It never retries;
// the fetch orchestrator owns the retry budget.
type Client struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
}

var _ domain.NewsAPI = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the default client (which only sets the timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient builds a client for baseURL. breakerThreshold is the number of consecutive
// failed calls that opens the breaker; < 1 disables tripping.
func NewClient(baseURL string, timeout time.Duration, breakerThreshold int, opts ...Option) *Client {
	cbSettings := gobreaker.Settings{
		Name:        "news-api",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return breakerThreshold > 0 && counts.ConsecutiveFailures >= uint32(breakerThreshold)
		},
		IsSuccessful: func(err error) bool {
			// A 4xx means the backend is up and answering
			var apiErr *APIError
			return err == nil || (errors.As(err, &apiErr) && apiErr.IsClientError())
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("CircuitBreaker state changed", "name", name, "from", from, "to", to)
		},
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		cb: gobreaker.NewCircuitBreaker(cbSettings),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJSON issues GET {base}/{path}?{query} and returns the body of a 2xx response.
// Every failure is an *APIError.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := c.endpoint(path, query)

	out, err := c.cb.Execute(func() (interface{}, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if reqErr != nil {
			return nil, newSetupError(fmt.Errorf("failed to create request: %w", reqErr))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())

		slog.Debug("Making request", "url", target)
		resp, respErr := c.client.Do(req)
		if respErr != nil {
			return nil, newTransportError(respErr)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				slog.Warn("Failed to close response body", "error", err)
			}
		}()

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if readErr != nil {
			return nil, newTransportError(fmt.Errorf("failed to read response body: %w", readErr))
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			slog.Warn("Response error", "url", target, "status_code", resp.StatusCode)
			return nil, newStatusError(resp.StatusCode, ServerMessage(body))
		}
		return body, nil
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		// gobreaker.ErrOpenState / ErrTooManyRequests: nothing was sent
		return nil, newTransportError(err)
	}
	return out.([]byte), nil
}

// PostJSON sends payload as JSON to {base}/{path}. Unlike GetJSON it hands back any
// response, 2xx or not; err is only set when no response arrived.
func (c *Client) PostJSON(ctx context.Context, path string, payload any) (int, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, newSetupError(fmt.Errorf("failed to encode payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), bytes.NewReader(raw))
	if err != nil {
		return 0, nil, newSetupError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, newTransportError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("Failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, newTransportError(fmt.Errorf("failed to read response body: %w", err))
	}
	return resp.StatusCode, body, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// ServerMessage pulls {"message": "..."} out of an error body.
func ServerMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}
