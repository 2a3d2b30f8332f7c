package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"codequest_admin/internal/common"
	"codequest_admin/internal/platform/metrics"
)

const defaultErrorMessage = "An error occurred"

// TokenSource provides the bearer credential for outgoing calls and forgets
// it when the backend rejects it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Client is the HTTP layer under the gateway. It attaches the stored bearer
// token, clears it on 401 and turns failed responses into *common.BackendError
// carrying a readable message.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, m *metrics.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		metrics: m,
		logger:  logger,
	}
}

// Do sends body as JSON and decodes the response into out when out is not nil.
// route is the path template used as the metrics label.
func (c *Client) Do(ctx context.Context, method, route, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s request: %w", method, route, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building %s %s request: %w", method, route, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("reading admin token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveGateway(route, "error", time.Since(start))
		c.logger.WarnContext(ctx, "backend request failed", "method", method, "route", route, "error", err)
		return &common.BackendError{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()
	c.metrics.ObserveGateway(route, strconv.Itoa(resp.StatusCode), time.Since(start))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &common.BackendError{Status: 0, Message: err.Error()}
	}

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
			if clearErr := c.tokens.Clear(ctx); clearErr != nil {
				c.logger.ErrorContext(ctx, "failed to clear rejected admin token", "error", clearErr)
			}
		}
		backendErr := &common.BackendError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
		c.logger.DebugContext(ctx, "backend returned error", "method", method, "route", route, "status", resp.StatusCode, "message", backendErr.Message)
		return backendErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, route, errors.Join(common.ErrBackend, err))
	}
	return nil
}

// errorMessage prefers the body's "message", then its "error", then the
// status text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return defaultErrorMessage
}
