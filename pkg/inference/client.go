package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Client is the minimal contract for a text-generation backend.
// Implementations must respect context cancellation.
type Client interface {
	// Generate sends a prompt (and optional system prompt) to the backend
	// and returns the free-text response. Failures are *InferenceError.
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// ClientConfig configures the HTTP inference client.
type ClientConfig struct {
	// BaseURL is the backend base URL (e.g. "http://localhost:11434").
	BaseURL string

	// Model is the model name sent with every request.
	Model string

	// Timeout is the per-request timeout. Default: 60s.
	Timeout time.Duration

	// MaxIdleConns caps idle connections in the pool. Default: 10.
	MaxIdleConns int

	// IdleConnTimeout is how long idle connections are kept. Default: 90s.
	IdleConnTimeout time.Duration
}

// generateRequest is the wire shape of a generation request.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

// generateResponse is the wire shape of a generation response.
type generateResponse struct {
	Response string `json:"response"`
}

// HTTPClient talks to an Ollama-style generation endpoint. It performs a
// single call per Generate; retry and circuit breaking live in
// ResilientClient.
type HTTPClient struct {
	config ClientConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTPClient creates an HTTP inference client with connection pooling.
func NewHTTPClient(cfg ClientConfig, logger *slog.Logger) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 10
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:    cfg.MaxIdleConns,
		IdleConnTimeout: cfg.IdleConnTimeout,
	}

	return &HTTPClient{
		config: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: logger.With("component", "inference.http"),
	}
}

// Generate implements Client.
func (c *HTTPClient) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.config.Model,
		Prompt: prompt,
		System: systemPrompt,
		Stream: false,
	})
	if err != nil {
		return "", &InferenceError{
			Kind:    KindInvalidRequest,
			Message: "failed to encode request",
			Cause:   err,
		}
	}

	url := c.config.BaseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &InferenceError{
			Kind:    KindInvalidRequest,
			Message: "failed to create request",
			Cause:   err,
		}
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending generation request",
		"model", c.config.Model,
		"prompt_bytes", len(prompt),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", classifyTransportError(err, c.config.Timeout)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &InferenceError{
			Kind:    KindNetwork,
			Message: "failed to read response body",
			Cause:   err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classifyStatus(resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	var decoded generateResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", &InferenceError{
			Kind:    KindUnknown,
			Message: "backend returned a malformed response",
			Details: map[string]any{"body": truncate(string(respBody), 200)},
			Cause:   err,
		}
	}

	return decoded.Response, nil
}

// classifyTransportError maps a transport-level failure to an error kind.
func classifyTransportError(err error, timeout time.Duration) *InferenceError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &InferenceError{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("request timed out after %s", timeout),
			Cause:   err,
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &InferenceError{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("request timed out after %s", timeout),
			Cause:   err,
		}
	}
	return &InferenceError{
		Kind:    KindNetwork,
		Message: "failed to reach inference backend",
		Cause:   err,
	}
}

// classifyStatus maps a non-2xx HTTP status to an error kind.
func classifyStatus(status int, body []byte, retryAfter string) *InferenceError {
	details := map[string]any{
		"status": status,
		"body":   truncate(string(body), 200),
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &InferenceError{
			Kind:    KindAuthentication,
			Message: "backend rejected credentials",
			Details: details,
		}
	case status == http.StatusTooManyRequests:
		if retryAfter != "" {
			details["retry_after"] = retryAfter
		}
		return &InferenceError{
			Kind:    KindRateLimit,
			Message: "backend rate limit exceeded",
			Details: details,
		}
	case status == http.StatusBadRequest ||
		status == http.StatusNotFound ||
		status == http.StatusUnprocessableEntity:
		return &InferenceError{
			Kind:    KindInvalidRequest,
			Message: fmt.Sprintf("backend rejected request (status %d)", status),
			Details: details,
		}
	case status >= 500:
		return &InferenceError{
			Kind:    KindServerError,
			Message: fmt.Sprintf("backend server error (status %d)", status),
			Details: details,
		}
	default:
		return &InferenceError{
			Kind:    KindUnknown,
			Message: fmt.Sprintf("unexpected backend status %d", status),
			Details: details,
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
