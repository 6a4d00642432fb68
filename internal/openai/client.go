// Package openai talks to OpenAI-compatible embeddings and chat completion endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"docassist/internal/log"
)

// Config configures an OpenAI-compatible client.
type Config struct {
	BaseURL           string
	APIKey            string
	APIKeyEnv         string
	Timeout           time.Duration
	MaxAttempts       int
	RequestsPerSecond float64
	// BackoffBase is the first retry delay; it doubles per attempt up to 5s.
	BackoffBase time.Duration
	HTTPClient  *http.Client
}

// StatusError is a non-2xx response from the service.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return "openai: " + e.Status
	}
	return fmt.Sprintf("openai: %s: %s", e.Status, e.Body)
}

// Client sends JSON requests with bounded retries and optional rate limiting.
type Client struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	maxAttempts int
	backoffBase time.Duration
	limiter     *rate.Limiter
}

// NewClient creates a client. The API key is taken from Config.APIKey or, if empty,
// from the environment variable named by Config.APIKeyEnv.
func NewClient(cfg Config) (*Client, error) {
	key := cfg.APIKey
	if key == "" && cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: t}
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 200 * time.Millisecond
	}
	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      key,
		client:      hc,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c, nil
}

// postJSON posts body to path and decodes the response into out.
// Transport errors, 429 and 5xx responses are retried; other failures return at once.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := c.baseURL + path
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			log.Debug("retrying request", "url", url, "attempt", attempt+1, "error", lastErr.Error())
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		delay, err := c.do(ctx, url, data, out, attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if delay < 0 || attempt == c.maxAttempts-1 {
			break
		}
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
			log.Debug("retry would outlast deadline", "url", url, "delay", delay.String())
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

// do performs one attempt. A negative delay means the error is not retryable.
func (c *Client) do(ctx context.Context, url string, data []byte, out any, attempt int) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return -1, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return -1, ctx.Err()
		}
		return retryDelay(c.backoffBase, attempt), err
	}
	payload, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		delay := retryAfter(resp.Header.Get("Retry-After"), retryDelay(c.backoffBase, attempt))
		return delay, statusError(resp, payload)
	}
	if resp.StatusCode >= 300 {
		return -1, statusError(resp, payload)
	}
	if err != nil {
		return retryDelay(c.backoffBase, attempt), err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return retryDelay(c.backoffBase, attempt), fmt.Errorf("decode response: %w", err)
	}
	return 0, nil
}

func statusError(resp *http.Response, payload []byte) error {
	msg := strings.TrimSpace(string(payload))
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: msg}
}

// IsAuthError reports whether err is a 401 or 403 response.
func IsAuthError(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// maxRetryAfter caps the wait a server can request through Retry-After.
const maxRetryAfter = 30 * time.Second

// retryAfter returns the delay requested by a Retry-After header in seconds,
// capped at maxRetryAfter, or fallback when the header is absent or invalid.
func retryAfter(header string, fallback time.Duration) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return fallback
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter)
}

func retryDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
