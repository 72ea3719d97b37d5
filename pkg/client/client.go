// Package client is a Go client for the CivicPulse API server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/CivicPulse/pkg/errors"
)

const Version = "0.1.0"

// Logger defines the logging interface used by the Client
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// Client talks to one API server.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	authToken    string
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	analysis     *AnalysisClient
	analysisOnce sync.Once
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("civicpulse: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, e.Message, e.RequestID)
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) IsUnavailable() bool {
	return e.StatusCode == http.StatusServiceUnavailable
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// envelope is the server's response wrapper.
type envelope[T any] struct {
	Success   bool   `json:"success"`
	Data      T      `json:"data"`
	RequestID string `json:"request_id"`
	Error     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New(errors.ErrCodeInvalidParam, "base URL is required")
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidParam, "invalid base URL")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, errors.New(errors.ErrCodeInvalidParam, "base URL scheme must be http or https")
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    fmt.Sprintf("civicpulse-go-client/%s", Version),
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Analysis returns the analysis sub-client.
func (c *Client) Analysis() *AnalysisClient {
	c.analysisOnce.Do(func() {
		c.analysis = &AnalysisClient{client: c}
	})
	return c.analysis
}

// request describes one call. body is replayed on every attempt.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	accept      string
}

// do performs req with retries and returns the body of the 2xx answer.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	if !strings.HasPrefix(req.path, "/") {
		req.path = "/" + req.path
	}
	fullURL := c.baseURL + req.path
	if len(req.query) > 0 {
		fullURL += "?" + req.query.Encode()
	}
	if req.accept == "" {
		req.accept = "application/json"
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debugf("Retry attempt %d after %v", attempt, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var bodyReader io.Reader
		if req.body != nil {
			bodyReader = bytes.NewReader(req.body)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.method, fullURL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		requestID := uuid.New().String()
		if req.contentType != "" {
			httpReq.Header.Set("Content-Type", req.contentType)
		}
		httpReq.Header.Set("Accept", req.accept)
		httpReq.Header.Set("User-Agent", c.userAgent)
		httpReq.Header.Set("X-Request-ID", requestID)
		if c.authToken != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.authToken)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Errorf("Request failed: %v", err)
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		c.logger.Debugf("%s %s %d (%v)", req.method, req.path, resp.StatusCode, time.Since(start))

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.retryMax {
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				c.logger.Infof("Rate limited, retrying after %d seconds", seconds)
				select {
				case <-time.After(time.Duration(seconds) * time.Second):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}

		if resp.StatusCode >= 400 {
			apiErr := parseAPIError(resp.StatusCode, respBody, requestID)
			lastErr = apiErr
			if shouldRetry(resp.StatusCode) {
				continue
			}
			return nil, apiErr
		}
		return respBody, nil
	}
	return nil, lastErr
}

func parseAPIError(status int, body []byte, requestID string) *APIError {
	apiErr := &APIError{StatusCode: status, RequestID: requestID}
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		if env.RequestID != "" {
			apiErr.RequestID = env.RequestID
		}
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}

// getData performs req and unwraps the success envelope into T.
func getData[T any](ctx context.Context, c *Client, req request) (T, error) {
	var zero T
	body, err := c.do(ctx, req)
	if err != nil {
		return zero, err
	}
	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return env.Data, nil
}

// shouldRetry retries 5xx and 429.
func shouldRetry(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	if jitterRange := int64(backoff / 4); jitterRange > 0 {
		backoff += time.Duration(rand.Int63n(jitterRange))
	}
	return backoff
}

//Personal.AI order the ending
