package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CivicPulse/pkg/errors"
)

type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, level+": "+fmt.Sprintf(format, args...))
}

func (l *testLogger) Debugf(format string, args ...interface{}) { l.record("debug", format, args...) }
func (l *testLogger) Infof(format string, args ...interface{})  { l.record("info", format, args...) }
func (l *testLogger) Errorf(format string, args ...interface{}) { l.record("error", format, args...) }

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithBackoff(time.Millisecond, 2*time.Millisecond)}, opts...)
	c, err := NewClient(srv.URL+"/", opts...)
	require.NoError(t, err)
	return c
}

func writeEnvelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{"empty", ""},
		{"no scheme", "localhost:8080"},
		{"ftp", "ftp://example.com"},
		{"unparseable", "http://[::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.baseURL)
			assert.Nil(t, c)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient("https://civicpulse.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://civicpulse.example.com", c.baseURL)
	assert.Equal(t, "civicpulse-go-client/"+Version, c.userAgent)
	assert.Equal(t, 3, c.retryMax)
	assert.Same(t, c.Analysis(), c.Analysis())
}

func TestDo_Headers(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":[]}`)
	}, WithAuthToken("secret"), WithUserAgent("ops-dashboard/2"))

	_, err := c.do(context.Background(), request{method: http.MethodGet, path: "api/v1/analysis/runs"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", got.Get("Authorization"))
	assert.Equal(t, "ops-dashboard/2", got.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
}

func TestDo_NoAuthHeaderWithoutToken(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, `{"success":true}`)
	})
	_, err := c.do(context.Background(), request{method: http.MethodGet, path: "/x"})
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestDo_ParsesErrorEnvelope(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeEnvelope(w, http.StatusNotFound,
			`{"success":false,"error":{"code":"ANALYSIS_003","message":"no analysis yet"},"request_id":"req-1"}`)
	})

	_, err := c.do(context.Background(), request{method: http.MethodGet, path: "/api/v1/analysis/latest"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "ANALYSIS_003", apiErr.Code)
	assert.Equal(t, "no analysis yet", apiErr.Message)
	assert.Equal(t, "req-1", apiErr.RequestID)
	assert.True(t, apiErr.IsNotFound())
	assert.False(t, apiErr.IsServerError())
	assert.Contains(t, apiErr.Error(), "HTTP 404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_PlainErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway config", http.StatusBadRequest)
	})
	_, err := c.do(context.Background(), request{method: http.MethodGet, path: "/"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Code)
	assert.Equal(t, "bad gateway config", apiErr.Message)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls int32
	logger := &testLogger{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeEnvelope(w, http.StatusServiceUnavailable, `{"success":false,"error":{"code":"COMMON_006","message":"busy"}}`)
			return
		}
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":"ok"}`)
	}, WithLogger(logger))

	got, err := getData[string](context.Background(), c, request{method: http.MethodGet, path: "/"})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	logger.mu.Lock()
	defer logger.mu.Unlock()
	var retries int
	for _, m := range logger.messages {
		if strings.HasPrefix(m, "debug: Retry attempt") {
			retries++
		}
	}
	assert.Equal(t, 2, retries)
}

func TestDo_GivesUpAfterRetryMax(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeEnvelope(w, http.StatusInternalServerError, `{"success":false,"error":{"code":"COMMON_001","message":"boom"}}`)
	}, WithRetries(2))

	_, err := c.do(context.Background(), request{method: http.MethodGet, path: "/"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDo_RateLimitedHonorsRetryAfter(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			writeEnvelope(w, http.StatusTooManyRequests, `{"success":false,"error":{"code":"RATE_LIMITED","message":"slow down"}}`)
			return
		}
		writeEnvelope(w, http.StatusOK, `{"success":true}`)
	})

	_, err := c.do(context.Background(), request{method: http.MethodPost, path: "/", body: []byte("{}")})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDo_ReplaysBody(t *testing.T) {
	var bodies []string
	var mu sync.Mutex
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(buf))
		n := len(bodies)
		mu.Unlock()
		if n == 1 {
			writeEnvelope(w, http.StatusBadGateway, `{}`)
			return
		}
		writeEnvelope(w, http.StatusOK, `{"success":true}`)
	})

	_, err := c.do(context.Background(), request{method: http.MethodPost, path: "/", body: []byte(`{"source":"csv"}`), contentType: "application/json"})
	require.NoError(t, err)
	assert.Equal(t, []string{`{"source":"csv"}`, `{"source":"csv"}`}, bodies)
}

func TestDo_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusServiceUnavailable, `{}`)
	}, WithBackoff(time.Second, time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestShouldRetry(t *testing.T) {
	assert.True(t, shouldRetry(http.StatusTooManyRequests))
	assert.True(t, shouldRetry(http.StatusInternalServerError))
	assert.True(t, shouldRetry(http.StatusServiceUnavailable))
	assert.False(t, shouldRetry(http.StatusBadRequest))
	assert.False(t, shouldRetry(http.StatusNotFound))
}

func TestCalculateBackoff(t *testing.T) {
	c := &Client{retryWaitMin: 100 * time.Millisecond, retryWaitMax: 300 * time.Millisecond}

	first := c.calculateBackoff(1)
	assert.GreaterOrEqual(t, first, 100*time.Millisecond)
	assert.Less(t, first, 125*time.Millisecond)

	capped := c.calculateBackoff(5)
	assert.GreaterOrEqual(t, capped, 300*time.Millisecond)
	assert.Less(t, capped, 375*time.Millisecond)

	tiny := &Client{retryWaitMin: time.Nanosecond, retryWaitMax: time.Nanosecond}
	assert.Equal(t, time.Nanosecond, tiny.calculateBackoff(1))
}

//Personal.AI order the ending
