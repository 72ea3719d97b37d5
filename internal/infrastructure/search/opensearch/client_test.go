package opensearch

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CivicPulse/internal/config"
	"github.com/turtacn/CivicPulse/internal/testutil"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// fakeCluster answers the handful of endpoints the indexer uses.
type fakeCluster struct {
	mu          sync.Mutex
	pingStatus  int
	indexExists bool
	created     string
	bulkLines   []string
	bulkReply   string
	calls       []string
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/":
		if f.pingStatus != 0 {
			w.WriteHeader(f.pingStatus)
		}
	case r.Method == http.MethodHead:
		if !f.indexExists {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.created = string(body)
		f.indexExists = true
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	case r.URL.Path == "/_bulk":
		sc := bufio.NewScanner(r.Body)
		sc.Buffer(make([]byte, 1<<20), 1<<20)
		for sc.Scan() {
			f.bulkLines = append(f.bulkLines, sc.Text())
		}
		reply := f.bulkReply
		if reply == "" {
			reply = `{"errors":false,"items":[]}`
		}
		_, _ = w.Write([]byte(reply))
	default:
		http.NotFound(w, r)
	}
}

func newFakeCluster(t *testing.T) (*fakeCluster, config.OpenSearchConfig) {
	t.Helper()
	f := &fakeCluster{}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, config.OpenSearchConfig{
		Enabled:        true,
		Addresses:      []string{srv.URL},
		Index:          "civicpulse-hotspots",
		RequestTimeout: time.Second,
	}
}

func TestValidateConfig(t *testing.T) {
	valid := config.OpenSearchConfig{Addresses: []string{"http://localhost:9200"}, Index: "x", RequestTimeout: time.Second}
	assert.NoError(t, ValidateConfig(valid))

	tests := []struct {
		name   string
		mutate func(*config.OpenSearchConfig)
	}{
		{"no addresses", func(c *config.OpenSearchConfig) { c.Addresses = nil }},
		{"no index", func(c *config.OpenSearchConfig) { c.Index = "" }},
		{"negative retries", func(c *config.OpenSearchConfig) { c.MaxRetries = -1 }},
		{"zero timeout", func(c *config.OpenSearchConfig) { c.RequestTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.True(t, errors.IsCode(ValidateConfig(cfg), errors.ErrCodeConfigurationErr))
		})
	}
}

func TestNewClient(t *testing.T) {
	_, cfg := newFakeCluster(t)
	log := testutil.NewMockLogger()

	c, err := NewClient(context.Background(), cfg, log)
	require.NoError(t, err)
	assert.NoError(t, c.HealthCheck(context.Background()))
	assert.True(t, log.HasMessage("info", "OpenSearch connection established"))
	assert.NoError(t, c.Close())
}

func TestNewClient_PingFails(t *testing.T) {
	f, cfg := newFakeCluster(t)
	f.pingStatus = http.StatusUnauthorized

	_, err := NewClient(context.Background(), cfg, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIndexError))
}

func TestNewClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewClient(context.Background(), config.OpenSearchConfig{
		Addresses: []string{addr}, Index: "x", RequestTimeout: 200 * time.Millisecond,
	}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIndexError))
}

func decodeLine(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &m))
	return m
}

//Personal.AI order the ending
