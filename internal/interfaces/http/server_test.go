package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CivicPulse/internal/config"
	"github.com/turtacn/CivicPulse/internal/interfaces/http/handlers"
)

func TestNewServer_Addr(t *testing.T) {
	s := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 8081}, http.NewServeMux(), nil)
	assert.Equal(t, "127.0.0.1:8081", s.Addr())
}

func TestServer_ServeAndStop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	router := NewRouter(RouterConfig{HealthHandler: handlers.NewHealthHandler("test")})
	s := NewServer(config.ServerConfig{ShutdownTimeout: time.Second}, router, nil)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"alive"`)

	require.NoError(t, s.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

//Personal.AI order the ending
