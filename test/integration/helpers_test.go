//go:build integration

// Package integration runs the analysis pipeline against real PostgreSQL and
// Redis containers. Tests require Docker and CIVICPULSE_INTEGRATION_TEST=1.
package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/CivicPulse/internal/config"
)

const (
	// EnvIntegrationEnabled controls whether integration tests run.
	EnvIntegrationEnabled = "CIVICPULSE_INTEGRATION_TEST"

	startupTimeout = 90 * time.Second
)

func skipIfNoIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv(EnvIntegrationEnabled) == "" {
		t.Skipf("skipping integration test: set %s=1 to enable", EnvIntegrationEnabled)
	}
}

func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) (string, int) {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	p, err := strconv.Atoi(mapped.Port())
	require.NoError(t, err)
	return host, p
}

// startPostgres launches PostgreSQL 16 and returns a config pointing at it.
func startPostgres(t *testing.T) config.PostgresConfig {
	t.Helper()
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "civicpulse",
			"POSTGRES_PASSWORD": "civicpulse",
			"POSTGRES_DB":       "civicpulse_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(startupTimeout),
	}, "5432/tcp")

	cfg := config.Defaults().Postgres
	cfg.Enabled = true
	cfg.Host = host
	cfg.Port = port
	cfg.User = "civicpulse"
	cfg.Password = "civicpulse"
	cfg.DBName = "civicpulse_test"
	cfg.SSLMode = "disable"
	return cfg
}

// startRedis launches Redis 7 and returns a config pointing at it.
func startRedis(t *testing.T) config.RedisConfig {
	t.Helper()
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(startupTimeout),
	}, "6379/tcp")

	cfg := config.Defaults().Redis
	cfg.Enabled = true
	cfg.Addr = fmt.Sprintf("%s:%d", host, port)
	cfg.KeyPrefix = "civicpulse-it:"
	return cfg
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

//Personal.AI order the ending
