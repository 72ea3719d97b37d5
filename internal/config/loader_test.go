package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 9090
log:
  level: debug
  format: console
analysis:
  eps_meters: 60
  chronic_min_reports: 5
  use_spatial_index: false
  bounding_box:
    min_lat: 39.0
    max_lat: 39.6
    min_lon: -77.0
    max_lon: -76.3
input:
  source: csv
  requests_path: /srv/data/311.csv
output:
  format: yaml
  pretty: false
redis:
  enabled: true
  addr: redis:6379
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 60.0, cfg.Analysis.EpsMeters)
	assert.Equal(t, 5, cfg.Analysis.ChronicMinReports)
	assert.False(t, cfg.Analysis.UseSpatialIndex)
	assert.Equal(t, 39.6, cfg.Analysis.BoundingBox.MaxLat)
	assert.Equal(t, "/srv/data/311.csv", cfg.Input.RequestsPath)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.False(t, cfg.Output.Pretty)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_DefaultValues(t *testing.T) {
	path := createTempConfigFile(t, "server:\n  port: 8088\n")
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, DefaultServerHost, cfg.Server.Host)
	assert.Equal(t, DefaultServerReadTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, 90, cfg.Analysis.ChronicMinSpanDays)
	assert.Equal(t, 120, cfg.Analysis.RereportWindowDays)
	assert.Equal(t, 0.5, cfg.Analysis.GapMeanFraction)
	assert.True(t, cfg.Analysis.UseSpatialIndex)
	assert.Equal(t, 39.1, cfg.Analysis.BoundingBox.MinLat)
	assert.True(t, cfg.Output.Pretty)
	assert.Equal(t, DefaultOutputTop, cfg.Output.Top)
	assert.Equal(t, DefaultSchedulerCron, cfg.Scheduler.Cron)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_ExplicitZeroSpanKept(t *testing.T) {
	path := createTempConfigFile(t, "analysis:\n  chronic_min_span_days: 0\n")
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Analysis.ChronicMinSpanDays)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "server: [port: : 1\n")
	_, err := Load(WithConfigPath(path))
	assert.ErrorIs(t, err, ErrConfigParseError)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	path := createTempConfigFile(t, "analysis:\n  eps_meters: -5\n")
	_, err := Load(WithConfigPath(path))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigInvalid)
	assert.Contains(t, err.Error(), "eps_meters")
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	setEnvVars(t, map[string]string{
		"CIVICPULSE_SERVER_PORT": "7070",
	})

	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_EnvOverride_NestedKey(t *testing.T) {
	setEnvVars(t, map[string]string{
		"CIVICPULSE_ANALYSIS_EPS_METERS":           "42.5",
		"CIVICPULSE_ANALYSIS_BOUNDING_BOX_MIN_LAT": "39.2",
		"CIVICPULSE_REDIS_ENABLED":                 "true",
		"CIVICPULSE_SCHEDULER_LOCK_TTL":            "90s",
		"CIVICPULSE_INPUT_POSTS_PATH":              "/tmp/posts.csv",
	})

	cfg, err := Load(WithSearchPaths(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, 42.5, cfg.Analysis.EpsMeters)
	assert.Equal(t, 39.2, cfg.Analysis.BoundingBox.MinLat)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Scheduler.LockTTL)
	assert.Equal(t, "/tmp/posts.csv", cfg.Input.PostsPath)
}

func TestLoad_WithSearchPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "civicpulse.yaml"), []byte(validConfigYAML), 0o644))

	cfg, err := Load(WithSearchPaths(t.TempDir(), dir))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load(WithSearchPaths(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestLoad_WithOverrides(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	setEnvVars(t, map[string]string{"CIVICPULSE_LOG_LEVEL": "warn"})

	cfg, err := Load(WithConfigPath(path), WithOverrides(map[string]interface{}{
		"server.port": 7777,
		"log.level":   "error",
	}))
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadFromFile_Convenience(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadFromEnv_NoFile(t *testing.T) {
	setEnvVars(t, map[string]string{
		"CIVICPULSE_KAFKA_ENABLED": "true",
		"CIVICPULSE_KAFKA_BROKERS": "a:9092,b:9092",
	})

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestMustLoad_Success(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	assert.NotPanics(t, func() {
		MustLoad(WithConfigPath(path))
	})
}

func TestMustLoad_Panic(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(WithConfigPath("non_existent.yaml"))
	})
}

func TestLoad_SetsGlobalConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)
	assert.Same(t, cfg, Get())
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	changed := make(chan *Config, 16)
	failed := make(chan error, 16)
	require.NoError(t, Watch(path, func(c *Config) { changed <- c }, func(err error) { failed <- err }))

	require.NoError(t, os.WriteFile(path, []byte("analysis:\n  eps_meters: 33\n"), 0o644))
	deadline := time.After(5 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case cfg := <-changed:
			// editors and os.WriteFile may emit a truncate event first
			reloaded = cfg.Analysis.EpsMeters == 33
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}

	require.NoError(t, os.WriteFile(path, []byte("analysis:\n  eps_meters: -1\n"), 0o644))
	select {
	case err := <-failed:
		assert.ErrorIs(t, err, ErrConfigInvalid)
	case <-time.After(5 * time.Second):
		t.Fatal("invalid edit not reported")
	}
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(filepath.Join(t.TempDir(), "nope.yaml"), func(*Config) {}, nil)
	assert.ErrorIs(t, err, ErrConfigParseError)
}

//Personal.AI order the ending
