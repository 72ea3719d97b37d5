// Package config defines all configuration structures for CivicPulse.
// No I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	domainanalysis "github.com/turtacn/CivicPulse/internal/domain/analysis"
	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
)

// Input sources.
const (
	SourceCSV      = "csv"
	SourceMinIO    = "minio"
	SourcePostgres = "postgres"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxBodySize caps POST /api/v1/analysis/preview uploads, in bytes.
	MaxBodySize int64 `mapstructure:"max_body_size"`
	// PreviewRate and PreviewBurst throttle previews per client, in
	// requests per second.
	PreviewRate  float64 `mapstructure:"preview_rate"`
	PreviewBurst int     `mapstructure:"preview_burst"`
	// CORSOrigins are the browser origins allowed to call the API. Empty
	// disables CORS headers.
	CORSOrigins []string      `mapstructure:"cors_origins"`
	CORSMaxAge  time.Duration `mapstructure:"cors_max_age"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AnalysisConfig carries the engine policy plus the sanitation bounds.
type AnalysisConfig struct {
	domainanalysis.Parameters `mapstructure:",squash"`
	BoundingBox               servicerequest.BoundingBox `mapstructure:"bounding_box"`
	CacheTTL                  time.Duration              `mapstructure:"cache_ttl"`
}

// InputConfig says where a run reads its inputs from.
type InputConfig struct {
	Source       string `mapstructure:"source"` // "csv" | "minio" | "postgres"
	RequestsPath string `mapstructure:"requests_path"`
	PostsPath    string `mapstructure:"posts_path"`
	RequestsKey  string `mapstructure:"requests_key"`
	PostsKey     string `mapstructure:"posts_key"`
}

// OutputConfig controls where and how the CLI writes the document.
type OutputConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"` // "json" | "yaml"
	Pretty bool   `mapstructure:"pretty"`
	Top    int    `mapstructure:"top"`
}

// PostgresConfig holds PostgreSQL connection parameters for the staging
// tables.
type PostgresConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	DBName           string        `mapstructure:"db_name"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `mapstructure:"conn_max_idle_time"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

// RedisConfig holds Redis connection parameters for the result cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds run-request and run-completed bus parameters.
type KafkaConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	MaxRetries      int           `mapstructure:"max_retries"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
}

// MinIOConfig holds object storage parameters for the run archive.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// OpenSearchConfig points at the cluster that receives hotspot documents
// for dashboards.
type OpenSearchConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addresses      []string      `mapstructure:"addresses"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	Index          string        `mapstructure:"index"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// MetricsConfig controls the Prometheus collector.
type MetricsConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Namespace            string `mapstructure:"namespace"`
	Path                 string `mapstructure:"path"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
}

// SchedulerConfig drives periodic runs enqueued by the worker.
type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Cron     string        `mapstructure:"cron"`
	Timezone string        `mapstructure:"timezone"`
	Source   string        `mapstructure:"source"`
	Archive  bool          `mapstructure:"archive"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// WorkerConfig holds background worker tunables.
type WorkerConfig struct {
	Concurrency   int           `mapstructure:"concurrency"`
	RunTimeout    time.Duration `mapstructure:"run_timeout"`
	HealthPort    int           `mapstructure:"health_port"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Log        logging.LogConfig `mapstructure:"log"`
	Analysis   AnalysisConfig    `mapstructure:"analysis"`
	Input      InputConfig       `mapstructure:"input"`
	Output     OutputConfig      `mapstructure:"output"`
	Postgres   PostgresConfig    `mapstructure:"postgres"`
	Redis      RedisConfig       `mapstructure:"redis"`
	Kafka      KafkaConfig       `mapstructure:"kafka"`
	MinIO      MinIOConfig       `mapstructure:"minio"`
	OpenSearch OpenSearchConfig  `mapstructure:"opensearch"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
	Scheduler  SchedulerConfig   `mapstructure:"scheduler"`
	Worker     WorkerConfig      `mapstructure:"worker"`
}

// Validate checks invariants after defaults have been applied.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxBodySize <= 0 {
		return fmt.Errorf("config: server.max_body_size must be positive")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format must be json or console, got %q", c.Log.Format)
	}

	if err := c.Analysis.Parameters.Validate(); err != nil {
		return fmt.Errorf("config: analysis: %w", err)
	}
	if !c.Analysis.BoundingBox.IsZero() && !c.Analysis.BoundingBox.Valid() {
		return fmt.Errorf("config: analysis.bounding_box must have min < max on both axes")
	}

	switch c.Input.Source {
	case SourceCSV:
		if c.Input.RequestsPath == "" {
			return fmt.Errorf("config: input.requests_path is required for source %q", SourceCSV)
		}
	case SourceMinIO:
		if !c.MinIO.Enabled {
			return fmt.Errorf("config: input.source %q requires minio.enabled", SourceMinIO)
		}
		if c.Input.RequestsKey == "" {
			return fmt.Errorf("config: input.requests_key is required for source %q", SourceMinIO)
		}
	case SourcePostgres:
		if !c.Postgres.Enabled {
			return fmt.Errorf("config: input.source %q requires postgres.enabled", SourcePostgres)
		}
	default:
		return fmt.Errorf("config: input.source must be one of csv, minio, postgres, got %q", c.Input.Source)
	}

	switch strings.ToLower(c.Output.Format) {
	case "json", "yaml", "yml":
	default:
		return fmt.Errorf("config: output.format must be json or yaml, got %q", c.Output.Format)
	}
	if c.Output.Top < 0 {
		return fmt.Errorf("config: output.top must be >= 0")
	}

	if c.Postgres.Enabled {
		if c.Postgres.Host == "" || c.Postgres.DBName == "" {
			return fmt.Errorf("config: postgres.host and postgres.db_name are required")
		}
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker")
	}
	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.endpoint and minio.bucket are required")
		}
	}
	if c.OpenSearch.Enabled {
		if len(c.OpenSearch.Addresses) == 0 || c.OpenSearch.Index == "" {
			return fmt.Errorf("config: opensearch.addresses and opensearch.index are required")
		}
		if c.OpenSearch.MaxRetries < 0 {
			return fmt.Errorf("config: opensearch.max_retries must be >= 0")
		}
	}

	if c.Scheduler.Enabled {
		if c.Scheduler.Cron == "" {
			return fmt.Errorf("config: scheduler.cron is required")
		}
		if !c.Kafka.Enabled {
			return fmt.Errorf("config: scheduler requires kafka.enabled")
		}
		if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
			return fmt.Errorf("config: scheduler.timezone %q: %w", c.Scheduler.Timezone, err)
		}
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1")
	}
	return nil
}

//Personal.AI order the ending
