package config

import (
	"time"

	domainanalysis "github.com/turtacn/CivicPulse/internal/domain/analysis"
	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost            = "0.0.0.0"
	DefaultServerPort            = 8080
	DefaultServerReadTimeout     = 30 * time.Second
	DefaultServerWriteTimeout    = 60 * time.Second
	DefaultServerShutdownTimeout = 15 * time.Second
	DefaultServerMaxBodySize     = 32 << 20
	DefaultServerPreviewRate     = 0.5
	DefaultServerPreviewBurst    = 5
	DefaultServerCORSMaxAge      = 10 * time.Minute

	DefaultCacheTTL = time.Hour

	DefaultInputSource  = SourceCSV
	DefaultRequestsPath = "data/311_requests.csv"
	DefaultPostsPath    = "data/reddit_posts.csv"
	DefaultRequestsKey  = "inputs/311_requests.csv"
	DefaultPostsKey     = "inputs/reddit_posts.csv"

	DefaultOutputPath   = "data/analysis_results.json"
	DefaultOutputFormat = "json"
	DefaultOutputTop    = 10

	DefaultPostgresHost     = "localhost"
	DefaultPostgresPort     = 5432
	DefaultPostgresUser     = "civicpulse"
	DefaultPostgresDBName   = "civicpulse"
	DefaultPostgresSSLMode  = "disable"
	DefaultPostgresMaxOpen  = 25
	DefaultPostgresMaxIdle  = 10
	DefaultPostgresLifetime = 30 * time.Minute
	DefaultPostgresIdleTime = 5 * time.Minute
	DefaultPostgresStmtTO   = 30 * time.Second

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPoolSize  = 10
	DefaultRedisTimeout   = 3 * time.Second
	DefaultRedisKeyPrefix = "civicpulse:"

	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaGroupID      = "civicpulse-worker"
	DefaultKafkaOffsetReset  = "earliest"
	DefaultKafkaMaxRetries   = 3
	DefaultKafkaBatchTimeout = 10 * time.Millisecond
	DefaultKafkaDeadLetter   = "civicpulse.analysis.dlq"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "civicpulse"
	DefaultMinIORegion   = "us-east-1"
	DefaultMinIOPrefix   = "analysis/"

	DefaultOpenSearchAddress    = "http://localhost:9200"
	DefaultOpenSearchIndex      = "civicpulse-hotspots"
	DefaultOpenSearchMaxRetries = 3
	DefaultOpenSearchTimeout    = 10 * time.Second

	DefaultMetricsNamespace = "civicpulse"
	DefaultMetricsPath      = "/metrics"

	DefaultSchedulerCron     = "0 3 * * *"
	DefaultSchedulerTimezone = "America/New_York"
	DefaultSchedulerLockTTL  = 5 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency   = 2
	DefaultWorkerRunTimeout    = 10 * time.Minute
	DefaultWorkerHealthPort    = 8081
	DefaultWorkerShutdownGrace = 30 * time.Second
)

// Defaults returns a Config populated with every default, boolean switches
// included. The loader registers it with viper so env overrides resolve for
// keys absent from the file.
func Defaults() *Config {
	cfg := &Config{}
	cfg.Analysis.Parameters = domainanalysis.DefaultParameters()
	cfg.Analysis.BoundingBox = servicerequest.BaltimoreBoundingBox
	cfg.Output.Pretty = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableProcessMetrics = true
	cfg.Metrics.EnableGoMetrics = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-value field in cfg with the default.
// Fields that have already been set (non-zero values) are left unchanged so
// that explicit configuration always wins. Boolean switches are not touched.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultServerMaxBodySize
	}
	if cfg.Server.PreviewRate == 0 {
		cfg.Server.PreviewRate = DefaultServerPreviewRate
	}
	if cfg.Server.PreviewBurst == 0 {
		cfg.Server.PreviewBurst = DefaultServerPreviewBurst
	}
	if cfg.Server.CORSMaxAge == 0 {
		cfg.Server.CORSMaxAge = DefaultServerCORSMaxAge
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Analysis ──────────────────────────────────────────────────────────────
	applyParameterDefaults(&cfg.Analysis.Parameters)
	if cfg.Analysis.CacheTTL == 0 {
		cfg.Analysis.CacheTTL = DefaultCacheTTL
	}

	// ── Input / Output ────────────────────────────────────────────────────────
	if cfg.Input.Source == "" {
		cfg.Input.Source = DefaultInputSource
	}
	if cfg.Input.RequestsPath == "" {
		cfg.Input.RequestsPath = DefaultRequestsPath
	}
	if cfg.Input.PostsPath == "" {
		cfg.Input.PostsPath = DefaultPostsPath
	}
	if cfg.Input.RequestsKey == "" {
		cfg.Input.RequestsKey = DefaultRequestsKey
	}
	if cfg.Input.PostsKey == "" {
		cfg.Input.PostsKey = DefaultPostsKey
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = DefaultOutputPath
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = DefaultOutputFormat
	}
	if cfg.Output.Top == 0 {
		cfg.Output.Top = DefaultOutputTop
	}

	// ── Postgres ──────────────────────────────────────────────────────────────
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = DefaultPostgresHost
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Postgres.User == "" {
		cfg.Postgres.User = DefaultPostgresUser
	}
	if cfg.Postgres.DBName == "" {
		cfg.Postgres.DBName = DefaultPostgresDBName
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.Postgres.MaxOpenConns == 0 {
		cfg.Postgres.MaxOpenConns = DefaultPostgresMaxOpen
	}
	if cfg.Postgres.MaxIdleConns == 0 {
		cfg.Postgres.MaxIdleConns = DefaultPostgresMaxIdle
	}
	if cfg.Postgres.ConnMaxLifetime == 0 {
		cfg.Postgres.ConnMaxLifetime = DefaultPostgresLifetime
	}
	if cfg.Postgres.ConnMaxIdleTime == 0 {
		cfg.Postgres.ConnMaxIdleTime = DefaultPostgresIdleTime
	}
	if cfg.Postgres.StatementTimeout == 0 {
		cfg.Postgres.StatementTimeout = DefaultPostgresStmtTO
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = DefaultRedisTimeout
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = DefaultRedisTimeout
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = DefaultRedisTimeout
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = DefaultKafkaOffsetReset
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = DefaultKafkaMaxRetries
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = DefaultKafkaBatchTimeout
	}
	if cfg.Kafka.DeadLetterTopic == "" {
		cfg.Kafka.DeadLetterTopic = DefaultKafkaDeadLetter
	}

	// ── OpenSearch ────────────────────────────────────────────────────────────
	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddress}
	}
	if cfg.OpenSearch.Index == "" {
		cfg.OpenSearch.Index = DefaultOpenSearchIndex
	}
	if cfg.OpenSearch.MaxRetries == 0 {
		cfg.OpenSearch.MaxRetries = DefaultOpenSearchMaxRetries
	}
	if cfg.OpenSearch.RequestTimeout == 0 {
		cfg.OpenSearch.RequestTimeout = DefaultOpenSearchTimeout
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.Region == "" {
		cfg.MinIO.Region = DefaultMinIORegion
	}
	if cfg.MinIO.Prefix == "" {
		cfg.MinIO.Prefix = DefaultMinIOPrefix
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Scheduler ─────────────────────────────────────────────────────────────
	if cfg.Scheduler.Cron == "" {
		cfg.Scheduler.Cron = DefaultSchedulerCron
	}
	if cfg.Scheduler.Timezone == "" {
		cfg.Scheduler.Timezone = DefaultSchedulerTimezone
	}
	if cfg.Scheduler.LockTTL == 0 {
		cfg.Scheduler.LockTTL = DefaultSchedulerLockTTL
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.RunTimeout == 0 {
		cfg.Worker.RunTimeout = DefaultWorkerRunTimeout
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultWorkerHealthPort
	}
	if cfg.Worker.ShutdownGrace == 0 {
		cfg.Worker.ShutdownGrace = DefaultWorkerShutdownGrace
	}
}

// applyParameterDefaults leaves chronic_min_span_days and workers alone:
// zero is meaningful for both.
func applyParameterDefaults(p *domainanalysis.Parameters) {
	d := domainanalysis.DefaultParameters()
	if p.EpsMeters == 0 {
		p.EpsMeters = d.EpsMeters
	}
	if p.MinSamples == 0 {
		p.MinSamples = d.MinSamples
	}
	if p.ChronicMinReports == 0 {
		p.ChronicMinReports = d.ChronicMinReports
	}
	if p.RereportWindowDays == 0 {
		p.RereportWindowDays = d.RereportWindowDays
	}
	if p.HighPriorityReports == 0 {
		p.HighPriorityReports = d.HighPriorityReports
	}
	if p.HighPriorityFailedFixes == 0 {
		p.HighPriorityFailedFixes = d.HighPriorityFailedFixes
	}
	if p.TrendWindowDays == 0 {
		p.TrendWindowDays = d.TrendWindowDays
	}
	if p.GapMinSignal == 0 {
		p.GapMinSignal = d.GapMinSignal
	}
	if p.GapMeanFraction == 0 {
		p.GapMeanFraction = d.GapMeanFraction
	}
}

//Personal.AI order the ending
