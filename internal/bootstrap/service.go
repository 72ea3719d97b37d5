package bootstrap

import (
	"github.com/turtacn/CivicPulse/internal/application/analysis"
	"github.com/turtacn/CivicPulse/internal/config"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/redis"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/internal/infrastructure/search/opensearch"
	"github.com/turtacn/CivicPulse/internal/infrastructure/storage/csvsource"
	"github.com/turtacn/CivicPulse/internal/infrastructure/storage/minio"
)

// ServiceOptions adjusts NewService.
type ServiceOptions struct {
	// Metrics receives engine and cache metrics; nil disables them.
	Metrics analysis.MetricsCollector
	// Publisher announces finished runs; nil disables announcements.
	Publisher analysis.EventPublisher
	// NoCache skips the Redis result cache even when it is open.
	NoCache bool
}

// NewEngine builds an engine from the analysis section of cfg.
func NewEngine(cfg *config.Config, metrics analysis.MetricsCollector, log logging.Logger) (*analysis.Engine, error) {
	opts := []analysis.EngineOption{analysis.WithLogger(log)}
	if metrics != nil {
		opts = append(opts, analysis.WithMetrics(metrics))
	}
	return analysis.NewEngine(cfg.Analysis.Parameters, opts...)
}

// NewService assembles the analysis service over infra. The csv source is
// always registered; minio and postgres are registered when infra opened
// them.
func NewService(cfg *config.Config, infra *Infrastructure, opts ServiceOptions, log logging.Logger) (*analysis.Service, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if infra == nil {
		infra = &Infrastructure{logger: log}
	}

	engine, err := NewEngine(cfg, opts.Metrics, log)
	if err != nil {
		return nil, err
	}

	var cache analysis.Cache
	if infra.Redis != nil && !opts.NoCache {
		cache = redis.NewCache(infra.Redis, log,
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Analysis.CacheTTL))
	}
	var archive analysis.Archive
	if infra.MinIO != nil {
		archive = minio.NewArchive(infra.MinIO, log)
	}

	svc := analysis.NewService(engine, cache, archive, opts.Publisher, log, opts.Metrics, analysis.ServiceConfig{
		Bounds:        cfg.Analysis.BoundingBox,
		DefaultSource: cfg.Input.Source,
		CacheTTL:      cfg.Analysis.CacheTTL,
	})

	if infra.Search != nil {
		svc.SetIndexer(opensearch.NewHotspotIndexer(infra.Search, log))
	}

	files := csvsource.NewSource(cfg.Input.RequestsPath, cfg.Input.PostsPath, log)
	svc.RegisterSource(config.SourceCSV, analysis.SourceSet{Requests: files, Posts: files})

	if infra.MinIO != nil {
		objects := minio.NewSource(infra.MinIO, cfg.Input.RequestsKey, cfg.Input.PostsKey, log)
		svc.RegisterSource(config.SourceMinIO, analysis.SourceSet{Requests: objects, Posts: objects})
	}
	if infra.Postgres != nil {
		svc.RegisterSource(config.SourcePostgres, analysis.SourceSet{
			Requests: repositories.NewRequestRepository(infra.Postgres, log),
			Posts:    repositories.NewPostRepository(infra.Postgres, log),
		})
	}
	return svc, nil
}

//Personal.AI order the ending
