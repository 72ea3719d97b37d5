// Package bootstrap opens the backing services a CivicPulse process needs and
// assembles the analysis service on top of them. The CLI, the API server and
// the worker share it.
package bootstrap

import (
	"context"
	stderrors "errors"

	"github.com/turtacn/CivicPulse/internal/config"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/postgres"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/redis"
	"github.com/turtacn/CivicPulse/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/internal/infrastructure/search/opensearch"
	"github.com/turtacn/CivicPulse/internal/infrastructure/storage/minio"
	"github.com/turtacn/CivicPulse/internal/interfaces/http/handlers"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// Needs selects the components Open connects. A component is opened only
// when it is both needed and enabled in the configuration.
type Needs struct {
	Postgres   bool
	Redis      bool
	MinIO      bool
	Kafka      bool
	OpenSearch bool
}

// All needs every component.
var All = Needs{Postgres: true, Redis: true, MinIO: true, Kafka: true, OpenSearch: true}

// Infrastructure holds the opened clients. Fields are nil for components
// that were not opened.
type Infrastructure struct {
	Postgres *postgres.Connection
	Redis    *redis.Client
	MinIO    *minio.Client
	Producer *kafka.Producer
	Search   *opensearch.Client

	logger logging.Logger
}

// Open connects the components selected by needs. On failure everything
// already opened is closed again.
func Open(ctx context.Context, cfg *config.Config, needs Needs, log logging.Logger) (*Infrastructure, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	infra := &Infrastructure{logger: log}

	fail := func(err error) (*Infrastructure, error) {
		_ = infra.Close()
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCanceled, "infrastructure startup canceled")
	}

	if needs.Postgres && cfg.Postgres.Enabled {
		conn, err := postgres.NewConnection(cfg.Postgres, log)
		if err != nil {
			return fail(err)
		}
		infra.Postgres = conn
	}
	if needs.Redis && cfg.Redis.Enabled {
		client, err := redis.NewClient(&cfg.Redis, log)
		if err != nil {
			return fail(err)
		}
		infra.Redis = client
	}
	if needs.MinIO && cfg.MinIO.Enabled {
		client, err := minio.NewClient(cfg.MinIO, log)
		if err != nil {
			return fail(err)
		}
		infra.MinIO = client
	}
	if needs.Kafka && cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka), log)
		if err != nil {
			return fail(err)
		}
		infra.Producer = producer
	}
	if needs.OpenSearch && cfg.OpenSearch.Enabled {
		client, err := opensearch.NewClient(ctx, cfg.OpenSearch, log)
		if err != nil {
			return fail(err)
		}
		infra.Search = client
	}

	log.Info("infrastructure initialized",
		logging.Bool("postgres", infra.Postgres != nil),
		logging.Bool("redis", infra.Redis != nil),
		logging.Bool("minio", infra.MinIO != nil),
		logging.Bool("kafka", infra.Producer != nil),
		logging.Bool("opensearch", infra.Search != nil))
	return infra, nil
}

// HealthCheckers returns one readiness probe per opened component.
func (i *Infrastructure) HealthCheckers() []handlers.HealthChecker {
	var checks []handlers.HealthChecker
	if i.Postgres != nil {
		checks = append(checks, handlers.NewChecker("postgres", i.Postgres.HealthCheck))
	}
	if i.Redis != nil {
		checks = append(checks, handlers.NewChecker("redis", i.Redis.HealthCheck))
	}
	if i.MinIO != nil {
		checks = append(checks, handlers.NewChecker("minio", i.MinIO.HealthCheck))
	}
	if i.Search != nil {
		checks = append(checks, handlers.NewChecker("opensearch", i.Search.HealthCheck))
	}
	return checks
}

// Close releases every opened component, producer first.
func (i *Infrastructure) Close() error {
	var errs []error
	if i.Producer != nil {
		errs = append(errs, i.Producer.Close())
	}
	if i.Search != nil {
		errs = append(errs, i.Search.Close())
	}
	if i.MinIO != nil {
		errs = append(errs, i.MinIO.Close())
	}
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.Postgres != nil {
		errs = append(errs, i.Postgres.Close())
	}
	err := stderrors.Join(errs...)
	if err != nil && i.logger != nil {
		i.logger.Warn("closing infrastructure", logging.Err(err))
	}
	return err
}

//Personal.AI order the ending
