// Command worker consumes queued analysis runs, executes them and announces
// the outcome. With the scheduler enabled it also enqueues periodic runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	"github.com/turtacn/CivicPulse/internal/bootstrap"
	"github.com/turtacn/CivicPulse/internal/config"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/redis"
	"github.com/turtacn/CivicPulse/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/internal/infrastructure/scheduler"
	httpserver "github.com/turtacn/CivicPulse/internal/interfaces/http"
	"github.com/turtacn/CivicPulse/internal/interfaces/http/handlers"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

const serviceName = "civicpulse-worker"

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	workers := flag.Int("workers", 0, "concurrent consumers (overrides worker.concurrency)")
	flag.Parse()

	var opts []config.LoadOption
	if *configPath != "" {
		opts = append(opts, config.WithConfigPath(*configPath))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Worker.Concurrency = *workers
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("worker failed", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	if !cfg.Kafka.Enabled {
		return errors.New(errors.ErrCodeConfigurationErr, "the worker needs kafka.enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting CivicPulse worker",
		logging.String("version", version),
		logging.Int("consumers", cfg.Worker.Concurrency))

	metrics, err := bootstrap.NewMetrics(cfg.Metrics, logger)
	if err != nil {
		return err
	}

	infra, err := bootstrap.Open(ctx, cfg, bootstrap.All, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	ensureTopics(ctx, cfg.Kafka, logger)

	events := kafka.NewRunEvents(infra.Producer, serviceName, logger)
	publishers := bootstrap.Publishers{events}
	if infra.Postgres != nil {
		publishers = append(publishers, repositories.NewRunRepository(infra.Postgres, logger))
	}

	svc, err := bootstrap.NewService(cfg, infra, bootstrap.ServiceOptions{
		Metrics:   metrics.Collector(),
		Publisher: publishers,
	}, logger)
	if err != nil {
		return err
	}

	consumers, err := startConsumers(ctx, cfg, svc, infra, metrics, logger)
	defer func() {
		for _, c := range consumers {
			if err := c.Close(); err != nil {
				logger.Warn("closing consumer failed", logging.Err(err))
			}
		}
	}()
	if err != nil {
		return err
	}

	sched, err := startScheduler(cfg.Scheduler, events, infra, logger)
	if err != nil {
		return err
	}

	health := startHealthServer(cfg, infra, metrics, logger)

	<-ctx.Done()
	logger.Info("received shutdown signal, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownGrace)
	defer cancel()

	if sched != nil {
		select {
		case <-sched.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn("scheduler tick still running at shutdown")
		}
	}
	if err := health.Stop(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}
	logger.Info("CivicPulse worker stopped")
	return nil
}

// startConsumers runs cfg.Worker.Concurrency readers in one consumer group,
// each handling one run at a time.
func startConsumers(ctx context.Context, cfg *config.Config, svc *analysis.Service, infra *bootstrap.Infrastructure, metrics *bootstrap.Metrics, logger logging.Logger) ([]*kafka.Consumer, error) {
	handler := kafka.NewRunRequestHandler(svc, cfg.Worker.RunTimeout)
	consumerCfg := kafka.ConsumerConfigFrom(cfg.Kafka, analysis.TopicRunRequested)

	var consumers []*kafka.Consumer
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		c, err := kafka.NewConsumer(consumerCfg, logger.With(logging.Int("consumer", i)),
			kafka.WithDeadLetterPublisher(infra.Producer),
			kafka.WithConsumerMetrics(metrics.AppMetrics()))
		if err != nil {
			return consumers, err
		}
		consumers = append(consumers, c)
		c.Subscribe(analysis.TopicRunRequested, handler)
		if err := c.Start(ctx); err != nil {
			return consumers, err
		}
	}
	return consumers, nil
}

func startScheduler(cfg config.SchedulerConfig, requester analysis.RunRequester, infra *bootstrap.Infrastructure, logger logging.Logger) (*scheduler.Scheduler, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	var leaser scheduler.Leaser
	if infra.Redis != nil {
		leaser = redis.NewLockFactory(infra.Redis, logger)
	} else {
		logger.Warn("scheduler running without redis: every replica enqueues on every tick")
	}
	sched, err := scheduler.New(cfg, requester, leaser, logger)
	if err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}

func ensureTopics(ctx context.Context, cfg config.KafkaConfig, logger logging.Logger) {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	tm, err := kafka.NewTopicManager(dialCtx, cfg.Brokers, logger)
	if err != nil {
		logger.Warn("topic setup skipped", logging.Err(err))
		return
	}
	defer tm.Close()
	if err := tm.EnsureTopics(kafka.DefaultTopics(cfg.DeadLetterTopic)); err != nil {
		logger.Warn("topic setup incomplete", logging.Err(err))
	}
}

func startHealthServer(cfg *config.Config, infra *bootstrap.Infrastructure, metrics *bootstrap.Metrics, logger logging.Logger) *httpserver.Server {
	router := httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:  handlers.NewHealthHandler(version, infra.HealthCheckers()...),
		Logger:         logger,
		MetricsHandler: metrics.ScrapeHandler(),
		MetricsPath:    cfg.Metrics.Path,
	})
	srvCfg := cfg.Server
	srvCfg.Port = cfg.Worker.HealthPort
	srv := httpserver.NewServer(srvCfg, router, logger.Named("health"))
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("health server error", logging.Err(err))
		}
	}()
	return srv
}

//Personal.AI order the ending
