// Command apiserver serves the latest analysis, run requests and previews
// over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	"github.com/turtacn/CivicPulse/internal/bootstrap"
	"github.com/turtacn/CivicPulse/internal/config"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/CivicPulse/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/CivicPulse/internal/interfaces/http"
	"github.com/turtacn/CivicPulse/internal/interfaces/http/handlers"
	"github.com/turtacn/CivicPulse/internal/interfaces/http/middleware"
)

const serviceName = "civicpulse-apiserver"

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	port := flag.Int("port", 0, "HTTP port (overrides server.port)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *configPath, logger); err != nil {
		logger.Error("API server failed", logging.Err(err))
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.Load(config.WithConfigPath(path))
}

func run(cfg *config.Config, configPath string, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting CivicPulse API server",
		logging.String("version", version),
		logging.String("addr", cfg.Server.Addr()))

	metrics, err := bootstrap.NewMetrics(cfg.Metrics, logger)
	if err != nil {
		return err
	}

	infra, err := bootstrap.Open(ctx, cfg, bootstrap.All, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc, err := bootstrap.NewService(cfg, infra, bootstrap.ServiceOptions{Metrics: metrics.Collector()}, logger)
	if err != nil {
		return err
	}
	watchParameters(configPath, svc, metrics, logger)

	var requester analysis.RunRequester
	if infra.Producer != nil {
		requester = kafka.NewRunEvents(infra.Producer, serviceName, logger)
	}
	var runs handlers.RunLister
	if infra.Postgres != nil {
		runs = repositories.NewRunRepository(infra.Postgres, logger)
	}

	analysisHandler := handlers.NewAnalysisHandler(svc, requester, runs, handlers.AnalysisHandlerConfig{
		MaxBodySize:   cfg.Server.MaxBodySize,
		DefaultSource: cfg.Input.Source,
	}, logger)

	cors := middleware.CORSConfig{AllowedOrigins: cfg.Server.CORSOrigins, MaxAge: cfg.Server.CORSMaxAge}
	router := httpserver.NewRouter(httpserver.RouterConfig{
		AnalysisHandler: analysisHandler,
		HealthHandler:   handlers.NewHealthHandler(version, infra.HealthCheckers()...),
		PreviewLimiter:  middleware.NewTokenBucketLimiter(cfg.Server.PreviewRate, cfg.Server.PreviewBurst),
		CORS:            cors,
		Logger:          logger,
		Metrics:         metrics.AppMetrics(),
		MetricsHandler:  metrics.ScrapeHandler(),
		MetricsPath:     cfg.Metrics.Path,
	})
	srv := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down API server")
	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	logger.Info("API server stopped")
	return nil
}

// watchParameters swaps in a new engine whenever the configuration file
// changes. Other sections need a restart.
func watchParameters(configPath string, svc *analysis.Service, metrics *bootstrap.Metrics, logger logging.Logger) {
	if configPath == "" {
		return
	}
	err := config.Watch(configPath, func(next *config.Config) {
		engine, err := bootstrap.NewEngine(next, metrics.Collector(), logger)
		if err != nil {
			logger.Warn("ignoring reloaded analysis parameters", logging.Err(err))
			return
		}
		svc.SetEngine(engine)
		logger.Info("analysis parameters reloaded")
	}, func(err error) {
		logger.Warn("ignoring invalid configuration change", logging.Err(err))
	})
	if err != nil {
		logger.Warn("configuration watch disabled", logging.Err(err))
	}
}

//Personal.AI order the ending
