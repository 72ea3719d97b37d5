// Package opensearch publishes hotspots to an OpenSearch cluster so they can
// be mapped and filtered in dashboards.
package opensearch

import (
	"context"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/CivicPulse/internal/config"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// Client wraps the low-level OpenSearch client.
type Client struct {
	client    *opensearch.Client
	transport *http.Transport
	config    config.OpenSearchConfig
	logger    logging.Logger
}

// NewClient connects to the cluster and verifies it answers a ping.
func NewClient(ctx context.Context, cfg config.OpenSearchConfig, logger logging.Logger) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: cfg.RequestTimeout,
	}
	osCfg := opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.Username,
		Password:      cfg.Password,
		Transport:     transport,
		MaxRetries:    cfg.MaxRetries,
		DisableRetry:  cfg.MaxRetries == 0,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff:  func(attempt int) time.Duration { return time.Duration(attempt) * 100 * time.Millisecond },
	}
	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigurationErr, "failed to create opensearch client")
	}

	c := &Client{
		client:    client,
		transport: transport,
		config:    cfg,
		logger:    logger.Named("opensearch"),
	}
	if err := c.HealthCheck(ctx); err != nil {
		transport.CloseIdleConnections()
		return nil, err
	}
	c.logger.Info("OpenSearch connection established", logging.Strings("addresses", cfg.Addresses))
	return c, nil
}

// HealthCheck pings the cluster.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	resp, err := opensearchapi.PingRequest{}.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexError, "opensearch ping failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return errors.Newf(errors.ErrCodeIndexError, "opensearch ping returned %d", resp.StatusCode)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	c.logger.Info("OpenSearch client closed")
	return nil
}

// ValidateConfig validates the client configuration.
func ValidateConfig(cfg config.OpenSearchConfig) error {
	if len(cfg.Addresses) == 0 {
		return errors.New(errors.ErrCodeConfigurationErr, "opensearch addresses are required")
	}
	if cfg.Index == "" {
		return errors.New(errors.ErrCodeConfigurationErr, "opensearch index is required")
	}
	if cfg.MaxRetries < 0 {
		return errors.New(errors.ErrCodeConfigurationErr, "opensearch max_retries must be >= 0")
	}
	if cfg.RequestTimeout <= 0 {
		return errors.New(errors.ErrCodeConfigurationErr, "opensearch request_timeout must be > 0")
	}
	return nil
}

//Personal.AI order the ending
