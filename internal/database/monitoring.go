package database

import (
	"context"
	"time"

	"github.com/wrenchworks/docdesk/internal/logger"
	"github.com/wrenchworks/docdesk/internal/metrics"
)

// MetricsClient wraps a client and records transaction durations
type MetricsClient struct {
	client  IClient
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewMetricsClient creates a new instrumented client
func NewMetricsClient(client IClient, m *metrics.Metrics, logger *logger.Logger) IClient {
	return &MetricsClient{
		client:  client,
		metrics: m,
		logger:  logger,
	}
}

// WithTx wraps the given function in a transaction and observes how long it held the store
func (c *MetricsClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := GetTx(ctx); ok {
		return c.client.WithTx(ctx, fn)
	}

	start := time.Now()
	err := c.client.WithTx(ctx, fn)
	c.metrics.ObserveTransaction(time.Since(start), err)
	return err
}
