package service

import (
	"time"

	"github.com/wrenchworks/docdesk/internal/cache"
	"github.com/wrenchworks/docdesk/internal/config"
	"github.com/wrenchworks/docdesk/internal/database"
	"github.com/wrenchworks/docdesk/internal/domain/document"
	"github.com/wrenchworks/docdesk/internal/domain/numbering"
	"github.com/wrenchworks/docdesk/internal/domain/workorder"
	"github.com/wrenchworks/docdesk/internal/logger"
	"github.com/wrenchworks/docdesk/internal/metrics"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger  *logger.Logger
	Config  *config.Configuration
	DB      database.IClient
	Cache   cache.Cache
	Metrics *metrics.Metrics

	// Repositories
	CounterStore  numbering.CounterStore
	DocumentRepo  document.Repository
	WorkOrderRepo workorder.Repository

	// Now is the service clock
	Now func() time.Time
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db database.IClient,
	cache cache.Cache,
	metrics *metrics.Metrics,
	counterStore numbering.CounterStore,
	documentRepo document.Repository,
	workOrderRepo workorder.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:        logger,
		Config:        config,
		DB:            db,
		Cache:         cache,
		Metrics:       metrics,
		CounterStore:  counterStore,
		DocumentRepo:  documentRepo,
		WorkOrderRepo: workOrderRepo,
		Now:           func() time.Time { return time.Now().UTC() },
	}
}
