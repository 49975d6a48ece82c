package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wrenchworks/docdesk/internal/api"
	v1 "github.com/wrenchworks/docdesk/internal/api/v1"
	"github.com/wrenchworks/docdesk/internal/cache"
	"github.com/wrenchworks/docdesk/internal/config"
	"github.com/wrenchworks/docdesk/internal/database"
	"github.com/wrenchworks/docdesk/internal/logger"
	"github.com/wrenchworks/docdesk/internal/metrics"
	"github.com/wrenchworks/docdesk/internal/repository"
	"github.com/wrenchworks/docdesk/internal/service"
	"github.com/wrenchworks/docdesk/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			metrics.NewMetrics,

			// Cache
			fx.Annotate(cache.NewInMemoryCache, fx.As(new(cache.Cache))),

			// Database
			database.NewDB,
			provideDBClient,
			providePinger,

			// Repositories
			repository.NewCounterStore,
			repository.NewDocumentRepository,
			repository.NewWorkOrderRepository,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewDocumentService,
			service.NewNumberingService,
			service.NewDashboardService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			validator.NewValidator,
			closeDBOnStop,
			startAPIServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

// provideDBClient wraps the store so every outermost transaction is timed
func provideDBClient(db *database.DB, m *metrics.Metrics, log *logger.Logger) database.IClient {
	return database.NewMetricsClient(db, m, log)
}

func providePinger(db *database.DB) v1.Pinger {
	return db
}

func provideHandlers(
	logger *logger.Logger,
	pinger v1.Pinger,
	documentService service.DocumentService,
	numberingService service.NumberingService,
	dashboardService service.DashboardService,
) api.Handlers {
	return api.Handlers{
		Health:    v1.NewHealthHandler(pinger, logger),
		Document:  v1.NewDocumentHandler(documentService, logger),
		Numbering: v1.NewNumberingHandler(numberingService),
		Dashboard: v1.NewDashboardHandler(dashboardService, logger),
	}
}

func closeDBOnStop(lc fx.Lifecycle, db *database.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}
