package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/wrenchworks/docdesk/internal/api/v1"
	"github.com/wrenchworks/docdesk/internal/config"
	"github.com/wrenchworks/docdesk/internal/logger"
	"github.com/wrenchworks/docdesk/internal/metrics"
	"github.com/wrenchworks/docdesk/internal/rest/middleware"
	"github.com/wrenchworks/docdesk/internal/types"
)

type Handlers struct {
	Health    *v1.HealthHandler
	Document  *v1.DocumentHandler
	Numbering *v1.NumberingHandler
	Dashboard *v1.DashboardHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger, m *metrics.Metrics) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.RequestLogger(log),
		middleware.ErrorHandler(log),
	)

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	orders := router.Group("/orders")
	{
		orders.GET("", handlers.Document.ListOrders)
		orders.GET("/:id/document", handlers.Document.GetOrderDocument)
		orders.POST("/:id/document", handlers.Document.ReserveDocumentNumbers)
		orders.POST("/:id/document/pay", handlers.Document.MarkDocumentPaid)
	}

	router.GET("/documents", handlers.Document.ListDocuments)
	router.GET("/numbering", handlers.Numbering.GetNumbering)
	router.GET("/dashboard/documents", handlers.Dashboard.GetDocumentSummary)
}
