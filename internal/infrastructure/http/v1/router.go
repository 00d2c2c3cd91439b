// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/app"
	appctx "partsledger/internal/core/context"
	"partsledger/internal/core/idempotency"
	"partsledger/internal/infrastructure/http/v1/handlers"
	"partsledger/internal/infrastructure/http/v1/middleware"
	"partsledger/internal/infrastructure/metrics"
	"partsledger/internal/infrastructure/storage/postgres"
	"partsledger/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Ledger holds the domain services
	Ledger *app.Ledger

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Idempotency enables replay of X-Idempotency-Key requests when set
	Idempotency idempotency.Store

	// Metrics exposes /metrics and instruments requests when set
	Metrics *metrics.Metrics

	// Driver and Pool feed the health endpoints; Pool is nil for the memory driver
	Driver string
	Pool   *postgres.Pool

	// Debug keeps gin in debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.GinMiddleware())
	}
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Driver, cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))
	if cfg.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	registerProductRoutes(v1, base, cfg.Ledger)
	registerBatchRoutes(v1, base, cfg.Ledger)
	registerJobRoutes(v1, base, cfg.Ledger)

	return router
}

// registerProductRoutes registers the catalog and stock query endpoints.
func registerProductRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, l *app.Ledger) {
	handler := handlers.NewProductHandler(base, l.Catalog, l.Batches, l.Movements, l.Valuation)

	products := rg.Group("/products")
	products.GET("", handler.List)
	products.POST("", handler.Register)
	products.GET("/:id", handler.Get)
	products.GET("/:id/batches", handler.Batches)

	RegisterStockQueryRoutes(products.Group("/:id"), handler)
}

// registerBatchRoutes registers batch intake, inspection and allocation endpoints.
func registerBatchRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, l *app.Ledger) {
	handler := handlers.NewBatchHandler(base, l.Batches, l.Allocations)

	batches := rg.Group("/batches")
	batches.POST("", handler.Submit)
	batches.GET("/:id", handler.Get)
	batches.POST("/:id/decision", middleware.RequireApprover(), handler.Decide)
	batches.POST("/:id/deactivate", middleware.RequireRole(appctx.RoleStorekeeper, appctx.RoleAdmin), handler.Deactivate)
	batches.GET("/:id/allocations", handler.ListAllocations)
	batches.POST("/:id/allocations", handler.Allocate)
	batches.DELETE("/:id/allocations/:jobId", handler.Release)
}

// registerJobRoutes registers job, tab approval and close endpoints.
func registerJobRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, l *app.Ledger) {
	handler := handlers.NewJobHandler(base, l.Jobs, l.Allocations)

	jobs := rg.Group("/jobs")
	jobs.POST("", handler.Open)
	jobs.GET("/:id", handler.Get)
	jobs.GET("/:id/allocations", handler.Allocations)
	jobs.POST("/:id/tabs/:category/approve", middleware.RequireApprover(), handler.ApproveTab)
	jobs.POST("/:id/close", handler.Close)
}
