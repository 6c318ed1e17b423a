// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"atelier/internal/domain/accounting"
	"atelier/internal/domain/documents/invoice"
	"atelier/internal/domain/documents/purchase_order"
	"atelier/internal/domain/documents/sale"
	"atelier/internal/domain/orders"
	"atelier/internal/domain/payments"
	"atelier/internal/domain/registers/stock"
	"atelier/internal/domain/scheduling"
	"atelier/internal/infrastructure/http/v1/handlers"
	"atelier/internal/infrastructure/http/v1/middleware"
	"atelier/internal/infrastructure/storage/postgres"
	"atelier/pkg/logger"
)

// Services bundles the domain services the API exposes.
type Services struct {
	Orders         *orders.Service
	Payments       *payments.Service
	Scheduling     *scheduling.Service
	Stock          *stock.Service
	Sales          *sale.Service
	PurchaseOrders *purchase_order.Service
	Invoices       *invoice.Service
	Accounting     *accounting.Service
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Version is reported by the health endpoint
	Version string

	// HealthChecks are pinged by /health and /health/ready
	HealthChecks map[string]handlers.Pinger

	// IdempotencyStore backs X-Idempotency-Key; nil disables it
	IdempotencyStore *postgres.IdempotencyStore

	Services Services
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!). Recovery sits inside ErrorHandler
	// so that a recovered panic is rendered like any other error.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())
	router.Use(middleware.Actor())

	healthHandler := handlers.NewHealthHandler(cfg.Version, cfg.HealthChecks)
	router.GET("/health", healthHandler.Ready)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	if cfg.IdempotencyStore != nil {
		v1.Use(middleware.Idempotency(cfg.IdempotencyStore))
	}

	base := handlers.NewBaseHandler()
	registerOrderRoutes(v1, base, cfg.Services)
	registerPaymentRoutes(v1, base, cfg.Services)
	registerAppointmentRoutes(v1, base, cfg.Services)
	registerStockRoutes(v1, base, cfg.Services)
	registerDocumentRoutes(v1, base, cfg.Services)
	registerAccountingRoutes(v1, base, cfg.Services)

	return router
}

func registerOrderRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc Services) {
	h := handlers.NewOrderHandler(base, svc.Orders)
	g := rg.Group("/orders")
	{
		g.POST("", h.Create)
		g.GET("/:id", h.Get)
		g.POST("/:id/status", h.ChangeStatus)
		g.POST("/:id/fittings", h.ScheduleFitting)
		g.GET("/:id/fittings", h.Fittings)
		g.GET("/:id/history", h.History)
	}
}

func registerPaymentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc Services) {
	h := handlers.NewPaymentHandler(base, svc.Payments)
	g := rg.Group("/payments")
	{
		g.POST("", h.Add)
		g.GET("", h.List)
		g.DELETE("/:id", h.Delete)
		g.GET("/pending", h.Pending)
		g.GET("/overdue-count", h.OverdueCount)
	}
}

func registerAppointmentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc Services) {
	h := handlers.NewAppointmentHandler(base, svc.Scheduling)
	g := rg.Group("/appointments")
	{
		g.POST("", h.Book)
		g.GET("", h.List)
		g.GET("/availability", h.Availability)
		g.GET("/:id", h.Get)
		g.PUT("/:id/move", h.Move)
		g.POST("/:id/cancel", h.Cancel)
		g.POST("/:id/complete", h.Complete)
		g.POST("/:id/no-show", h.NoShow)
	}
}

func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc Services) {
	h := handlers.NewStockHandler(base, svc.Stock)
	g := rg.Group("/stock")
	{
		g.POST("/adjust", h.Adjust)
		g.POST("/transfer", h.Transfer)
		g.GET("/movements", h.Movements)
		g.GET("/levels/:variant_id", h.Levels)
		g.GET("/levels/:variant_id/:warehouse_id/reconcile", h.Reconcile)
	}
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc Services) {
	sales := handlers.NewSaleHandler(base, svc.Sales)
	RegisterDocumentRoutes(rg.Group("/sales"), sales,
		DocumentAction{Name: "complete", Handler: sales.Complete},
		DocumentAction{Name: "void", Handler: sales.Void})

	pos := handlers.NewPurchaseOrderHandler(base, svc.PurchaseOrders)
	rg.POST("/suppliers", pos.CreateSupplier)
	rg.GET("/suppliers/:id", pos.GetSupplier)
	RegisterDocumentRoutes(rg.Group("/purchase-orders"), pos,
		DocumentAction{Name: "send", Handler: pos.Send},
		DocumentAction{Name: "receive", Handler: pos.Receive},
		DocumentAction{Name: "cancel", Handler: pos.Cancel})

	invoices := handlers.NewInvoiceHandler(base, svc.Invoices)
	RegisterDocumentRoutes(rg.Group("/invoices"), invoices,
		DocumentAction{Name: "issue", Handler: invoices.Issue})
}

func registerAccountingRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc Services) {
	h := handlers.NewAccountingHandler(base, svc.Accounting)
	g := rg.Group("/accounting")
	{
		g.GET("/trial-balance", h.TrialBalance)
		g.GET("/entries/:id", h.GetEntry)
		g.POST("/post/:source_type/:id", h.Post)
	}
}
