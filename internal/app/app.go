// Package app wires storage, services and infrastructure into a running
// process. The API server and the worker share it.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"atelier/internal/config"
	"atelier/internal/core/id"
	"atelier/internal/core/lock"
	"atelier/internal/domain/accounting"
	"atelier/internal/domain/documents/invoice"
	"atelier/internal/domain/documents/purchase_order"
	"atelier/internal/domain/documents/sale"
	"atelier/internal/domain/orders"
	"atelier/internal/domain/payments"
	"atelier/internal/domain/registers/stock"
	"atelier/internal/domain/scheduling"
	"atelier/internal/infrastructure/cache"
	v1 "atelier/internal/infrastructure/http/v1"
	"atelier/internal/infrastructure/http/v1/handlers"
	"atelier/internal/infrastructure/numerator"
	"atelier/internal/infrastructure/storage/postgres"
	"atelier/internal/infrastructure/storage/postgres/accounting_repo"
	"atelier/internal/infrastructure/storage/postgres/document_repo"
	"atelier/internal/infrastructure/storage/postgres/order_repo"
	"atelier/internal/infrastructure/storage/postgres/payment_repo"
	"atelier/internal/infrastructure/storage/postgres/register_repo"
	"atelier/internal/infrastructure/storage/postgres/schedule_repo"
	"atelier/pkg/logger"
)

// App holds the shared infrastructure and every domain service.
type App struct {
	Config      config.Config
	Pool        *postgres.Pool
	TxManager   *postgres.TxManager
	Redis       *redis.Client
	Audit       *postgres.AuditService
	Idempotency *postgres.IdempotencyStore
	Services    v1.Services
}

// New connects to PostgreSQL (and Redis when configured), applies
// migrations and builds the services.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	poolCfg.MinConns = int32(cfg.DBMinConns)

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	txm := postgres.NewTxManager(pool)

	if err := postgres.Migrate(ctx, txm); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	audit, err := postgres.NewAuditService(txm)
	if err != nil {
		pool.Close()
		return nil, err
	}

	a := &App{
		Config:      cfg,
		Pool:        pool,
		TxManager:   txm,
		Audit:       audit,
		Idempotency: postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL),
	}

	var locker lock.Locker = postgres.NewAdvisoryLocker(txm)
	if cfg.RedisAddress != "" {
		a.Redis, err = cache.NewRedisClient(ctx, cache.RedisConfig{Address: cfg.RedisAddress})
		if err != nil {
			pool.Close()
			return nil, err
		}
		locker = cache.NewRedisLocker(a.Redis, cache.DefaultLockOptions())
		logger.Info(ctx, "scheduling locks use redis", "address", cfg.RedisAddress)
	}

	schedCfg, err := scheduleConfig(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Services = buildServices(txm, locker, audit, schedCfg, cfg.OrderNumberPrefix)
	return a, nil
}

func scheduleConfig(cfg config.Config) (scheduling.Config, error) {
	out := scheduling.DefaultConfig()
	var err error
	if out.Open, err = scheduling.ParseTimeOfDay(cfg.ScheduleOpen); err != nil {
		return out, fmt.Errorf("SCHEDULE_OPEN: %w", err)
	}
	if out.Close, err = scheduling.ParseTimeOfDay(cfg.ScheduleClose); err != nil {
		return out, fmt.Errorf("SCHEDULE_CLOSE: %w", err)
	}
	if cfg.ScheduleSlotMinutes > 0 {
		out.SlotMinutes = cfg.ScheduleSlotMinutes
	}
	return out, nil
}

func buildServices(
	txm *postgres.TxManager,
	locker lock.Locker,
	audit *postgres.AuditService,
	schedCfg scheduling.Config,
	orderPrefix string,
) v1.Services {
	gen := numerator.New(txm)
	outbox := postgres.NewOutboxPublisher(txm)

	stockSvc := stock.NewService(register_repo.NewStockRepo(txm), txm, outbox)

	sales := sale.NewService(document_repo.NewSaleRepo(txm), txm, gen, stockSvc, outbox)
	sales.Hooks().OnAfterCreate(postgres.AuditHook(audit, "sale", postgres.AuditActionCreate,
		func(s *sale.Sale) id.ID { return s.ID }))
	sales.Hooks().OnAfterTransition(postgres.AuditHook(audit, "sale", postgres.AuditActionTransition,
		func(s *sale.Sale) id.ID { return s.ID }))

	pos := purchase_order.NewService(document_repo.NewPurchaseOrderRepo(txm), txm, gen, outbox)
	pos.Hooks().OnAfterCreate(postgres.AuditHook(audit, "purchase_order", postgres.AuditActionCreate,
		func(po *purchase_order.PurchaseOrder) id.ID { return po.ID }))
	pos.Hooks().OnAfterTransition(postgres.AuditHook(audit, "purchase_order", postgres.AuditActionTransition,
		func(po *purchase_order.PurchaseOrder) id.ID { return po.ID }))

	invoices := invoice.NewService(document_repo.NewInvoiceRepo(txm), txm, gen, outbox)
	invoices.Hooks().OnAfterCreate(postgres.AuditHook(audit, "invoice", postgres.AuditActionCreate,
		func(inv *invoice.Invoice) id.ID { return inv.ID }))
	invoices.Hooks().OnAfterTransition(postgres.AuditHook(audit, "invoice", postgres.AuditActionTransition,
		func(inv *invoice.Invoice) id.ID { return inv.ID }))

	return v1.Services{
		Orders:         orders.NewService(order_repo.NewOrderRepo(txm), txm, gen, outbox, orderPrefix),
		Payments:       payments.NewService(payment_repo.NewPaymentRepo(txm), txm, outbox),
		Scheduling:     scheduling.NewService(schedule_repo.NewAppointmentRepo(txm), txm, locker, schedCfg),
		Stock:          stockSvc,
		Sales:          sales,
		PurchaseOrders: pos,
		Invoices:       invoices,
		Accounting:     accounting.NewService(accounting_repo.NewJournalRepo(txm), txm, gen, outbox),
	}
}

// HealthChecks returns the dependencies the readiness probe pings.
func (a *App) HealthChecks() map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{"postgres": a.Pool}
	if a.Redis != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		})
	}
	return checks
}

// Close releases connections.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	a.Pool.Close()
}
