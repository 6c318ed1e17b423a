// Package numerator is the PostgreSQL implementation of document numbering.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"atelier/internal/core/apperror"
	corenumerator "atelier/internal/core/numerator"
	"atelier/internal/infrastructure/storage/postgres"
)

// Querier is the subset of pgx used by the allocator.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// numberedColumns lists, per table, the columns the allocator may read.
var numberedColumns = map[string][]string{
	"orders":          {"order_number"},
	"sales":           {"sale_number"},
	"purchase_orders": {"po_number"},
	"suppliers":       {"supplier_code"},
	"invoices":        {"invoice_number"},
	"journal_entries": {"entry_number", "fiscal_year"},
}

func checkColumns(table string, fields ...string) error {
	allowed, ok := numberedColumns[table]
	if !ok {
		return apperror.NewValidation("table is not numbered").WithDetail("table", table)
	}
	for _, f := range fields {
		if !slices.Contains(allowed, f) {
			return apperror.NewValidation("column is not numbered").
				WithDetail("table", table).
				WithDetail("column", f)
		}
	}
	return nil
}

// Service allocates numbers under a transaction-scoped advisory lock per
// number head, so concurrent allocations for the same head are serialized
// until the caller's transaction ends.
type Service struct {
	querier func(ctx context.Context) Querier
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator that joins the transaction carried by ctx.
func New(txm *postgres.TxManager) *Service {
	return &Service{querier: func(ctx context.Context) Querier { return txm.GetQuerier(ctx) }}
}

// NewWithQuerier creates a numerator bound to a fixed querier.
func NewWithQuerier(q Querier) *Service {
	return &Service{querier: func(context.Context) Querier { return q }}
}

// NextNumber implements corenumerator.Generator.
func (s *Service) NextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	if err := checkColumns(cfg.Table, cfg.Field); err != nil {
		return "", err
	}
	q := s.querier(ctx)
	key := cfg.LockKey(period)
	if err := postgres.AdvisoryXactLock(ctx, q, key); err != nil {
		return "", err
	}

	var (
		n   int64
		err error
	)
	switch cfg.Strategy {
	case corenumerator.StrategySequence:
		n, err = s.nextFromSequence(ctx, q, key)
	default:
		n, err = s.nextFromScan(ctx, q, cfg, period)
	}
	if err != nil {
		return "", err
	}
	return corenumerator.Format(cfg, period, n), nil
}

// nextFromScan reads the highest purely numeric suffix of the period.
// Among such values the longest one sorts first, then the largest.
func (s *Service) nextFromScan(ctx context.Context, q Querier, cfg corenumerator.Config, period time.Time) (int64, error) {
	field := pgx.Identifier{cfg.Field}.Sanitize()
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s ~ $1 ORDER BY length(%s) DESC, %s DESC LIMIT 1",
		field, pgx.Identifier{cfg.Table}.Sanitize(), field, field, field)

	var last string
	err := q.QueryRow(ctx, sql, cfg.SuffixPattern(period)).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("scan last number: %w", err)
	}
	return corenumerator.NextAfter(cfg, period, last), nil
}

func (s *Service) nextFromSequence(ctx context.Context, q Querier, key string) (int64, error) {
	var n int64
	err := q.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sequence next: %w", err)
	}
	return n, nil
}

// NextSequence implements corenumerator.Generator.
func (s *Service) NextSequence(ctx context.Context, cfg corenumerator.SequenceConfig) (int64, error) {
	if err := checkColumns(cfg.Table, cfg.Field, cfg.ScopeField); err != nil {
		return 0, err
	}
	q := s.querier(ctx)
	if err := postgres.AdvisoryXactLock(ctx, q, fmt.Sprintf("%s.%s:%v", cfg.Table, cfg.Field, cfg.ScopeValue)); err != nil {
		return 0, err
	}

	sql := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM %s WHERE %s = $1",
		pgx.Identifier{cfg.Field}.Sanitize(),
		pgx.Identifier{cfg.Table}.Sanitize(),
		pgx.Identifier{cfg.ScopeField}.Sanitize())

	var n int64
	if err := q.QueryRow(ctx, sql, cfg.ScopeValue).Scan(&n); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return n, nil
}

// SetNextNumber moves a StrategySequence counter so the next allocation
// returns value. Used when importing documents numbered elsewhere.
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	if err := checkColumns(cfg.Table, cfg.Field); err != nil {
		return err
	}
	_, err := s.querier(ctx).Exec(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
	`, cfg.LockKey(period), value-1)
	return err
}
