package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"atelier/internal/core/apperror"
)

// Repo carries what every repository needs: the transaction manager that
// hands out the querier bound to ctx, and a PostgreSQL-flavoured builder.
type Repo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewRepo creates a Repo.
func NewRepo(txm *TxManager) Repo {
	return Repo{
		txm:     txm,
		builder: Builder(),
	}
}

// Builder returns a squirrel builder using $N placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// SQ returns the statement builder.
func (r Repo) SQ() squirrel.StatementBuilderType {
	return r.builder
}

// TxManager returns the transaction manager.
func (r Repo) TxManager() *TxManager {
	return r.txm
}

// Exec runs q and returns the number of affected rows.
func (r Repo) Exec(ctx context.Context, q squirrel.Sqlizer) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Get scans exactly one row of q into dst. Missing rows are reported as
// NOT_FOUND for entity and key.
func (r Repo) Get(ctx context.Context, dst any, q squirrel.Sqlizer, entity string, key any) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), dst, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound(entity, key)
		}
		return fmt.Errorf("get %s: %w", entity, err)
	}
	return nil
}

// Select scans all rows of q into dst, a pointer to a slice.
func (r Repo) Select(ctx context.Context, dst any, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Select(ctx, r.txm.GetQuerier(ctx), dst, sql, args...)
}

// Insert writes the db-tagged fields of entity into table.
func (r Repo) Insert(ctx context.Context, table string, entity any) error {
	data := StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %T", entity)
	}
	if _, err := r.Exec(ctx, r.builder.Insert(table).SetMap(data)); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// InsertMany writes rows of the same type into table with one
// multi-row INSERT.
func InsertMany[T any](ctx context.Context, r Repo, table string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	columns := Columns[T]()
	q := r.builder.Insert(table).Columns(columns...)
	for i := range rows {
		q = q.Values(StructValues(&rows[i], columns)...)
	}
	if _, err := r.Exec(ctx, q); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}
