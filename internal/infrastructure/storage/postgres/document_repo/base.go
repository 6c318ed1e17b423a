// Package document_repo provides PostgreSQL implementations for the
// sale, purchase order and invoice repositories.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/infrastructure/storage/postgres"
)

// BaseDocumentRepo provides the header and line operations shared by
// documents: H is the header row, L the line row.
type BaseDocumentRepo[H any, L any] struct {
	postgres.Repo

	entity     string
	table      string
	linesTable string
	parentCol  string
	headerCols []string
	lineCols   []string

	// bindLine sets the parent id of a line before it is saved.
	bindLine func(line *L, parentID id.ID)
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[H any, L any](
	txm *postgres.TxManager,
	entity, table, linesTable, parentCol string,
	bindLine func(line *L, parentID id.ID),
) BaseDocumentRepo[H, L] {
	return BaseDocumentRepo[H, L]{
		Repo:       postgres.NewRepo(txm),
		entity:     entity,
		table:      table,
		linesTable: linesTable,
		parentCol:  parentCol,
		headerCols: postgres.Columns[H](),
		lineCols:   postgres.Columns[L](),
		bindLine:   bindLine,
	}
}

// Create inserts a document header.
func (r BaseDocumentRepo[H, L]) Create(ctx context.Context, doc *H) error {
	return r.Insert(ctx, r.table, doc)
}

// SaveLines inserts the lines of a document.
func (r BaseDocumentRepo[H, L]) SaveLines(ctx context.Context, parentID id.ID, lines []L) error {
	for i := range lines {
		r.bindLine(&lines[i], parentID)
	}
	return postgres.InsertMany(ctx, r.Repo, r.linesTable, lines)
}

func (r BaseDocumentRepo[H, L]) selectByID(docID id.ID) squirrel.SelectBuilder {
	return r.SQ().Select(r.headerCols...).From(r.table).Where(squirrel.Eq{"id": docID})
}

func (r BaseDocumentRepo[H, L]) get(ctx context.Context, q squirrel.SelectBuilder, docID id.ID) (*H, error) {
	var doc H
	if err := r.Get(ctx, &doc, q, r.entity, docID); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByID returns a document header.
func (r BaseDocumentRepo[H, L]) GetByID(ctx context.Context, docID id.ID) (*H, error) {
	return r.get(ctx, r.selectByID(docID), docID)
}

// GetForUpdate returns a document header locked until the transaction ends.
func (r BaseDocumentRepo[H, L]) GetForUpdate(ctx context.Context, docID id.ID) (*H, error) {
	return r.get(ctx, r.selectByID(docID).Suffix("FOR UPDATE"), docID)
}

// GetLines returns the lines of a document in order.
func (r BaseDocumentRepo[H, L]) GetLines(ctx context.Context, parentID id.ID) ([]L, error) {
	q := r.SQ().Select(r.lineCols...).
		From(r.linesTable).
		Where(squirrel.Eq{r.parentCol: parentID}).
		OrderBy("sort_order")
	var lines []L
	if err := r.Select(ctx, &lines, q); err != nil {
		return nil, fmt.Errorf("load %s lines: %w", r.entity, err)
	}
	return lines, nil
}

// updateFields writes fields of one document.
func (r BaseDocumentRepo[H, L]) updateFields(ctx context.Context, docID id.ID, fields map[string]any) error {
	n, err := r.Exec(ctx, r.SQ().Update(r.table).SetMap(fields).Where(squirrel.Eq{"id": docID}))
	if err != nil {
		return fmt.Errorf("update %s: %w", r.table, err)
	}
	if n == 0 {
		return apperror.NewNotFound(r.entity, docID)
	}
	return nil
}
