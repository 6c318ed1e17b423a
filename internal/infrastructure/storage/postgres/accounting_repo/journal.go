// Package accounting_repo provides the PostgreSQL implementation of
// accounting.Repository.
package accounting_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain/accounting"
	"atelier/internal/domain/documents/invoice"
	"atelier/internal/domain/orders"
	"atelier/internal/infrastructure/storage/postgres"
)

const (
	accountsTable     = "chart_of_accounts"
	entriesTable      = "journal_entries"
	entryLinesTable   = "journal_entry_lines"
	invoiceLinesTable = "invoice_lines"
)

// sourceTables maps a source type to its document table.
var sourceTables = map[accounting.SourceType]string{
	accounting.SourceSale:        "sales",
	accounting.SourcePurchase:    "purchase_orders",
	accounting.SourceOnlineOrder: "orders",
	accounting.SourceInvoice:     "invoices",
}

// JournalRepo implements accounting.Repository.
type JournalRepo struct {
	postgres.Repo
	entryCols []string
	lineCols  []string
}

// NewJournalRepo creates a new journal repository.
func NewJournalRepo(txm *postgres.TxManager) *JournalRepo {
	return &JournalRepo{
		Repo:      postgres.NewRepo(txm),
		entryCols: postgres.Columns[accounting.Entry](),
		lineCols:  postgres.Columns[accounting.EntryLine](),
	}
}

var _ accounting.Repository = (*JournalRepo)(nil)

// EnsureChart inserts missing accounts in one round-trip.
func (r *JournalRepo) EnsureChart(ctx context.Context, accounts []accounting.Account) error {
	queries := make([]postgres.BatchQuery, 0, len(accounts))
	for _, a := range accounts {
		sql, args, err := r.SQ().Insert(accountsTable).
			Columns("code", "name", "account_type", "normal_balance").
			Values(a.Code, a.Name, a.AccountType, a.NormalBalance).
			Suffix("ON CONFLICT (code) DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("build account insert: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})
	}
	return postgres.ExecuteBatch(ctx, r.TxManager(), queries)
}

func (r *JournalRepo) sourceQuery(sourceType accounting.SourceType, sourceID id.ID) (squirrel.SelectBuilder, error) {
	var q squirrel.SelectBuilder
	switch sourceType {
	case accounting.SourceSale:
		q = r.SQ().Select("id", "sale_number AS number", "sale_date AS doc_date",
			"subtotal", "tax_amount", "0::numeric AS irpf_amount", "total", "journal_entry_id").
			From("sales")
	case accounting.SourcePurchase:
		q = r.SQ().Select("id", "po_number AS number", "order_date AS doc_date",
			"subtotal", "tax_amount", "0::numeric AS irpf_amount", "total", "journal_entry_id").
			From("purchase_orders")
	case accounting.SourceOnlineOrder:
		q = r.SQ().Select("id", "order_number AS number", "created_at::date AS doc_date",
			"subtotal - discount_amount AS subtotal", "tax_amount", "0::numeric AS irpf_amount", "total", "journal_entry_id").
			From("orders").
			Where(squirrel.Eq{"kind": orders.KindOnline})
	case accounting.SourceInvoice:
		q = r.SQ().Select("id", "invoice_number AS number", "invoice_date AS doc_date",
			"subtotal", "tax_amount", "irpf_amount", "total", "journal_entry_id").
			From("invoices")
	default:
		return q, apperror.NewValidation("unknown source type").WithDetail("source_type", sourceType)
	}
	return q.Where(squirrel.Eq{"id": sourceID}).Suffix("FOR UPDATE"), nil
}

// LockSource loads and locks a source document. Invoice amounts are
// recomputed from the invoice lines.
func (r *JournalRepo) LockSource(ctx context.Context, sourceType accounting.SourceType, sourceID id.ID) (*accounting.Source, error) {
	q, err := r.sourceQuery(sourceType, sourceID)
	if err != nil {
		return nil, err
	}

	var src accounting.Source
	if err := r.Get(ctx, &src, q, string(sourceType), sourceID); err != nil {
		return nil, err
	}
	src.Type = sourceType

	if sourceType == accounting.SourceInvoice {
		if err := r.recomputeInvoice(ctx, &src); err != nil {
			return nil, err
		}
	}
	return &src, nil
}

func (r *JournalRepo) recomputeInvoice(ctx context.Context, src *accounting.Source) error {
	var irpfPct types.Money
	pctQ := r.SQ().Select("irpf_percentage").From("invoices").Where(squirrel.Eq{"id": src.ID})
	if err := r.Get(ctx, &irpfPct, pctQ, "invoice", src.ID); err != nil {
		return err
	}

	var lineTotals []types.Money
	linesQ := r.SQ().Select("line_total").From(invoiceLinesTable).Where(squirrel.Eq{"invoice_id": src.ID})
	if err := r.Select(ctx, &lineTotals, linesQ); err != nil {
		return fmt.Errorf("load invoice lines: %w", err)
	}

	src.Subtotal, src.TaxAmount, src.IRPFAmount, src.Total = invoice.Totals(lineTotals, irpfPct)
	return nil
}

// SetSourceEntry stores the generated entry id on the source document.
func (r *JournalRepo) SetSourceEntry(ctx context.Context, sourceType accounting.SourceType, sourceID, entryID id.ID) error {
	table, ok := sourceTables[sourceType]
	if !ok {
		return apperror.NewValidation("unknown source type").WithDetail("source_type", sourceType)
	}
	n, err := r.Exec(ctx, r.SQ().Update(table).
		Set("journal_entry_id", entryID).
		Where(squirrel.Eq{"id": sourceID}))
	if err != nil {
		return fmt.Errorf("link journal entry: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound(string(sourceType), sourceID)
	}
	return nil
}

// CreateEntry stores an entry header.
func (r *JournalRepo) CreateEntry(ctx context.Context, entry *accounting.Entry) error {
	return r.Insert(ctx, entriesTable, entry)
}

// SaveLines stores the lines of an entry.
func (r *JournalRepo) SaveLines(ctx context.Context, entryID id.ID, lines []accounting.EntryLine) error {
	for i := range lines {
		lines[i].EntryID = entryID
	}
	return postgres.InsertMany(ctx, r.Repo, entryLinesTable, lines)
}

// GetEntry returns the entry header.
func (r *JournalRepo) GetEntry(ctx context.Context, entryID id.ID) (*accounting.Entry, error) {
	q := r.SQ().Select(r.entryCols...).From(entriesTable).Where(squirrel.Eq{"id": entryID})
	var e accounting.Entry
	if err := r.Get(ctx, &e, q, "journal entry", entryID); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetLines returns the lines of an entry in order.
func (r *JournalRepo) GetLines(ctx context.Context, entryID id.ID) ([]accounting.EntryLine, error) {
	q := r.SQ().Select(r.lineCols...).
		From(entryLinesTable).
		Where(squirrel.Eq{"entry_id": entryID}).
		OrderBy("sort_order")
	var lines []accounting.EntryLine
	if err := r.Select(ctx, &lines, q); err != nil {
		return nil, fmt.Errorf("load entry lines: %w", err)
	}
	return lines, nil
}

func (r *JournalRepo) trialBalanceQuery() squirrel.SelectBuilder {
	return r.SQ().
		Select("a.code AS account_code", "a.name AS account_name",
			"COALESCE(SUM(l.debit), 0) AS debit", "COALESCE(SUM(l.credit), 0) AS credit").
		From(accountsTable + " a").
		Join(entryLinesTable + " l ON l.account_code = a.code").
		GroupBy("a.code", "a.name").
		OrderBy("a.code")
}

// TrialBalance sums debits and credits per account with postings.
func (r *JournalRepo) TrialBalance(ctx context.Context) ([]accounting.TrialBalanceRow, error) {
	var rows []accounting.TrialBalanceRow
	if err := r.Select(ctx, &rows, r.trialBalanceQuery()); err != nil {
		return nil, fmt.Errorf("trial balance: %w", err)
	}
	return rows, nil
}
