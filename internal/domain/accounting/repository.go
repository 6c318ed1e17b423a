package accounting

import (
	"context"

	"atelier/internal/core/id"
)

// Repository persists the chart of accounts and journal entries.
type Repository interface {
	// EnsureChart upserts the given accounts. Existing rows are kept.
	EnsureChart(ctx context.Context, accounts []Account) error

	// LockSource loads and locks a source document, or returns NOT_FOUND.
	// Invoice amounts are summed from the invoice lines.
	LockSource(ctx context.Context, sourceType SourceType, sourceID id.ID) (*Source, error)

	// SetSourceEntry stores the generated entry id on the source document.
	SetSourceEntry(ctx context.Context, sourceType SourceType, sourceID, entryID id.ID) error

	CreateEntry(ctx context.Context, entry *Entry) error
	SaveLines(ctx context.Context, entryID id.ID, lines []EntryLine) error

	// GetEntry returns the entry header, or NOT_FOUND.
	GetEntry(ctx context.Context, entryID id.ID) (*Entry, error)
	GetLines(ctx context.Context, entryID id.ID) ([]EntryLine, error)

	// TrialBalance sums debits and credits per account code.
	TrialBalance(ctx context.Context) ([]TrialBalanceRow, error)
}
