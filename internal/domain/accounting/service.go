package accounting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"atelier/internal/core/apperror"
	appctx "atelier/internal/core/context"
	"atelier/internal/core/events"
	"atelier/internal/core/id"
	"atelier/internal/core/numerator"
	"atelier/internal/core/tx"
	"atelier/internal/core/types"
	"atelier/pkg/logger"
)

// Entry numbers restart every fiscal year.
const (
	EntryTable = "journal_entries"
	EntryField = "entry_number"
	EntryScope = "fiscal_year"
)

// PostedPayload is the outbox payload of events.JournalEntryPosted.
type PostedPayload struct {
	EntryID     id.ID       `json:"entry_id"`
	EntryNumber int64       `json:"entry_number"`
	FiscalYear  int         `json:"fiscal_year"`
	SourceType  SourceType  `json:"source_type"`
	SourceID    id.ID       `json:"source_id"`
	Total       types.Money `json:"total"`
}

// Service generates journal entries.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
	events    events.Publisher
	now       func() time.Time
}

// NewService creates a new accounting service.
func NewService(
	repo Repository,
	txManager tx.Manager,
	numerator numerator.Generator,
	publisher events.Publisher,
) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		numerator: numerator,
		events:    publisher,
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// PostSaleEntry posts D 430 total / C 700 subtotal / C 477 tax.
func (s *Service) PostSaleEntry(ctx context.Context, saleID id.ID) (*Entry, error) {
	return s.post(ctx, SourceSale, saleID)
}

// PostPurchaseEntry posts D 600 subtotal / D 472 tax / C 400 total.
func (s *Service) PostPurchaseEntry(ctx context.Context, purchaseOrderID id.ID) (*Entry, error) {
	return s.post(ctx, SourcePurchase, purchaseOrderID)
}

// PostOnlineOrderEntry posts an online order like a sale.
func (s *Service) PostOnlineOrderEntry(ctx context.Context, orderID id.ID) (*Entry, error) {
	return s.post(ctx, SourceOnlineOrder, orderID)
}

// PostInvoiceEntry posts an invoice like a sale plus D 473 for withholding.
func (s *Service) PostInvoiceEntry(ctx context.Context, invoiceID id.ID) (*Entry, error) {
	return s.post(ctx, SourceInvoice, invoiceID)
}

// post generates the entry of one source document. A document that already
// references an entry returns that entry unchanged.
func (s *Service) post(ctx context.Context, sourceType SourceType, sourceID id.ID) (*Entry, error) {
	var (
		entry   *Entry
		created bool
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.EnsureChart(ctx, ChartOfAccounts()); err != nil {
			return fmt.Errorf("ensure chart of accounts: %w", err)
		}

		src, err := s.repo.LockSource(ctx, sourceType, sourceID)
		if err != nil {
			return err
		}
		src.Type = sourceType

		if src.JournalEntryID != nil {
			entry, err = s.loadEntry(ctx, *src.JournalEntryID)
			return err
		}

		entry, err = s.build(src)
		if err != nil {
			return err
		}

		entry.EntryNumber, err = s.numerator.NextSequence(ctx, numerator.SequenceConfig{
			Table:      EntryTable,
			Field:      EntryField,
			ScopeField: EntryScope,
			ScopeValue: entry.FiscalYear,
		})
		if err != nil {
			return fmt.Errorf("allocate entry number: %w", err)
		}
		entry.Actor = appctx.GetActorID(ctx)

		if err := s.repo.CreateEntry(ctx, entry); err != nil {
			return fmt.Errorf("create entry: %w", err)
		}
		if err := s.repo.SaveLines(ctx, entry.ID, entry.Lines); err != nil {
			return fmt.Errorf("save entry lines: %w", err)
		}
		if err := s.repo.SetSourceEntry(ctx, sourceType, sourceID, entry.ID); err != nil {
			return fmt.Errorf("link entry to %s: %w", sourceType, err)
		}
		created = true

		return s.events.Publish(ctx, events.Event{
			AggregateType: events.AggregateJournalEntry,
			AggregateID:   entry.ID,
			Type:          events.JournalEntryPosted,
			Payload: PostedPayload{
				EntryID:     entry.ID,
				EntryNumber: entry.EntryNumber,
				FiscalYear:  entry.FiscalYear,
				SourceType:  sourceType,
				SourceID:    sourceID,
				Total:       entry.TotalDebit,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if created {
		logger.Info(ctx, "journal entry posted",
			"id", entry.ID,
			"entry_number", entry.EntryNumber,
			"fiscal_year", entry.FiscalYear,
			"source_type", sourceType,
			"source_id", sourceID)
	}
	return entry, nil
}

// build assembles a balanced entry from the source's template.
func (s *Service) build(src *Source) (*Entry, error) {
	postings, err := template(src)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	date := types.DateOf(src.Date)
	if src.Date.IsZero() {
		date = types.DateOf(s.now())
	}

	entry := &Entry{
		ID:          id.New(),
		FiscalYear:  date.Year(),
		EntryDate:   date,
		Description: fmt.Sprintf("%s %s", src.Type, src.Number),
		SourceType:  src.Type,
		SourceID:    src.ID,
		CreatedAt:   s.now().UTC(),
	}

	entry.Lines = make([]EntryLine, len(postings))
	for i, p := range postings {
		line := EntryLine{
			ID:          id.New(),
			EntryID:     entry.ID,
			AccountCode: p.account,
			Description: accountName(p.account),
			Debit:       types.Zero(),
			Credit:      types.Zero(),
			SortOrder:   i + 1,
		}
		if p.debit {
			line.Debit = p.amount
		} else {
			line.Credit = p.amount
		}
		entry.Lines[i] = line
	}

	entry.TotalDebit, entry.TotalCredit = sides(entry.Lines)
	if !entry.TotalDebit.Equal(entry.TotalCredit) {
		return nil, apperror.NewInternal(fmt.Errorf("unbalanced journal entry for %s %s", src.Type, src.ID)).
			WithDetail("total_debit", entry.TotalDebit.StringFixed(2)).
			WithDetail("total_credit", entry.TotalCredit.StringFixed(2))
	}
	if entry.TotalDebit.IsZero() {
		return nil, apperror.NewValidation("source document has no amounts to post").
			WithDetail("source_type", src.Type).
			WithDetail("source_id", src.ID)
	}
	return entry, nil
}

func (s *Service) loadEntry(ctx context.Context, entryID id.ID) (*Entry, error) {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	entry.Lines, err = s.repo.GetLines(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("get entry lines: %w", err)
	}
	return entry, nil
}

// GetEntry returns an entry with its lines.
func (s *Service) GetEntry(ctx context.Context, entryID id.ID) (*Entry, error) {
	return s.loadEntry(ctx, entryID)
}

// TrialBalance returns debit, credit and balance per account.
func (s *Service) TrialBalance(ctx context.Context) (*TrialBalance, error) {
	rows, err := s.repo.TrialBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("trial balance: %w", err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].AccountCode < rows[j].AccountCode })

	tb := &TrialBalance{Rows: rows, TotalDebit: types.Zero(), TotalCredit: types.Zero()}
	for i := range tb.Rows {
		r := &tb.Rows[i]
		if r.AccountName == "" {
			r.AccountName = accountName(r.AccountCode)
		}
		r.Balance = r.Debit.Sub(r.Credit)
		tb.TotalDebit = tb.TotalDebit.Add(r.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(r.Credit)
	}
	tb.Balanced = tb.TotalDebit.Equal(tb.TotalCredit)
	return tb, nil
}

// HandleEvent posts the entry a domain event calls for. Events without an
// accounting effect are ignored.
func (s *Service) HandleEvent(ctx context.Context, eventType string, aggregateID id.ID) error {
	var sourceType SourceType
	switch eventType {
	case events.SaleCompleted:
		sourceType = SourceSale
	case events.PurchaseOrderReceived:
		sourceType = SourcePurchase
	case events.OnlineOrderPaid:
		sourceType = SourceOnlineOrder
	case events.InvoiceIssued:
		sourceType = SourceInvoice
	default:
		return nil
	}
	_, err := s.post(ctx, sourceType, aggregateID)
	return err
}

// PostsFor reports whether HandleEvent acts on eventType.
func PostsFor(eventType string) bool {
	switch eventType {
	case events.SaleCompleted, events.PurchaseOrderReceived, events.OnlineOrderPaid, events.InvoiceIssued:
		return true
	}
	return false
}
