// Package events defines the domain events written to the transactional
// outbox and consumed by the background worker.
package events

import (
	"context"
	"sync"

	"atelier/internal/core/id"
)

// Event types
const (
	OrderStatusChanged    = "order.status_changed"
	OnlineOrderPaid       = "online_order.paid"
	SaleCompleted         = "sale.completed"
	PurchaseOrderReceived = "purchase_order.received"
	InvoiceIssued         = "invoice.issued"
	PaymentRecorded       = "payment.recorded"
	PaymentDeleted        = "payment.deleted"
	StockMoved            = "stock.moved"
	JournalEntryPosted    = "journal_entry.posted"
)

// Aggregate types
const (
	AggregateOrder         = "order"
	AggregateSale          = "sale"
	AggregatePurchaseOrder = "purchase_order"
	AggregateInvoice       = "invoice"
	AggregateStockLevel    = "stock_level"
	AggregateJournalEntry  = "journal_entry"
)

// Event is a fact recorded in the same transaction as the change it describes.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	Type          string
	Payload       any
}

// Publisher records events. Implementations must join the transaction
// carried by ctx so that the event commits or rolls back with the change.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Recorder is an in-memory Publisher for tests.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
	return nil
}

// Types returns recorded event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}
