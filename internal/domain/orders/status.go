package orders

import (
	"atelier/internal/core/apperror"
)

// Status of an order or order line. The legal values depend on the order kind.
type Status string

// Tailoring chain
const (
	StatusCreated        Status = "created"
	StatusFabricOrdered  Status = "fabric_ordered"
	StatusFabricReceived Status = "fabric_received"
	StatusFactoryOrdered Status = "factory_ordered"
	StatusInProduction   Status = "in_production"
	StatusFitting        Status = "fitting"
	StatusAdjustments    Status = "adjustments"
	StatusFinished       Status = "finished"
	StatusIncident       Status = "incident"
)

// Online chain
const (
	StatusPendingPayment Status = "pending_payment"
	StatusPaid           Status = "paid"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusRefunded       Status = "refunded"
)

// Shared
const (
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var tailoringChain = []Status{
	StatusCreated,
	StatusFabricOrdered,
	StatusFabricReceived,
	StatusFactoryOrdered,
	StatusInProduction,
	StatusFitting,
	StatusAdjustments,
	StatusFinished,
	StatusDelivered,
}

var onlineChain = []Status{
	StatusPendingPayment,
	StatusPaid,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
}

// transitions[kind][from] lists every legal successor.
var transitions = map[Kind]map[Status][]Status{
	KindTailoring: buildTailoring(),
	KindOnline:    buildOnline(),
}

func buildTailoring() map[Status][]Status {
	t := make(map[Status][]Status)
	for i, s := range tailoringChain[:len(tailoringChain)-1] {
		t[s] = append(t[s], tailoringChain[i+1], StatusCancelled, StatusIncident)
	}
	// Another fitting round after adjustments.
	t[StatusAdjustments] = append(t[StatusAdjustments], StatusFitting)

	// An incident resumes into any production step, or ends the order.
	for _, s := range tailoringChain[1 : len(tailoringChain)-1] {
		t[StatusIncident] = append(t[StatusIncident], s)
	}
	t[StatusIncident] = append(t[StatusIncident], StatusCancelled)
	return t
}

func buildOnline() map[Status][]Status {
	return map[Status][]Status{
		StatusPendingPayment: {StatusPaid, StatusCancelled},
		StatusPaid:           {StatusProcessing, StatusCancelled, StatusRefunded},
		StatusProcessing:     {StatusShipped, StatusCancelled, StatusRefunded},
		StatusShipped:        {StatusDelivered, StatusRefunded},
	}
}

// InitialStatus is the status a new order of kind k starts in.
func InitialStatus(k Kind) Status {
	if k == KindOnline {
		return StatusPendingPayment
	}
	return StatusCreated
}

// Valid reports whether k is a known order kind.
func (k Kind) Valid() bool {
	return k == KindTailoring || k == KindOnline
}

// IsTerminal reports whether no further transition is allowed from s.
func IsTerminal(k Kind, s Status) bool {
	_, ok := transitions[k][s]
	return !ok && KnownStatus(k, s)
}

// KnownStatus reports whether s belongs to the status set of kind k.
func KnownStatus(k Kind, s Status) bool {
	switch k {
	case KindTailoring:
		return s == StatusCancelled || s == StatusIncident || contains(tailoringChain, s)
	case KindOnline:
		return s == StatusCancelled || s == StatusRefunded || contains(onlineChain, s)
	}
	return false
}

// CanTransition reports whether from -> to is a legal edge for kind k.
func CanTransition(k Kind, from, to Status) bool {
	return contains(transitions[k][from], to)
}

// CheckTransition returns a VALIDATION error describing an illegal move.
func CheckTransition(k Kind, from, to Status) error {
	if !KnownStatus(k, to) {
		return apperror.NewValidation("unknown status").
			WithDetail("kind", k).
			WithDetail("status", to)
	}
	if !CanTransition(k, from, to) {
		return apperror.NewValidation("illegal status transition").
			WithDetail("kind", k).
			WithDetail("from", from).
			WithDetail("to", to).
			WithDetail("allowed", transitions[k][from])
	}
	return nil
}

func contains(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
