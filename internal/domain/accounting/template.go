package accounting

import (
	"fmt"

	"atelier/internal/core/types"
)

type posting struct {
	account string
	debit   bool
	amount  types.Money
}

// template returns the fixed postings for a source document. Zero amounts
// are dropped.
func template(src *Source) ([]posting, error) {
	var p []posting
	switch src.Type {
	case SourceSale, SourceOnlineOrder:
		p = []posting{
			{AccountClients, true, src.Total},
			{AccountSales, false, src.Subtotal},
			{AccountOutputVAT, false, src.TaxAmount},
		}
	case SourcePurchase:
		p = []posting{
			{AccountPurchases, true, src.Subtotal},
			{AccountInputVAT, true, src.TaxAmount},
			{AccountSuppliers, false, src.Total},
		}
	case SourceInvoice:
		p = []posting{
			{AccountClients, true, src.Total},
			{AccountWithholding, true, src.IRPFAmount},
			{AccountSales, false, src.Subtotal},
			{AccountOutputVAT, false, src.TaxAmount},
		}
	default:
		return nil, fmt.Errorf("no template for source type %q", src.Type)
	}

	out := p[:0]
	for _, x := range p {
		if !x.amount.IsZero() {
			x.amount = types.Round2(x.amount)
			out = append(out, x)
		}
	}
	return out, nil
}

// sides sums the debit and credit columns.
func sides(lines []EntryLine) (debit, credit types.Money) {
	debit, credit = types.Zero(), types.Zero()
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}
