// Package accounting generates double-entry journal entries from sales,
// purchases, online orders and invoices.
package accounting

import (
	"time"

	"atelier/internal/core/id"
	"atelier/internal/core/types"
)

// Account codes of the fixed chart of accounts.
const (
	AccountClients     = "430"
	AccountSales       = "700"
	AccountOutputVAT   = "477"
	AccountInputVAT    = "472"
	AccountWithholding = "473"
	AccountSuppliers   = "400"
	AccountPurchases   = "600"
)

// AccountType of a chart entry.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountIncome    AccountType = "income"
	AccountExpense   AccountType = "expense"
)

// NormalBalance is the side on which an account increases.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "debit"
	NormalCredit NormalBalance = "credit"
)

// Account is one row of the chart of accounts.
type Account struct {
	Code          string        `db:"code" json:"code"`
	Name          string        `db:"name" json:"name"`
	AccountType   AccountType   `db:"account_type" json:"account_type"`
	NormalBalance NormalBalance `db:"normal_balance" json:"normal_balance"`
}

var chart = []Account{
	{AccountClients, "Clientes", AccountAsset, NormalDebit},
	{AccountSales, "Ventas de mercaderías", AccountIncome, NormalCredit},
	{AccountOutputVAT, "H.P. IVA repercutido", AccountLiability, NormalCredit},
	{AccountInputVAT, "H.P. IVA soportado", AccountAsset, NormalDebit},
	{AccountWithholding, "H.P. retenciones y pagos a cuenta", AccountAsset, NormalDebit},
	{AccountSuppliers, "Proveedores", AccountLiability, NormalCredit},
	{AccountPurchases, "Compras de mercaderías", AccountExpense, NormalDebit},
}

// ChartOfAccounts returns a copy of the fixed chart.
func ChartOfAccounts() []Account {
	return append([]Account(nil), chart...)
}

func accountName(code string) string {
	for _, a := range chart {
		if a.Code == code {
			return a.Name
		}
	}
	return code
}

// SourceType is the kind of document an entry was generated from.
type SourceType string

const (
	SourceSale        SourceType = "sale"
	SourcePurchase    SourceType = "purchase"
	SourceOnlineOrder SourceType = "online_order"
	SourceInvoice     SourceType = "invoice"
)

// Source is the accounting view of a source document.
//
// Subtotal is the taxable base after document discounts, so that for
// sales and orders Total == Subtotal + TaxAmount and for invoices
// Total == Subtotal + TaxAmount - IRPFAmount.
type Source struct {
	Type           SourceType  `db:"-"`
	ID             id.ID       `db:"id"`
	Number         string      `db:"number"`
	Date           time.Time   `db:"doc_date"`
	Subtotal       types.Money `db:"subtotal"`
	TaxAmount      types.Money `db:"tax_amount"`
	IRPFAmount     types.Money `db:"irpf_amount"`
	Total          types.Money `db:"total"`
	JournalEntryID *id.ID      `db:"journal_entry_id"`
}

// Entry is a balanced journal entry.
type Entry struct {
	ID          id.ID       `db:"id" json:"id"`
	EntryNumber int64       `db:"entry_number" json:"entry_number"`
	FiscalYear  int         `db:"fiscal_year" json:"fiscal_year"`
	EntryDate   time.Time   `db:"entry_date" json:"entry_date"`
	Description string      `db:"description" json:"description"`
	SourceType  SourceType  `db:"source_type" json:"source_type"`
	SourceID    id.ID       `db:"source_id" json:"source_id"`
	TotalDebit  types.Money `db:"total_debit" json:"total_debit"`
	TotalCredit types.Money `db:"total_credit" json:"total_credit"`
	Actor       string      `db:"actor" json:"actor"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`

	Lines []EntryLine `db:"-" json:"lines"`
}

// EntryLine posts one amount to one account. Exactly one of Debit and
// Credit is non-zero.
type EntryLine struct {
	ID          id.ID       `db:"id" json:"id"`
	EntryID     id.ID       `db:"entry_id" json:"entry_id"`
	AccountCode string      `db:"account_code" json:"account_code"`
	Description string      `db:"description" json:"description"`
	Debit       types.Money `db:"debit" json:"debit"`
	Credit      types.Money `db:"credit" json:"credit"`
	SortOrder   int         `db:"sort_order" json:"sort_order"`
}

// TrialBalanceRow is the movement of one account.
type TrialBalanceRow struct {
	AccountCode string      `db:"account_code" json:"account_code"`
	AccountName string      `db:"account_name" json:"account_name"`
	Debit       types.Money `db:"debit" json:"debit"`
	Credit      types.Money `db:"credit" json:"credit"`
	Balance     types.Money `db:"-" json:"balance"`
}

// TrialBalance lists every account with movements.
type TrialBalance struct {
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  types.Money       `json:"total_debit"`
	TotalCredit types.Money       `json:"total_credit"`
	Balanced    bool              `json:"balanced"`
}
