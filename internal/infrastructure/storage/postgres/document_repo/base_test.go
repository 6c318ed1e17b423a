package document_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/id"
	"atelier/internal/domain/documents/sale"
)

func TestSelectByID_ForUpdate(t *testing.T) {
	repo := NewInvoiceRepo(nil)
	invoiceID := id.New()

	sql, args, err := repo.selectByID(invoiceID).Suffix("FOR UPDATE").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "SELECT id, invoice_number, order_id, sale_id")
	assert.Contains(t, sql, "FROM invoices WHERE id = $1 FOR UPDATE")
	assert.NotContains(t, sql, "lines")
	assert.Equal(t, []any{invoiceID.String()}, args)
}

func TestBindLine(t *testing.T) {
	repo := NewSaleRepo(nil)
	saleID := id.New()

	lines := []sale.Line{{Description: "Camisa"}, {Description: "Corbata"}}
	for i := range lines {
		repo.bindLine(&lines[i], saleID)
	}

	for _, l := range lines {
		assert.Equal(t, saleID, l.SaleID)
	}
}

func TestLineColumns(t *testing.T) {
	repo := NewInvoiceRepo(nil)

	assert.Equal(t,
		[]string{"id", "invoice_id", "description", "quantity", "unit_price", "line_total", "sort_order"},
		repo.lineCols)
	assert.Equal(t, "invoice_id", repo.parentCol)
}
