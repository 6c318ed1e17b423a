package order_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/id"
)

func TestSelectOrder_ForUpdate(t *testing.T) {
	repo := NewOrderRepo(nil)
	orderID := id.New()

	sql, args, err := repo.selectOrder(orderID).Suffix("FOR UPDATE").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM orders WHERE id = $1 FOR UPDATE")
	assert.Contains(t, sql, "SELECT id, order_number, kind, status, store_id, client_id, subtotal")
	assert.NotContains(t, sql, "lines")
	assert.Equal(t, []any{orderID.String()}, args)
}
