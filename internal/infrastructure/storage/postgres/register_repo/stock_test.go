package register_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/id"
	"atelier/internal/domain/registers/stock"
)

func TestHistoryQuery(t *testing.T) {
	repo := NewStockRepo(nil)
	variantID := id.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mt := stock.MovementSale

	tests := []struct {
		name     string
		filter   stock.MovementFilter
		wantTail string
		wantArgs []any
	}{
		{
			name:     "no filter",
			filter:   stock.MovementFilter{},
			wantTail: "FROM stock_movements ORDER BY created_at DESC, id DESC",
			wantArgs: nil,
		},
		{
			name:     "variant and type with paging",
			filter:   stock.MovementFilter{VariantID: &variantID, MovementType: &mt, FromDate: &from, Limit: 50, Offset: 100},
			wantTail: "FROM stock_movements WHERE variant_id = $1 AND movement_type = $2 AND created_at >= $3 ORDER BY created_at DESC, id DESC LIMIT 50 OFFSET 100",
			wantArgs: []any{variantID.String(), mt, from},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.historyQuery(tt.filter).ToSql()
			require.NoError(t, err)
			assert.Contains(t, sql, tt.wantTail)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}
