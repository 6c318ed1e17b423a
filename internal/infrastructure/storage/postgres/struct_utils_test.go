package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"atelier/internal/core/id"
	"atelier/internal/core/types"
)

type stamped struct {
	CreatedAt time.Time `db:"created_at"`
}

type sampleRow struct {
	stamped
	ID       id.ID       `db:"id"`
	Number   string      `db:"number"`
	Total    types.Money `db:"total"`
	ClientID *id.ID      `db:"client_id"`
	Lines    []string    `db:"-"`
	internal string
}

func TestColumns(t *testing.T) {
	assert.Equal(t, []string{"created_at", "id", "number", "total", "client_id"}, Columns[sampleRow]())
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	row := sampleRow{
		stamped: stamped{CreatedAt: now},
		ID:      id.New(),
		Number:  "PED-2026-0001",
		Total:   types.MustMoney("12.50"),
		Lines:   []string{"ignored"},
	}

	m := StructToMap(&row)

	assert.Len(t, m, 5)
	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, "PED-2026-0001", m["number"])
	assert.Equal(t, now, m["created_at"])
	assert.Nil(t, m["client_id"])
	assert.NotContains(t, m, "lines")
	assert.Nil(t, StructToMap(42))
}

func TestStructValues(t *testing.T) {
	row := sampleRow{Number: "X"}
	assert.Equal(t, []any{"X", (*id.ID)(nil)}, StructValues(row, []string{"number", "client_id"}))
}
