package numerator

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/apperror"
	corenumerator "atelier/internal/core/numerator"
)

type mockRow struct {
	val any
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	switch ptr := dest[0].(type) {
	case *string:
		*ptr = m.val.(string)
	case *int64:
		*ptr = m.val.(int64)
	}
	return nil
}

type mockQuerier struct {
	mu      sync.Mutex
	locks   []string
	queries []string
	args    [][]any
	execs   []string
	seq     int64

	// existing holds the values already stored in the numbered column.
	existing []string
}

// top mirrors the scan query: keep values matching pattern, then order by
// length and value, both descending.
func (m *mockQuerier) top(pattern string) (string, bool) {
	re := regexp.MustCompile(pattern)
	var matched []string
	for _, v := range m.existing {
		if re.MatchString(v) {
			matched = append(matched, v)
		}
	}
	if len(matched) == 0 {
		return "", false
	}
	sort.Slice(matched, func(i, j int) bool {
		if len(matched[i]) != len(matched[j]) {
			return len(matched[i]) > len(matched[j])
		}
		return matched[i] > matched[j]
	})
	return matched[0], true
}

func (m *mockQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.Contains(sql, "pg_advisory_xact_lock") {
		m.locks = append(m.locks, args[0].(string))
	} else {
		m.execs = append(m.execs, sql)
	}
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (m *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, sql)
	m.args = append(m.args, args)

	switch {
	case strings.Contains(sql, "sys_sequences"):
		m.seq++
		return &mockRow{val: m.seq}
	case strings.Contains(sql, "COALESCE(MAX"):
		return &mockRow{val: int64(8)}
	default:
		last, ok := m.top(args[0].(string))
		if !ok {
			return &mockRow{err: pgx.ErrNoRows}
		}
		return &mockRow{val: last}
	}
}

var period = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

func TestNextNumber_ScanEmpty(t *testing.T) {
	q := &mockQuerier{}
	svc := NewWithQuerier(q)

	num, err := svc.NextNumber(context.Background(), corenumerator.YearlyConfig("orders", "order_number", "PED"), period)
	require.NoError(t, err)

	assert.Equal(t, "PED-2026-0001", num)
	assert.Equal(t, []string{"orders.order_number:PED-2026-"}, q.locks)
	assert.Equal(t, `SELECT "order_number" FROM "orders" WHERE "order_number" ~ $1 ORDER BY length("order_number") DESC, "order_number" DESC LIMIT 1`, q.queries[0])
	assert.Equal(t, []any{"^PED-2026-[0-9]{1,18}$"}, q.args[0])
}

func TestNextNumber_ScanContinuesAfterLast(t *testing.T) {
	q := &mockQuerier{existing: []string{"TCK-2026-0009", "TCK-2026-0041", "TCK-2025-0300"}}
	svc := NewWithQuerier(q)

	num, err := svc.NextNumber(context.Background(), corenumerator.YearlyConfig("sales", "sale_number", "TCK"), period)
	require.NoError(t, err)
	assert.Equal(t, "TCK-2026-0042", num)
}

func TestNextNumber_SuffixGrowsPastPadding(t *testing.T) {
	q := &mockQuerier{existing: []string{"PROV-9999", "PROV-0100"}}
	svc := NewWithQuerier(q)

	num, err := svc.NextNumber(context.Background(), corenumerator.PlainConfig("suppliers", "supplier_code", "PROV"), period)
	require.NoError(t, err)
	assert.Equal(t, "PROV-10000", num)
}

func TestNextNumber_IgnoresNonNumericSuffixes(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"corrective sibling", []string{"FAC-2026-0012", "FAC-2026-0012-R"}, "FAC-2026-0013"},
		{"imported letter suffix", []string{"FAC-2026-0007-B", "FAC-2026-0011"}, "FAC-2026-0012"},
		{"only non numeric", []string{"FAC-2026-0012-R"}, "FAC-2026-0001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewWithQuerier(&mockQuerier{existing: tt.existing})

			num, err := svc.NextNumber(context.Background(), corenumerator.YearlyConfig("invoices", "invoice_number", "FAC"),
				time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			assert.Equal(t, tt.want, num)
		})
	}
}

func TestNumberedColumns_AllowList(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		call func(*Service) error
	}{
		{"unknown table", func(s *Service) error {
			_, err := s.NextNumber(ctx, corenumerator.YearlyConfig("users", "order_number", "PED"), period)
			return err
		}},
		{"unknown column", func(s *Service) error {
			_, err := s.NextNumber(ctx, corenumerator.YearlyConfig("orders", "notes", "PED"), period)
			return err
		}},
		{"unknown sequence scope", func(s *Service) error {
			_, err := s.NextSequence(ctx, corenumerator.SequenceConfig{
				Table: "journal_entries", Field: "entry_number", ScopeField: "id; DROP TABLE orders", ScopeValue: 1,
			})
			return err
		}},
		{"unknown counter table", func(s *Service) error {
			return s.SetNextNumber(ctx, corenumerator.PlainConfig("pg_user", "usename", "X"), period, 10)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &mockQuerier{}
			err := tt.call(NewWithQuerier(q))
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
			assert.Empty(t, q.locks)
			assert.Empty(t, q.queries)
		})
	}
}

func TestSetNextNumber(t *testing.T) {
	q := &mockQuerier{}
	svc := NewWithQuerier(q)
	cfg := corenumerator.YearlyConfig("invoices", "invoice_number", "FAC")

	require.NoError(t, svc.SetNextNumber(context.Background(), cfg, period, 500))
	require.Len(t, q.execs, 1)
	assert.Contains(t, q.execs[0], "sys_sequences")
}

func TestNextNumber_Sequence(t *testing.T) {
	q := &mockQuerier{}
	svc := NewWithQuerier(q)
	cfg := corenumerator.YearlyConfig("invoices", "invoice_number", "FAC")
	cfg.Strategy = corenumerator.StrategySequence

	first, err := svc.NextNumber(context.Background(), cfg, period)
	require.NoError(t, err)
	second, err := svc.NextNumber(context.Background(), cfg, period)
	require.NoError(t, err)

	assert.Equal(t, "FAC-2026-0001", first)
	assert.Equal(t, "FAC-2026-0002", second)
	assert.Len(t, q.locks, 2)
}

func TestNextSequence(t *testing.T) {
	q := &mockQuerier{}
	svc := NewWithQuerier(q)

	n, err := svc.NextSequence(context.Background(), corenumerator.SequenceConfig{
		Table:      "journal_entries",
		Field:      "entry_number",
		ScopeField: "fiscal_year",
		ScopeValue: 2026,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(8), n)
	assert.Equal(t, []string{"journal_entries.entry_number:2026"}, q.locks)
	assert.Equal(t, `SELECT COALESCE(MAX("entry_number"), 0) + 1 FROM "journal_entries" WHERE "fiscal_year" = $1`, q.queries[0])
}
