package postgres

import (
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/apperror"
)

func TestMigrations_Ordered(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	assert.True(t, sort.StringsAreSorted(names))
	assert.Equal(t, "migrations/0001_init.sql", names[0])
}

func TestMigrations_AppointmentOverlapGuard(t *testing.T) {
	script, err := migrationsFS.ReadFile("migrations/0002_appointment_overlap.sql")
	require.NoError(t, err)
	sql := string(script)

	assert.Contains(t, sql, "CREATE EXTENSION IF NOT EXISTS btree_gist")
	for _, name := range []string{"appointments_tailor_no_overlap", "appointments_store_no_overlap"} {
		assert.Contains(t, sql, "ADD CONSTRAINT "+name+" EXCLUDE USING gist")
	}
	assert.Equal(t, 2, strings.Count(sql, "WHERE (status <> 'cancelled'"))
	assert.Contains(t, sql, "tailor_id IS NULL")

	err = MapError(&pgconn.PgError{Code: "23P01", ConstraintName: "appointments_tailor_no_overlap"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeScheduleConflict, appErr.Code)
	assert.Equal(t, "appointments_tailor_no_overlap", appErr.Details["constraint"])
}
