package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"atelier/internal/core/apperror"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}, apperror.CodeConflict},
		{"exclusion", &pgconn.PgError{Code: "23P01"}, apperror.CodeScheduleConflict},
		{"serialization", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), apperror.CodeAborted},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, apperror.CodeAborted},
		{"other pg", &pgconn.PgError{Code: "42P01"}, apperror.CodeInternal},
		{"plain", errors.New("connection reset"), apperror.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, apperror.HasCode(MapError(tt.err), tt.code))
		})
	}
}

func TestMapError_KeepsDomainErrors(t *testing.T) {
	domainErr := fmt.Errorf("create order: %w", apperror.NewValidation("bad"))
	assert.Same(t, domainErr, MapError(domainErr))
	assert.NoError(t, MapError(nil))
}
