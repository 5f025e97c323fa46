package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStorageError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "foreign key", err: &pgconn.PgError{Code: "23503"}, wantCode: domain.ECONSTRAINT},
		{name: "unique", err: &pgconn.PgError{Code: "23505"}, wantCode: domain.ECONSTRAINT},
		{name: "not null", err: &pgconn.PgError{Code: "23502"}, wantCode: domain.ECONSTRAINT},
		{name: "value too long", err: &pgconn.PgError{Code: "22001"}, wantCode: domain.ECONSTRAINT},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, wantCode: domain.EUNAVAILABLE},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, wantCode: domain.EUNAVAILABLE},
		{name: "statement timeout", err: &pgconn.PgError{Code: "57014"}, wantCode: domain.EUNAVAILABLE},
		{name: "connection failure", err: &pgconn.PgError{Code: "08006"}, wantCode: domain.EUNAVAILABLE},
		{name: "too many connections", err: &pgconn.PgError{Code: "53300"}, wantCode: domain.EUNAVAILABLE},
		{name: "syntax error", err: &pgconn.PgError{Code: "42601"}, wantCode: domain.EINTERNAL},
		{name: "context deadline", err: fmt.Errorf("insert: %w", context.DeadlineExceeded), wantCode: domain.EUNAVAILABLE},
		{name: "context canceled", err: context.Canceled, wantCode: domain.EUNAVAILABLE},
		{name: "bad connection", err: driver.ErrBadConn, wantCode: domain.EUNAVAILABLE},
		{name: "connection done", err: sql.ErrConnDone, wantCode: domain.EUNAVAILABLE},
		{name: "network error", err: &net.OpError{Op: "read", Err: errors.New("reset")}, wantCode: domain.EUNAVAILABLE},
		{name: "unknown error", err: errors.New("boom"), wantCode: domain.EINTERNAL},
		{name: "domain error passes through", err: domain.NotFound("x", "report", "1"), wantCode: domain.ENOTFOUND},
		{name: "validation passes through", err: domain.NewValidationError("x", "f", "bad"), wantCode: domain.EINVALID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyStorageError("op", tt.err)
			assert.Equal(t, tt.wantCode, domain.ErrorCode(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, classifyStorageError("op", nil))
}

func TestClassifyStorageError_ConstraintDetails(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23503",
		Message:        `insert or update on table "rapports" violates foreign key constraint "rapports_bureau_id_fkey"`,
		Detail:         `Key (bureau_id)=(42) is not present in table "bureaux".`,
		ConstraintName: "rapports_bureau_id_fkey",
		ColumnName:     "bureau_id",
	}

	err := classifyStorageError("report.create", fmt.Errorf("insert report: %w", pgErr))

	var ce *domain.ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "report.create", ce.Op)
	assert.Equal(t, "rapports_bureau_id_fkey", ce.Constraint)
	assert.Equal(t, []string{pgErr.Message, pgErr.Detail, "column: bureau_id"}, ce.Reasons)
	assert.Equal(t, ce.Reasons, domain.ErrorDetails(err))
}
