package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

// transientSQLStates are Postgres error codes worth retrying as a whole
// transaction.
var transientSQLStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57014": true, // query_canceled (statement_timeout)
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
	"53300": true, // too_many_connections
}

// classifyStorageError maps a storage failure to a domain error:
//   - errors already carrying a domain classification pass through
//   - integrity violations (class 23) and rejected values (class 22) become
//     *domain.ConstraintError
//   - connection loss, timeouts, cancellation, serialization failures and
//     deadlocks become *domain.TransientStorageError
//   - anything else is internal
func classifyStorageError(op string, err error) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	var ve *domain.ValidationError
	var ce *domain.ConstraintError
	var te *domain.TransientStorageError
	if errors.As(err, &de) || errors.As(err, &ve) || errors.As(err, &ce) || errors.As(err, &te) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case transientSQLStates[pgErr.Code] || strings.HasPrefix(pgErr.Code, "08"):
			return &domain.TransientStorageError{Op: op, Err: err}
		case strings.HasPrefix(pgErr.Code, "23"), strings.HasPrefix(pgErr.Code, "22"):
			return &domain.ConstraintError{
				Op:         op,
				Constraint: pgErr.ConstraintName,
				Reasons:    constraintReasons(pgErr),
				Err:        err,
			}
		}
		return domain.Internal(err, op, "storage operation failed")
	}

	if isTransient(err) {
		return &domain.TransientStorageError{Op: op, Err: err}
	}

	return domain.Internal(err, op, "storage operation failed")
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func constraintReasons(pgErr *pgconn.PgError) []string {
	reasons := []string{pgErr.Message}
	if pgErr.Detail != "" {
		reasons = append(reasons, pgErr.Detail)
	}
	if pgErr.ColumnName != "" {
		reasons = append(reasons, "column: "+pgErr.ColumnName)
	}
	return reasons
}
