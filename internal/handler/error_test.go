package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockDatabaseError simulates a driver error carrying sensitive details.
type mockDatabaseError struct {
	message string
}

func (e *mockDatabaseError) Error() string {
	return e.message
}

func serveError(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorBody) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/rapports", nil)
	rec := httptest.NewRecorder()
	ErrorResponse(rec, req, discardLogger(), err)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestErrorResponse_StatusMapping(t *testing.T) {
	dbErr := &mockDatabaseError{message: "pq: relation \"rapports\" does not exist"}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", domain.NewValidationError("report.create", "numeroSinistre", "is required"), http.StatusBadRequest, domain.EINVALID},
		{"unauthorized", domain.Unauthorized("export.request", "authentication required"), http.StatusUnauthorized, domain.EUNAUTHORIZED},
		{"forbidden", domain.Forbidden("office.delete", "admins only"), http.StatusForbidden, domain.EFORBIDDEN},
		{"not found", domain.NotFound("report.get", "report", "123"), http.StatusNotFound, domain.ENOTFOUND},
		{"conflict", domain.Conflict("office.create", "duplicate code"), http.StatusConflict, domain.ECONFLICT},
		{"rate limit", domain.RateLimit("report.create"), http.StatusTooManyRequests, domain.ERATELIMIT},
		{"constraint", &domain.ConstraintError{Op: "report.create", Constraint: "rapports_bureau_id_fkey", Err: dbErr}, http.StatusInternalServerError, domain.ECONSTRAINT},
		{"transient", &domain.TransientStorageError{Op: "report.create", Err: context.DeadlineExceeded}, http.StatusServiceUnavailable, domain.EUNAVAILABLE},
		{"internal", domain.Internal(dbErr, "report.get", "query failed"), http.StatusInternalServerError, domain.EINTERNAL},
		{"raw error", dbErr, http.StatusInternalServerError, domain.EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serveError(t, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestErrorResponse_ValidationListsFields(t *testing.T) {
	ve := &domain.ValidationError{Op: "report.create", Fields: map[string]string{
		"numeroSinistre":         "is required",
		"vehicule.numeroChassis": "must be exactly 17 characters",
	}}

	rec, body := serveError(t, ve)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ve.Fields, body.Error.Fields)
	assert.NotContains(t, rec.Body.String(), "report.create")
}

func TestErrorResponse_ConstraintCarriesDetails(t *testing.T) {
	ce := &domain.ConstraintError{
		Op:         "report.create",
		Constraint: "rapports_bureau_id_fkey",
		Reasons:    []string{"violates foreign key constraint", `Key (bureau_id) is not present in table "bureaux".`},
	}

	rec, body := serveError(t, ce)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ce.Reasons, body.Error.Details)
	assert.Contains(t, body.Error.Message, "rapports_bureau_id_fkey")
	assert.Nil(t, body.Error.Fields)
}

func TestErrorResponse_InternalErrorHidesDetails(t *testing.T) {
	sensitiveErr := &mockDatabaseError{message: "connection to 192.168.1.100:5432 refused"}
	internalErr := domain.Internal(sensitiveErr, "DB.Connect", "Failed to connect")

	rec, body := serveError(t, internalErr)

	raw := rec.Body.String()
	assert.NotContains(t, raw, "192.168")
	assert.NotContains(t, raw, "5432")
	assert.NotContains(t, raw, "DB.Connect")
	assert.Contains(t, body.Error.Message, "internal error")
	assert.Empty(t, body.Error.Details)
}

func TestErrorResponse_UnwrappedErrorReturnsGeneric(t *testing.T) {
	rawErr := &mockDatabaseError{message: "FATAL: password authentication failed for user \"postgres\""}

	rec, body := serveError(t, rawErr)

	raw := rec.Body.String()
	assert.NotContains(t, raw, "FATAL")
	assert.NotContains(t, raw, "postgres")
	assert.Contains(t, body.Error.Message, "internal error")
}
