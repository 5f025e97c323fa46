package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/expertauto/expertise/internal/auth"
	"github.com/expertauto/expertise/internal/domain"
)

// =============================================================================
// Request Logging Middleware Tests
// =============================================================================

func serveLogged(t *testing.T, req *http.Request, status int) string {
	t.Helper()
	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))

	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	return buf.String()
}

func TestRequestLoggingMiddleware_LogsBasicInfo(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/rapports", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("User-Agent", "expertise-client/1.0")

	logOutput := serveLogged(t, req, http.StatusOK)

	for _, want := range []string{"GET", "/api/rapports", "status=200", "bytes=11", "duration_ms", "192.168.1.1", "expertise-client/1.0"} {
		if !strings.Contains(logOutput, want) {
			t.Errorf("log should contain %q, got: %s", want, logOutput)
		}
	}
}

func TestRequestLoggingMiddleware_LogsActor(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/rapports", nil)
	req = req.WithContext(auth.SetActor(req.Context(), &domain.Actor{UserID: testUserID, Role: domain.RoleExpert}))

	logOutput := serveLogged(t, req, http.StatusOK)

	if !strings.Contains(logOutput, "user_id="+testUserID.String()) {
		t.Errorf("log should contain the acting user, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_ServerErrorsLogAtWarn(t *testing.T) {
	logOutput := serveLogged(t, httptest.NewRequest("POST", "/api/rapports", nil), http.StatusServiceUnavailable)

	if !strings.Contains(logOutput, "level=WARN") {
		t.Errorf("5xx should log at warn level, got: %s", logOutput)
	}
	if !strings.Contains(logOutput, "status=503") {
		t.Errorf("log should contain status code, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_DoesNotLogSensitiveQueryParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
		secret string
	}{
		{"token", "/api/rapports?token=secrettoken123", "secrettoken123"},
		{"presigned signature", "/files/rapports/x.pdf?X-Amz-Signature=deadbeef42&X-Amz-Expires=900", "deadbeef42"},
		{"presigned credential", "/files/rapports/x.pdf?X-Amz-Credential=AKIAEXAMPLE", "AKIAEXAMPLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logOutput := serveLogged(t, httptest.NewRequest("GET", tt.target, nil), http.StatusOK)

			if strings.Contains(logOutput, tt.secret) {
				t.Errorf("log should NOT contain %q, got: %s", tt.secret, logOutput)
			}
			if !strings.Contains(logOutput, "[REDACTED]") {
				t.Errorf("log should mark the redacted parameter, got: %s", logOutput)
			}
		})
	}
}

func TestRequestLoggingMiddleware_KeepsHarmlessQueryParams(t *testing.T) {
	logOutput := serveLogged(t, httptest.NewRequest("GET", "/api/rapports?statut=en_cours&page=2", nil), http.StatusOK)

	if !strings.Contains(logOutput, "statut=en_cours&page=2") {
		t.Errorf("log should keep filter params, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_ExcludesHealthAndMetrics(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		logOutput := serveLogged(t, httptest.NewRequest("GET", path, nil), http.StatusOK)
		if logOutput != "" {
			t.Errorf("%s should not be logged, got: %s", path, logOutput)
		}
	}
}

func TestRequestLoggingMiddleware_PassesRequestThrough(t *testing.T) {
	mw := NewRequestLoggingMiddleware(discardLogger())
	called := false

	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/rapports", nil))

	if !called {
		t.Error("handler should be called")
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
}
