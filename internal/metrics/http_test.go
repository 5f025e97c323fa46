package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/rapports", "/api/rapports"},
		{"/api/rapports/0b7c1e8e-6a2f-4c1d-9f0e-3d2b1a0c9e8f", "/api/rapports/{id}"},
		{"/api/rapports/0B7C1E8E-6A2F-4C1D-9F0E-3D2B1A0C9E8F/exports", "/api/rapports/{id}/exports"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePath(tt.in))
	}
}

func TestMiddleware_UsesMuxPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rapports/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := Middleware(mux)

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/rapports/{id}", "404"))

	req := httptest.NewRequest(http.MethodGet, "/api/rapports/abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/rapports/{id}", "404"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before+1, after)
}

func TestMiddleware_SkipsMetricsEndpoint(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/metrics", "200"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/metrics", "200"))

	assert.Equal(t, before, after)
}
