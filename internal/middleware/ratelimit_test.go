package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/expertauto/expertise/internal/auth"
	"github.com/expertauto/expertise/internal/domain"
	"github.com/google/uuid"
)

// fakeClock is a manually advanced clock for window tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, max int, window time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: testNow}
	rl := NewRateLimiter(max, window)
	rl.now = clock.now
	return rl, clock
}

// =============================================================================
// RateLimiter Tests
// =============================================================================

func TestRateLimiter_Allow_UpToLimit(t *testing.T) {
	rl, _ := newTestLimiter(t, 5, time.Minute)

	for i := 0; i < 5; i++ {
		if !rl.Allow("user:a") {
			t.Errorf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("user:a") {
		t.Error("6th request should be denied")
	}
}

func TestRateLimiter_Allow_KeysAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)

	if !rl.Allow("user:a") || rl.Allow("user:a") {
		t.Fatal("user:a should get exactly one request")
	}
	if !rl.Allow("user:b") {
		t.Error("user:b should have its own budget")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, time.Minute)

	rl.Allow("user:a")
	rl.Allow("user:a")
	if rl.Allow("user:a") {
		t.Fatal("third request should be denied")
	}

	clock.advance(20 * time.Second)
	if got := rl.RetryAfter("user:a"); got < 9*time.Second || got > 11*time.Second {
		t.Errorf("expected about 10s until the next token, got %v", got)
	}
	if rl.Allow("user:a") {
		t.Error("request should still be denied before a token is back")
	}

	clock.advance(11 * time.Second)
	if !rl.Allow("user:a") {
		t.Error("request should be allowed once a token has refilled")
	}
}

func TestRateLimiter_RetryAfterUnknownKey(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)
	if got := rl.RetryAfter("user:nobody"); got != 0 {
		t.Errorf("expected 0 for an unseen key, got %v", got)
	}
}

func TestRateLimiter_PrunesFullBuckets(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, time.Minute)

	rl.Allow("user:a")
	clock.advance(50 * time.Second)
	rl.Allow("user:b")
	clock.advance(20 * time.Second)

	// user:a is full again, user:b is still refilling
	rl.Allow("user:c")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.buckets["user:a"]; ok {
		t.Error("refilled bucket should be removed")
	}
	if _, ok := rl.buckets["user:b"]; !ok {
		t.Error("bucket still refilling should be kept")
	}
}

// =============================================================================
// RateLimitMiddleware Tests
// =============================================================================

func limitedHandler(t *testing.T, max int) (http.Handler, *fakeClock) {
	rl, clock := newTestLimiter(t, max, time.Minute)
	mw := NewRateLimitMiddleware(rl, discardLogger())
	return mw.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})), clock
}

func asActor(req *http.Request, id uuid.UUID) *http.Request {
	return req.WithContext(auth.SetActor(req.Context(), &domain.Actor{UserID: id, Role: domain.RoleExpert}))
}

func TestRateLimitMiddleware_BlocksAfterLimit(t *testing.T) {
	h, clock := limitedHandler(t, 2)
	user := uuid.New()

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, asActor(httptest.NewRequest("POST", "/api/rapports", nil), user))
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i+1, rec.Code)
		}
	}

	clock.advance(15 * time.Second)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, asActor(httptest.NewRequest("POST", "/api/rapports", nil), user))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if ra := rec.Header().Get("Retry-After"); ra != "15" && ra != "16" {
		t.Errorf("expected Retry-After of about 15s, got %q", ra)
	}
	if !strings.Contains(rec.Body.String(), domain.ERATELIMIT) {
		t.Errorf("expected rate limit error code in body, got %s", rec.Body.String())
	}
}

func TestRateLimitMiddleware_KeysByActor(t *testing.T) {
	h, _ := limitedHandler(t, 1)

	// Two users behind the same proxy address
	for _, user := range []uuid.UUID{uuid.New(), uuid.New()} {
		req := asActor(httptest.NewRequest("POST", "/api/rapports", nil), user)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Errorf("user %s should not share a budget, got %d", user, rec.Code)
		}
	}
}

func TestRateLimitMiddleware_AnonymousKeysByIP(t *testing.T) {
	h, _ := limitedHandler(t, 1)

	send := func(headers map[string]string) int {
		req := httptest.NewRequest("POST", "/api/rapports", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}); code != http.StatusCreated {
		t.Errorf("first request from 203.0.113.5 should pass, got %d", code)
	}
	if code := send(map[string]string{"X-Real-IP": "203.0.113.5"}); code != http.StatusTooManyRequests {
		t.Errorf("same client via X-Real-IP should be limited, got %d", code)
	}
	if code := send(nil); code != http.StatusCreated {
		t.Errorf("request from RemoteAddr should have its own budget, got %d", code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"remote addr", "192.0.2.1:1234", "", "", "192.0.2.1"},
		{"remote addr without port", "192.0.2.1", "", "", "192.0.2.1"},
		{"forwarded chain", "10.0.0.1:1", "198.51.100.7, 10.0.0.2", "", "198.51.100.7"},
		{"real ip", "10.0.0.1:1", "", " 198.51.100.8 ", "198.51.100.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
