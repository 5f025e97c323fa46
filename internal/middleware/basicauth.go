package middleware

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/expertauto/expertise/internal/handler"
)

// BasicAuthMiddleware protects operator endpoints such as /metrics with a
// single username and password.
type BasicAuthMiddleware struct {
	realm    string
	username string
	password string
	enabled  bool
	logger   *slog.Logger
}

// NewBasicAuthMiddleware creates a new basic auth middleware.
// If both username and password are empty, authentication is disabled.
func NewBasicAuthMiddleware(realm, username, password string, logger *slog.Logger) *BasicAuthMiddleware {
	return &BasicAuthMiddleware{
		realm:    realm,
		username: username,
		password: password,
		enabled:  username != "" || password != "",
		logger:   logger,
	}
}

// Handler returns middleware that requires basic authentication.
func (m *BasicAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		// Constant-time comparison of both values, always evaluated
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(m.username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(m.password)) == 1

		if !ok || !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", m.realm))
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}
