// Package middleware contains HTTP middleware for the assessment service.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/expertauto/expertise/internal/auth"
	"github.com/expertauto/expertise/internal/domain"
	"github.com/expertauto/expertise/internal/handler"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ActorClaims are the claims of a bearer token issued by the identity
// provider. The subject is the user's UUID.
type ActorClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenMiddleware verifies HS256 bearer tokens and attaches the actor they
// identify to the request context.
type TokenMiddleware struct {
	secret []byte
	logger *slog.Logger
	now    func() time.Time
}

// NewTokenMiddleware creates a new TokenMiddleware verifying tokens with secret.
func NewTokenMiddleware(secret string, logger *slog.Logger) *TokenMiddleware {
	return &TokenMiddleware{
		secret: []byte(secret),
		logger: logger,
		now:    time.Now,
	}
}

// WithActor loads the actor from the Authorization header.
//
// Requests without a bearer token continue anonymously; RequireActor decides
// whether the route needs one. A token that is present but invalid is
// rejected with 401.
func (m *TokenMiddleware) WithActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		actor, err := m.ParseActor(raw)
		if err != nil {
			m.logger.Info("rejected bearer token", "error", err, "path", r.URL.Path)
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetActor(r.Context(), actor)))
	})
}

// RequireActor rejects requests that carry no verified actor.
//
// IMPORTANT: This middleware must be used AFTER WithActor in the chain.
func (m *TokenMiddleware) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetActor(r.Context()) == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole returns middleware that admits only actors holding one of
// roles. Anonymous requests get 401, other roles 403.
//
// IMPORTANT: This middleware must be used AFTER WithActor in the chain.
func (m *TokenMiddleware) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := auth.GetActor(r.Context())
			if actor == nil {
				handler.UnauthorizedResponse(w, r, m.logger)
				return
			}
			if !actor.HasRole(roles...) {
				m.logger.Info("role not permitted",
					"user_id", actor.UserID,
					"role", actor.Role,
					"path", r.URL.Path,
				)
				handler.ErrorResponse(w, r, m.logger, domain.Forbidden("auth.require_role", "your role does not permit this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ParseActor verifies a signed token and returns its actor.
func (m *TokenMiddleware) ParseActor(raw string) (*domain.Actor, error) {
	claims := &ActorClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.New("token subject is not a user ID")
	}

	role := domain.Role(claims.Role)
	if role == "" {
		role = domain.RoleExpert
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}

	return &domain.Actor{
		UserID: userID,
		Email:  claims.Email,
		Role:   role,
	}, nil
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Stack composes middlewares so that the first argument runs outermost.
//
//	protected := middleware.Stack(tokens.WithActor, tokens.RequireActor)
//	mux.Handle("GET /api/rapports", protected(listHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
