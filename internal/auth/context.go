// Package auth provides authentication context helpers.
//
// This package is imported by both middleware and handler packages without
// causing import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/expertauto/expertise/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const actorContextKey contextKey = "actor"

// GetActor retrieves the authenticated actor from the context.
//
// Returns nil if the request carried no valid token.
func GetActor(ctx context.Context) *domain.Actor {
	actor, ok := ctx.Value(actorContextKey).(*domain.Actor)
	if !ok {
		return nil
	}
	return actor
}

// GetActorFromRequest is a convenience wrapper around GetActor.
func GetActorFromRequest(r *http.Request) *domain.Actor {
	return GetActor(r.Context())
}

// SetActor stores an actor in the context. Called by the token middleware
// after verifying a bearer token.
func SetActor(ctx context.Context, actor *domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}
