package domain

import "github.com/google/uuid"

// Role is the role of an authenticated user.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleExpert    Role = "expert"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is a recognized value.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleExpert, RoleAssistant:
		return true
	}
	return false
}

// Actor is the authenticated user on whose behalf a request runs. Actors are
// issued by an external identity provider; this service only verifies them.
type Actor struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// HasRole reports whether the actor holds one of roles.
func (a *Actor) HasRole(roles ...Role) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
