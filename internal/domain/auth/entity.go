// internal/domain/auth/entity.go
package auth

import (
	"strings"
	"time"
)

// Role is the user's role in the LMS.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes a backend role string. Unknown values are kept as-is.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RoleStudent, RoleAdmin:
		return true
	}
	return false
}

// Identity is the canonical profile of the authenticated user.
type Identity struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	LastLogin time.Time `json:"last_login,omitzero"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// DisplayName joins first and last name.
func (i Identity) DisplayName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// Session pairs a credential with the identity it resolved to.
// Both change together; a credential without an identity is not a session.
type Session struct {
	Credential string
	Identity   *Identity
}

// Authenticated reports whether the session carries both halves.
func (s Session) Authenticated() bool {
	return s.Credential != "" && s.Identity != nil
}

// IsEmpty reports whether neither half is set.
func (s Session) IsEmpty() bool {
	return s.Credential == "" && s.Identity == nil
}

// HasRole reports whether the session is authenticated with one of roles.
func (s Session) HasRole(roles ...Role) bool {
	if !s.Authenticated() {
		return false
	}
	for _, r := range roles {
		if s.Identity.Role == r {
			return true
		}
	}
	return false
}

// SessionState is what the presentation layer sees of the session.
type SessionState struct {
	Identity        *Identity `json:"identity"`
	IsLoading       bool      `json:"is_loading"`
	IsAuthenticated bool      `json:"is_authenticated"`
}

// StateOf builds the presentation view of s.
func StateOf(s Session, loading bool) SessionState {
	state := SessionState{IsLoading: loading}
	if s.Authenticated() {
		id := *s.Identity
		state.Identity = &id
		state.IsAuthenticated = true
	}
	return state
}
