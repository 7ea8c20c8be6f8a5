// internal/pkg/jwt/claims.go
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the claim set carried by an LMS bearer token.
// The backend puts the first name in name and the last name in picture.
type Claims struct {
	UUID      string `json:"uuid,omitempty"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Picture   string `json:"picture,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID returns the user id carried by the token.
// The backend puts it in jti; uuid and sub are honoured when present.
func (c *Claims) SubjectID() string {
	switch {
	case c.UUID != "":
		return c.UUID
	case c.ID != "":
		return c.ID
	default:
		return c.Subject
	}
}

// Expired reports whether the token's exp is at or before now.
// Tokens without exp never expire.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// ExpiresAtTime returns exp, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// IssuedAtTime returns iat, or the zero time when absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}
