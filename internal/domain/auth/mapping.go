package auth

import (
	"strings"
	"time"

	"lms-web/internal/pkg/jwt"
)

// IdentityFromProfile maps a backend profile into the canonical Identity.
func IdentityFromProfile(p ProfileResponse) Identity {
	first, last := p.FirstName, p.LastName
	if first == "" && last == "" && p.Name != "" {
		first, last = splitName(p.Name)
	}
	return Identity{
		ID:        p.ID,
		FirstName: first,
		LastName:  last,
		Email:     p.Email,
		Role:      p.Role.Name,
		IsActive:  p.IsActive,
		LastLogin: parseTime(p.LastLogin),
		CreatedAt: parseTime(p.CreatedAt),
		UpdatedAt: parseTime(p.UpdatedAt),
	}
}

// IdentityFromRegistration maps the registration response into an Identity.
func IdentityFromRegistration(d RegisterData) Identity {
	return Identity{
		ID:        d.ID,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Role:      ParseRole(d.Role),
		IsActive:  true,
	}
}

// IdentityFromClaims derives a provisional Identity from decoded token claims.
// The token is only issued to active users at login, so iat stands in for
// last_login.
func IdentityFromClaims(c *jwt.Claims) Identity {
	return Identity{
		ID:        c.SubjectID(),
		FirstName: c.Name,
		LastName:  c.Picture,
		Email:     c.Email,
		Role:      ParseRole(c.Role),
		IsActive:  true,
		LastLogin: c.IssuedAtTime().UTC(),
		CreatedAt: parseTime(c.CreatedAt),
		UpdatedAt: parseTime(c.UpdatedAt),
	}
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	first, last, _ := strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}

// parseTime accepts the RFC3339 variants the backend emits; anything else is zero.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
