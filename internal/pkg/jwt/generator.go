// internal/pkg/jwt/generator.go
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Generator mints HS256 tokens shaped like the ones the LMS backend issues.
// The web service never signs production credentials; this exists for local
// stub backends and tests.
type Generator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewGenerator(secret []byte, issuer string, ttl time.Duration) *Generator {
	return &Generator{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Subject describes the user a token is minted for.
type Subject struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Generate creates a signed token for sub. An empty sub.ID gets a fresh ULID.
func (g *Generator) Generate(sub Subject) (string, error) {
	if len(g.secret) == 0 {
		return "", fmt.Errorf("jwt generator has empty secret")
	}

	now := g.now()
	id := sub.ID
	if id == "" {
		id = ulid.Make().String()
	}

	claims := &Claims{
		Email:     sub.Email,
		Name:      sub.FirstName,
		Picture:   sub.LastName,
		Role:      sub.Role,
		CreatedAt: formatTime(sub.CreatedAt),
		UpdatedAt: formatTime(sub.UpdatedAt),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    g.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

// GenerateExpired creates a token whose exp is already in the past.
func (g *Generator) GenerateExpired(sub Subject) (string, error) {
	expired := &Generator{
		secret: g.secret,
		issuer: g.issuer,
		ttl:    -time.Minute,
		now:    g.now,
	}
	return expired.Generate(sub)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
