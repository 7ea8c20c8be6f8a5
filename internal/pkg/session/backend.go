// internal/pkg/session/backend.go
package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Backend when the key is absent.
var ErrNotFound = errors.New("session: key not found")

// Backend is the durable key/value surface the session lives in.
// Commit applies every put and delete together or none of them.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Commit(ctx context.Context, puts map[string][]byte, deletes []string) error
	Close() error
}

const (
	KeyToken = "token"
	KeyUser  = "user"
)

// CookieKey is where the bootstrap cookie named name is persisted.
func CookieKey(name string) string {
	return "cookie:" + name
}
