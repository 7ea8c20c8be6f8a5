package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrUnseal = errors.New("session: cannot open sealed value")

// Sealer protects values at rest. The storage key is bound as associated
// data so a value cannot be moved to another key.
type Sealer interface {
	Seal(key string, plaintext []byte) ([]byte, error)
	Open(key string, sealed []byte) ([]byte, error)
}

// NopSealer stores values as-is.
type NopSealer struct{}

func (NopSealer) Seal(_ string, plaintext []byte) ([]byte, error) { return plaintext, nil }
func (NopSealer) Open(_ string, sealed []byte) ([]byte, error)    { return sealed, nil }

// AEADSealer seals with XChaCha20-Poly1305; the random nonce prefixes the ciphertext.
type AEADSealer struct {
	key []byte
}

// NewSealer returns an AEADSealer for a 64-char hex key, or a NopSealer when
// hexKey is empty.
func NewSealer(hexKey string) (Sealer, error) {
	hexKey = strings.TrimSpace(hexKey)
	if hexKey == "" {
		return NopSealer{}, nil
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode seal key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("seal key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &AEADSealer{key: key}, nil
}

func (s *AEADSealer) Seal(key string, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, []byte(key)), nil
}

func (s *AEADSealer) Open(key string, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrUnseal
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return nil, ErrUnseal
	}
	return plaintext, nil
}
