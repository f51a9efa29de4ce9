// Package security provides credential hashing and console token issuance.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the salt length in bytes for newly hashed credentials.
	SaltSize = 16
	// KeySize is the derived key length in bytes.
	KeySize = 32
	// MinIterations is the PBKDF2 iteration floor; lower configured values
	// are clamped up to it.
	MinIterations = 100_000
)

// ErrEmptyPassword is returned by Hash for empty or whitespace-only passwords.
var ErrEmptyPassword = errors.New("password must not be empty")

// Hasher derives and verifies PBKDF2-SHA256 credential hashes. Callers must
// not log or persist plaintext passwords.
type Hasher struct {
	Iterations int
}

// NewHasher returns a Hasher with the given iteration count, clamped to
// MinIterations.
func NewHasher(iterations int) *Hasher {
	if iterations < MinIterations {
		iterations = MinIterations
	}
	return &Hasher{Iterations: iterations}
}

// Hash derives a key from password using a fresh random salt.
func (h *Hasher) Hash(password string) (hash, salt []byte, err error) {
	if strings.TrimSpace(password) == "" {
		return nil, nil, ErrEmptyPassword
	}
	salt = make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, err
	}
	hash = pbkdf2.Key([]byte(password), salt, h.Iterations, KeySize, sha256.New)
	return hash, salt, nil
}

// Verify reports whether password matches the stored hash and salt. Malformed
// input yields false rather than an error, so callers cannot distinguish a bad
// password from a bad record. The comparison is constant time.
func (h *Hasher) Verify(password string, hash, salt []byte) bool {
	if strings.TrimSpace(password) == "" {
		return false
	}
	if len(hash) != KeySize || len(salt) != SaltSize {
		return false
	}
	computed := pbkdf2.Key([]byte(password), salt, h.Iterations, KeySize, sha256.New)
	return subtle.ConstantTimeCompare(computed, hash) == 1
}
