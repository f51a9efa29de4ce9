package domain

import "time"

// AdminUser is an operator credential record. The hash and salt come from the
// PBKDF2 credential verifier; the plaintext password is never stored.
type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash []byte
	PasswordSalt []byte
	IsActive     bool
	CreatedAt    time.Time
}
