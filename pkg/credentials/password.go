package credentials

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword derives a one-way bcrypt digest of the plaintext password.
// The original implementation stored an unsalted SHA-256 digest; bcrypt's
// per-hash salt and work factor replace that without changing the contract:
// the digest is never reversible and never leaves the account record.
func HashPassword(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Join(ErrFailedToHashPassword, err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored digest.
func VerifyPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
