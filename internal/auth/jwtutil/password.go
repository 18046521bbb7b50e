package jwtutil

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/corebooks/core/internal/platform/apperr"
)

// MaxPasswordLength guards against bcrypt's 72-byte input limit silently
// truncating a longer password.
const MaxPasswordLength = 72

// HashPassword bcrypt-hashes a plaintext password, grounded in the
// petonlabs boilerplate's auth service (bcrypt.GenerateFromPassword with
// DefaultCost).
func HashPassword(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordLength {
		return "", apperr.ValidationError{Code: "CB0010", Title: "Validation Error", Message: "password too long"}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hashed), nil
}

// CheckPassword reports whether plaintext matches hash.
func CheckPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
