// Package idgen generates entity identifiers and human-facing document
// numbers.
package idgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New returns a fresh random entity id.
func New() string {
	return uuid.New().String()
}

// IsValid reports whether s parses as a UUID.
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// SaleNumber builds a human-facing sale identifier for register regNumber at
// the given time, e.g. "POS-0007-20260730-154230-AB12". The random suffix
// keeps two sales opened in the same second from colliding.
func SaleNumber(regNumber string, at time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("POS-%s-%s-%s", regNumber, at.UTC().Format("20060102-150405"), suffix)
}
