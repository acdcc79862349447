package model

import (
	"net/mail"
	"strings"
)

// maxEmailLen is the RFC 5321 limit for a complete address.
const maxEmailLen = 254

// Email is a normalized, validated email address. Construct values
// through NewEmail; two Email values compare equal exactly when their
// normalized forms are identical.
type Email string

// NewEmail trims and lowercases the raw input and validates it against
// the address grammar. An empty, oversized or malformed input yields
// ErrInvalidEmail.
func NewEmail(raw string) (Email, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || len(s) > maxEmailLen {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", ErrInvalidEmail
	}
	return Email(s), nil
}

func (e Email) String() string { return string(e) }
