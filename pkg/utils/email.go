package utils

import (
	"net/mail"
	"strings"
)

const MaxEmailLength = 254

// NormalizeEmail converts an email address to its stored form (trimmed, lowercase)
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address (no display name)
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "This field is required."}
	}
	if len(email) > MaxEmailLength {
		return &ValidationError{Field: "email", Message: "Enter a valid email address."}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return &ValidationError{Field: "email", Message: "Enter a valid email address."}
	}
	return nil
}

// ValidationError represents a validation error on a single form field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
