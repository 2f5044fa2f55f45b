package auth

import (
	"errors"
	"strings"
)

// Authentication errors. Each maps to a user-facing message.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

const genericMessage = "Terjadi kesalahan."

// Message returns the localized message shown to the user for err.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		return "Format email salah."
	case errors.Is(err, ErrInvalidCredentials):
		return "Email atau password salah."
	case errors.Is(err, ErrEmailExists):
		return "Email sudah terdaftar."
	case errors.Is(err, ErrWeakPassword):
		return "Password minimal 6 karakter."
	default:
		return genericMessage
	}
}

// IsAuthError reports whether err belongs to the authentication taxonomy.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrEmailExists) ||
		errors.Is(err, ErrWeakPassword)
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
