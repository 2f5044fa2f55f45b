package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
)

// Failure classes of an AI call.
var (
	ErrMissingAPIKey = errors.New("ai: api key not configured")
	ErrEmptyQuestion = errors.New("ai: question is empty")
	ErrModelNotFound = errors.New("ai: model not found")
	ErrInvalidKey    = errors.New("ai: api key rejected")
	ErrUnavailable   = errors.New("ai: service unavailable")
)

// classify maps a transport or API error onto one of the failure classes,
// keeping the cause in the chain.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := strings.ToLower(apiErr.Message)
		switch {
		case apiErr.StatusCode == http.StatusNotFound || strings.Contains(msg, "not found"):
			return fmt.Errorf("%w: %w", ErrModelNotFound, err)
		case apiErr.StatusCode == http.StatusUnauthorized,
			apiErr.StatusCode == http.StatusForbidden,
			strings.Contains(msg, "api key"):
			return fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found"):
		return fmt.Errorf("%w: %w", ErrModelNotFound, err)
	case strings.Contains(msg, "api key"):
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// Message returns the user-facing text for a failed AI call.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return "Error: API Key belum diisi di .env.local"
	case errors.Is(err, ErrModelNotFound):
		return "Model Gemini tidak ditemukan di akun ini. Coba buat API Key baru."
	case errors.Is(err, ErrInvalidKey):
		return "API Key Salah/Expired."
	default:
		return "Maaf, AI sedang gangguan."
	}
}
