package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/simplecomm-be/internal/auth"
	"github.com/isdelr/simplecomm-be/internal/services"
	"github.com/rs/zerolog/log"
)

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// decodeJSON decodes the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// currentUserID returns the authenticated user's id from the request context.
func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.UserID == "" {
		log.Error().Msg("Could not retrieve user claims from context")
		http.Error(w, "Could not retrieve user from token", http.StatusUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

// writeServiceError maps a service error onto an HTTP status. Unexpected
// errors are logged and hidden behind a generic message.
func writeServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		http.Error(w, auth.Message(err), http.StatusUnauthorized)
	case errors.Is(err, auth.ErrEmailExists):
		http.Error(w, auth.Message(err), http.StatusConflict)
	case auth.IsAuthError(err):
		http.Error(w, auth.Message(err), http.StatusBadRequest)
	case errors.Is(err, services.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrNotMember), errors.Is(err, services.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Error().Err(err).Msg("Failed to " + action)
		http.Error(w, "Failed to "+action, http.StatusInternalServerError)
	}
}
