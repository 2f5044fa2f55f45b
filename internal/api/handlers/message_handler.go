package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/simplecomm-be/internal/services"
)

// MessageHandler handles HTTP requests for community chat.
type MessageHandler struct {
	service services.MessageServiceProvider
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(service services.MessageServiceProvider) *MessageHandler {
	return &MessageHandler{service: service}
}

// GetAll returns the chat log rendered for the current user.
func (h *MessageHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	messages, err := h.service.GetMessages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "retrieve messages")
		return
	}
	writeJSON(w, http.StatusOK, services.RenderMessages(messages, userID))
}

// Create posts a message as the current user.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Text     string `json:"text"`
		PhotoURL string `json:"photoURL"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	msg, err := h.service.PostMessage(r.Context(), userID, chi.URLParam(r, "id"), payload.Text, payload.PhotoURL)
	if err != nil {
		writeServiceError(w, err, "post message")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
