package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/simplecomm-be/internal/services"
)

// EventHandler handles HTTP requests related to community events.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetAll handles the request to list a community's events.
func (h *EventHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.GetEvents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "retrieve events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// Create handles the request to schedule an event.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Title string `json:"title"`
		Date  string `json:"date"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	event, err := h.service.CreateEvent(r.Context(), userID, chi.URLParam(r, "id"), payload.Title, payload.Date)
	if err != nil {
		writeServiceError(w, err, "create event")
		return
	}
	writeJSON(w, http.StatusCreated, event)
}
