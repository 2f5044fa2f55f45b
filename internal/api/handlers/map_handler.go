package handlers

import (
	"net/http"

	"github.com/isdelr/simplecomm-be/internal/services"
)

// MapHandler serves the community map.
type MapHandler struct {
	service services.MapServiceProvider
}

// NewMapHandler creates a new MapHandler.
func NewMapHandler(service services.MapServiceProvider) *MapHandler {
	return &MapHandler{service: service}
}

// Get returns the map center and community markers. The optional "city"
// query parameter recenters the map.
func (h *MapHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetMapView(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		writeServiceError(w, err, "build map")
		return
	}
	writeJSON(w, http.StatusOK, view)
}
