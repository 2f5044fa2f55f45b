package handlers

import (
	"net/http"

	"github.com/isdelr/simplecomm-be/internal/services"
)

// DashboardHandler serves platform statistics.
type DashboardHandler struct {
	service services.DashboardServiceProvider
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service services.DashboardServiceProvider) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Get returns the current statistics.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetDashboardStatistics(r.Context())
	if err != nil {
		writeServiceError(w, err, "retrieve dashboard statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
