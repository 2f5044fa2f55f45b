package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/isdelr/simplecomm-be/internal/services"
	"github.com/rs/zerolog/log"
)

// CommunityHandler handles HTTP requests related to communities and membership.
type CommunityHandler struct {
	service    services.CommunityServiceProvider
	membership services.MembershipServiceProvider
}

// NewCommunityHandler creates a new CommunityHandler.
func NewCommunityHandler(service services.CommunityServiceProvider, membership services.MembershipServiceProvider) *CommunityHandler {
	return &CommunityHandler{service: service, membership: membership}
}

// GetAll handles the request to list every community.
func (h *CommunityHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	communities, err := h.service.GetAllCommunities(r.Context())
	if err != nil {
		writeServiceError(w, err, "retrieve communities")
		return
	}
	writeJSON(w, http.StatusOK, communities)
}

// Categories lists the categories a community may be created with.
func (h *CommunityHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Categories)
}

// Get handles the request to get a single community.
func (h *CommunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	community, err := h.service.GetCommunityByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "retrieve community")
		return
	}
	writeJSON(w, http.StatusOK, community)
}

// Create handles the request to create a new community.
func (h *CommunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var input services.CommunityInput
	if !decodeJSON(w, r, &input) {
		return
	}

	community, err := h.service.CreateCommunity(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, err, "create community")
		return
	}
	writeJSON(w, http.StatusCreated, community)
}

// Join adds the current user to a community.
func (h *CommunityHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	community, err := h.membership.Join(r.Context(), userID, id)
	if err != nil {
		log.Warn().Err(err).Str("community_id", id).Str("user_id", userID).Msg("Join failed")
		writeServiceError(w, err, "join community")
		return
	}
	writeJSON(w, http.StatusOK, community)
}

// Recommendations suggests communities for the current user.
func (h *CommunityHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	communities, err := h.service.RecommendFor(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "build recommendations")
		return
	}
	writeJSON(w, http.StatusOK, communities)
}
