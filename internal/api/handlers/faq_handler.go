package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/simplecomm-be/internal/services"
)

// FAQHandler handles HTTP requests for community Q&A.
type FAQHandler struct {
	service services.FAQServiceProvider
}

// NewFAQHandler creates a new FAQHandler.
func NewFAQHandler(service services.FAQServiceProvider) *FAQHandler {
	return &FAQHandler{service: service}
}

// GetAll lists a community's questions.
func (h *FAQHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.service.GetFAQs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "retrieve questions")
		return
	}
	writeJSON(w, http.StatusOK, faqs)
}

// Ask records a question, answered by the AI or left for the admin.
func (h *FAQHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Question string `json:"question"`
		Mode     string `json:"mode"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	result, err := h.service.AskQuestion(r.Context(), userID, chi.URLParam(r, "id"), payload.Question, payload.Mode)
	if err != nil {
		writeServiceError(w, err, "ask question")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Answer lets the community creator answer a question.
func (h *FAQHandler) Answer(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Answer string `json:"answer"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	faq, err := h.service.AnswerQuestion(r.Context(), userID, chi.URLParam(r, "faqId"), payload.Answer)
	if err != nil {
		writeServiceError(w, err, "answer question")
		return
	}
	writeJSON(w, http.StatusOK, faq)
}
