package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/isdelr/simplecomm-be/internal/ai"
)

// AIHandler exposes the question-answering proxy.
type AIHandler struct {
	answerer ai.Answerer
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(answerer ai.Answerer) *AIHandler {
	return &AIHandler{answerer: answerer}
}

type askAIResponse struct {
	Answer string `json:"answer"`
}

// Ask answers {question, communityName}. Every failure, an unreadable body
// included, is reported as a 500 whose answer field holds text fit to show
// the user.
func (h *AIHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Question      string `json:"question"`
		CommunityName string `json:"communityName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusInternalServerError, askAIResponse{Answer: ai.Message(err)})
		return
	}

	answer, err := h.answerer.Ask(r.Context(), payload.Question, payload.CommunityName)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, askAIResponse{Answer: ai.Message(err)})
		return
	}
	writeJSON(w, http.StatusOK, askAIResponse{Answer: answer})
}
