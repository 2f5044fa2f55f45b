package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/simplecomm-be/internal/services"
)

// ExpenseHandler handles HTTP requests for community finances.
type ExpenseHandler struct {
	service services.ExpenseServiceProvider
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(service services.ExpenseServiceProvider) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// GetAll lists a community's expenses.
func (h *ExpenseHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.service.GetExpenses(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "retrieve expenses")
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

// Create records an expense. Restricted to the community creator.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var input services.ExpenseInput
	if !decodeJSON(w, r, &input) {
		return
	}

	expense, err := h.service.AddExpense(r.Context(), userID, chi.URLParam(r, "id"), input)
	if err != nil {
		writeServiceError(w, err, "record expense")
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

// Finance returns dues, summary and chart data for the finance tab.
func (h *ExpenseHandler) Finance(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.GetFinanceOverview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "build finance overview")
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
