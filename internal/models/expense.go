package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense categories.
const (
	ExpenseOperational = "Operasional"
	ExpenseEvent       = "Event"
	ExpenseGiveaway    = "Hadiah/Giveaway"
	ExpenseOther       = "Lainnya"
)

// ExpenseCategories lists the accepted expense categories in display order.
var ExpenseCategories = []string{ExpenseOperational, ExpenseEvent, ExpenseGiveaway, ExpenseOther}

// Expense is a spending entry recorded by a community admin.
type Expense struct {
	ID          string          `json:"id"`
	CommunityID string          `json:"communityId"`
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Category    string          `json:"category"`
	AddedBy     string          `json:"addedBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// IsValidExpenseCategory reports whether category is accepted.
func IsValidExpenseCategory(category string) bool {
	for _, c := range ExpenseCategories {
		if c == category {
			return true
		}
	}
	return false
}

// DuesInfo is the display form of a community's dues configuration.
type DuesInfo struct {
	Mandatory bool   `json:"mandatory"`
	Label     string `json:"label,omitempty"`   // shown when dues are voluntary
	Amount    string `json:"amount,omitempty"`  // e.g. "Rp 50.000 / bulan"
	DueDate   string `json:"dueDate,omitempty"` // e.g. "Tanggal 10"
}

// ChartData is a pie-chart friendly projection of an expense summary.
type ChartData struct {
	Labels []string          `json:"labels"`
	Values []decimal.Decimal `json:"values"`
}

// FinanceOverview bundles everything the finance tab renders.
type FinanceOverview struct {
	Dues     DuesInfo                   `json:"dues"`
	Summary  map[string]decimal.Decimal `json:"summary"`
	Chart    ChartData                  `json:"chart"`
	Expenses []Expense                  `json:"expenses"`
	Empty    bool                       `json:"empty"`
}
