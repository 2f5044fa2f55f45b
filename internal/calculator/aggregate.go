package calculator

import (
	"sort"

	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/shopspring/decimal"
)

// Aggregate sums expense amounts per category.
// Addition is exact decimal arithmetic, so the result does not depend on the
// order in which the snapshot lists the expenses. No expenses yields an empty,
// non-nil map.
func Aggregate(expenses []models.Expense) map[string]decimal.Decimal {
	summary := make(map[string]decimal.Decimal)
	for _, exp := range expenses {
		summary[exp.Category] = summary[exp.Category].Add(exp.Amount)
	}
	return summary
}

// Chart projects a summary into parallel label/value slices sorted by label.
func Chart(summary map[string]decimal.Decimal) models.ChartData {
	labels := make([]string, 0, len(summary))
	for category := range summary {
		labels = append(labels, category)
	}
	sort.Strings(labels)

	values := make([]decimal.Decimal, len(labels))
	for i, label := range labels {
		values[i] = summary[label]
	}
	return models.ChartData{Labels: labels, Values: values}
}

// Total returns the sum of all expenses.
func Total(expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, exp := range expenses {
		total = total.Add(exp.Amount)
	}
	return total
}
