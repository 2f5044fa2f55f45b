package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/simplecomm-be/internal/calculator"
	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/isdelr/simplecomm-be/internal/realtime"
	"github.com/shopspring/decimal"
)

// ExpenseServiceProvider defines the interface for community finance services.
type ExpenseServiceProvider interface {
	AddExpense(ctx context.Context, userID, communityID string, input ExpenseInput) (models.Expense, error)
	GetExpenses(ctx context.Context, communityID string) ([]models.Expense, error)
	GetFinanceOverview(ctx context.Context, communityID string) (models.FinanceOverview, error)
}

// ExpenseInput is the add-expense form.
type ExpenseInput struct {
	Title    string `json:"title"`
	Amount   string `json:"amount"`
	Date     string `json:"date"`
	Category string `json:"category"`
}

// ExpenseService records spending and summarizes it.
type ExpenseService struct {
	db        *sql.DB
	clock     *Clock
	publisher realtime.Publisher
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(db *sql.DB, clock *Clock, publisher realtime.Publisher) *ExpenseService {
	return &ExpenseService{db: db, clock: clock, publisher: publisher}
}

// AddExpense records an expense. Only the community creator may do this.
func (s *ExpenseService) AddExpense(ctx context.Context, userID, communityID string, input ExpenseInput) (models.Expense, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Expense{}, validationError("title is required")
	}
	amount, err := calculator.ParseAmount(input.Amount)
	if err != nil {
		return models.Expense{}, validationError("invalid amount: %v", err)
	}
	category := input.Category
	if category == "" {
		category = models.ExpenseOperational
	}
	if !models.IsValidExpenseCategory(category) {
		return models.Expense{}, validationError("unknown expense category %q", category)
	}
	date := strings.TrimSpace(input.Date)
	if date == "" {
		date = s.clock.Now().Format(DateLayout)
	} else if _, err := time.Parse(DateLayout, date); err != nil {
		return models.Expense{}, validationError("date must be YYYY-MM-DD")
	}

	community, err := getCommunity(ctx, s.db, communityID)
	if err != nil {
		return models.Expense{}, err
	}
	if community.CreatedBy != userID {
		return models.Expense{}, ErrForbidden
	}

	expense := models.Expense{
		ID:          uuid.New().String(),
		CommunityID: communityID,
		Title:       title,
		Amount:      amount,
		Date:        date,
		Category:    category,
		AddedBy:     userID,
		CreatedAt:   s.clock.Now(),
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO expenses (id, community_id, title, amount, date, category, added_by, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		expense.ID, expense.CommunityID, expense.Title, expense.Amount.String(), expense.Date, expense.Category, expense.AddedBy,
		expense.CreatedAt.UnixNano())
	if err != nil {
		return models.Expense{}, fmt.Errorf("failed to insert expense: %w", err)
	}

	publish(s.publisher, realtime.CollectionExpenses, communityID)
	return expense, nil
}

// GetExpenses lists a community's expenses, newest date first.
func (s *ExpenseService) GetExpenses(ctx context.Context, communityID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, community_id, title, amount, date, category, added_by, created_at FROM expenses WHERE community_id = ? ORDER BY date DESC, created_at DESC",
		communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		var amount string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.CommunityID, &e.Title, &amount, &e.Date, &e.Category, &e.AddedBy, &createdAt); err != nil {
			return nil, err
		}
		e.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount on expense %s: %w", e.ID, err)
		}
		e.CreatedAt = fromUnixNano(createdAt)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// GetFinanceOverview assembles dues display, category summary and chart.
func (s *ExpenseService) GetFinanceOverview(ctx context.Context, communityID string) (models.FinanceOverview, error) {
	community, err := getCommunity(ctx, s.db, communityID)
	if err != nil {
		return models.FinanceOverview{}, err
	}
	expenses, err := s.GetExpenses(ctx, communityID)
	if err != nil {
		return models.FinanceOverview{}, err
	}

	summary := calculator.Aggregate(expenses)
	return models.FinanceOverview{
		Dues:     calculator.DuesDisplay(community),
		Summary:  summary,
		Chart:    calculator.Chart(summary),
		Expenses: expenses,
		Empty:    len(expenses) == 0,
	}, nil
}
