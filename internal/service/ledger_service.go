package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"expense-ledger/internal/domain"
	"expense-ledger/internal/repository"
)

var (
	// ErrNoExpenses signals an export for a user with zero recorded expenses.
	ErrNoExpenses = errors.New("no expenses recorded")
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
)

// LedgerService coordinates expense and budget operations for one owner.
type LedgerService interface {
	AddExpense(ctx context.Context, userID int64, date, category string, amount float64, description string) (*domain.Expense, error)
	ListExpenses(ctx context.Context, userID int64) ([]domain.Expense, error)
	SetBudget(ctx context.Context, userID int64, category string, limit float64) (*domain.Budget, error)
	ListBudgets(ctx context.Context, userID int64) ([]domain.Budget, error)
	Summary(ctx context.Context, userID int64) ([]domain.CategorySummary, error)
	ExportCSV(ctx context.Context, userID int64) ([]byte, error)
}

type ledgerService struct {
	expenses repository.ExpenseRepository
	budgets  repository.BudgetRepository
}

func NewLedgerService(expenses repository.ExpenseRepository, budgets repository.BudgetRepository) LedgerService {
	return &ledgerService{
		expenses: expenses,
		budgets:  budgets,
	}
}

// AddExpense appends a spending record. An empty date means today. The
// amount's sign is intentionally not checked; negative entries are stored
// and summed as submitted.
func (s *ledgerService) AddExpense(ctx context.Context, userID int64, date, category string, amount float64, description string) (*domain.Expense, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, errors.New("category is required")
	}

	if date == "" {
		date = time.Now().Format(domain.DateLayout)
	} else {
		parsed, err := time.Parse(domain.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
		date = parsed.Format(domain.DateLayout)
	}

	expense := &domain.Expense{
		UserID:      userID,
		Date:        date,
		Category:    category,
		Amount:      amount,
		Description: description,
	}

	if _, err := s.expenses.Create(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *ledgerService) ListExpenses(ctx context.Context, userID int64) ([]domain.Expense, error) {
	return s.expenses.ListByUser(ctx, userID)
}

// SetBudget sets the limit for a category, overwriting any previous value.
func (s *ledgerService) SetBudget(ctx context.Context, userID int64, category string, limit float64) (*domain.Budget, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, errors.New("category is required")
	}

	budget := &domain.Budget{
		UserID:   userID,
		Category: category,
		Limit:    limit,
	}

	if err := s.budgets.Upsert(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *ledgerService) ListBudgets(ctx context.Context, userID int64) ([]domain.Budget, error) {
	return s.budgets.ListByUser(ctx, userID)
}

// Summary reports budget-vs-spending per category, one row per budget in the
// order the budgets were first set. Spending in categories without a budget
// is aggregated but never surfaced. Remaining is not clamped at zero.
func (s *ledgerService) Summary(ctx context.Context, userID int64) ([]domain.CategorySummary, error) {
	budgets, err := s.budgets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	spent := make(map[string]float64, len(budgets))
	for _, e := range expenses {
		spent[e.Category] += e.Amount
	}

	summaries := make([]domain.CategorySummary, 0, len(budgets))
	for _, b := range budgets {
		total := spent[b.Category]
		summaries = append(summaries, domain.CategorySummary{
			Category:  b.Category,
			Budget:    b.Limit,
			Spent:     total,
			Remaining: b.Limit - total,
		})
	}
	return summaries, nil
}

// ExportCSV renders the user's expenses as a CSV document with a header row.
func (s *ledgerService) ExportCSV(ctx context.Context, userID int64) ([]byte, error) {
	expenses, err := s.expenses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, ErrNoExpenses
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"date", "category", "amount", "description"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range expenses {
		record := []string{
			e.Date,
			e.Category,
			strconv.FormatFloat(e.Amount, 'f', -1, 64),
			e.Description,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return buf.Bytes(), nil
}
