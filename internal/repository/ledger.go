package repository

import (
	"context"

	"expense-ledger/internal/domain"
)

// ExpenseRepository persists expense records.
type ExpenseRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, expense *domain.Expense) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Expense, error)
}

// BudgetRepository persists per-category budget limits. Upsert must behave
// as a set operation: one row per (user, category), last write wins.
type BudgetRepository interface {
	Init(ctx context.Context) error
	Upsert(ctx context.Context, budget *domain.Budget) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Budget, error)
}
