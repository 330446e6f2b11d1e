package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"expense-ledger/internal/domain"
	"expense-ledger/internal/repository"
)

const createBudgetsTable = `
CREATE TABLE IF NOT EXISTS budgets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	category TEXT NOT NULL,
	limit_amount REAL NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE(user_id, category),
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
`

type BudgetRepository struct {
	db *sql.DB
}

func NewBudgetRepository(db *sql.DB) repository.BudgetRepository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createBudgetsTable); err != nil {
		return fmt.Errorf("create budgets table: %w", err)
	}
	return nil
}

// Upsert writes the limit for (user, category) in a single statement, so two
// concurrent writers cannot produce duplicate rows. The original row id (and
// with it the insertion order) is preserved on update.
func (r *BudgetRepository) Upsert(ctx context.Context, budget *domain.Budget) error {
	now := time.Now().UTC()
	budget.CreatedAt = now
	budget.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO budgets (user_id, category, limit_amount, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id, category) DO UPDATE SET
	limit_amount = excluded.limit_amount,
	updated_at = excluded.updated_at`,
		budget.UserID,
		budget.Category,
		budget.Limit,
		budget.CreatedAt,
		budget.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

func (r *BudgetRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, category, limit_amount, created_at, updated_at
FROM budgets
WHERE user_id = ?
ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []domain.Budget
	for rows.Next() {
		var b domain.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Limit, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}

	return budgets, rows.Err()
}
