package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"expense-ledger/internal/domain"
	"expense-ledger/internal/repository"
)

const createExpensesTable = `
CREATE TABLE IF NOT EXISTS expenses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	date TEXT NOT NULL,
	category TEXT NOT NULL,
	amount REAL NOT NULL,
	description TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_expenses_user_id ON expenses(user_id);
`

type ExpenseRepository struct {
	db *sql.DB
}

func NewExpenseRepository(db *sql.DB) repository.ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createExpensesTable); err != nil {
		return fmt.Errorf("create expenses table: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (int64, error) {
	expense.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO expenses (user_id, date, category, amount, description, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		expense.UserID,
		expense.Date,
		expense.Category,
		expense.Amount,
		expense.Description,
		expense.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense last insert id: %w", err)
	}
	expense.ID = id
	return id, nil
}

func (r *ExpenseRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, date, category, amount, description, created_at
FROM expenses
WHERE user_id = ?
ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Category, &e.Amount, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}
