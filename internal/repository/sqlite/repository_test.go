package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-ledger/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, NewUserRepository(db).Init(ctx))
	require.NoError(t, NewExpenseRepository(db).Init(ctx))
	require.NoError(t, NewBudgetRepository(db).Init(ctx))
	return db
}

func createUser(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()
	id, err := NewUserRepository(db).Create(context.Background(), &domain.User{
		Username:     username,
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return id
}

func TestUserUniqueUsername(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	_, err := repo.Create(ctx, &domain.User{Username: "bob", PasswordHash: "x"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.User{Username: "bob", PasswordHash: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestUserLookup(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	id := createUser(t, db, "bob")

	user, err := repo.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "x", user.PasswordHash)

	// Exact, case-sensitive match only.
	_, err = repo.GetByUsername(ctx, "Bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestExpensesInsertionOrderAndOwnership(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewExpenseRepository(db)

	bob := createUser(t, db, "bob")
	eve := createUser(t, db, "eve")

	for _, desc := range []string{"first", "second", "third"} {
		_, err := repo.Create(ctx, &domain.Expense{
			UserID:      bob,
			Date:        "2024-01-01",
			Category:    "food",
			Amount:      10,
			Description: desc,
		})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, &domain.Expense{
		UserID: eve, Date: "2024-01-01", Category: "food", Amount: 99, Description: "other",
	})
	require.NoError(t, err)

	expenses, err := repo.ListByUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, expenses, 3)
	assert.Equal(t, "first", expenses[0].Description)
	assert.Equal(t, "second", expenses[1].Description)
	assert.Equal(t, "third", expenses[2].Description)
}

func TestBudgetUpsertIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewBudgetRepository(db)

	bob := createUser(t, db, "bob")

	require.NoError(t, repo.Upsert(ctx, &domain.Budget{UserID: bob, Category: "food", Limit: 50}))
	require.NoError(t, repo.Upsert(ctx, &domain.Budget{UserID: bob, Category: "food", Limit: 75}))

	budgets, err := repo.ListByUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, budgets, 1, "upsert must not create duplicate rows")
	assert.Equal(t, 75.0, budgets[0].Limit)
}

func TestBudgetUpsertKeepsInsertionOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewBudgetRepository(db)

	bob := createUser(t, db, "bob")

	require.NoError(t, repo.Upsert(ctx, &domain.Budget{UserID: bob, Category: "rent", Limit: 800}))
	require.NoError(t, repo.Upsert(ctx, &domain.Budget{UserID: bob, Category: "food", Limit: 50}))
	require.NoError(t, repo.Upsert(ctx, &domain.Budget{UserID: bob, Category: "rent", Limit: 900}))

	budgets, err := repo.ListByUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, budgets, 2)
	assert.Equal(t, "rent", budgets[0].Category)
	assert.Equal(t, 900.0, budgets[0].Limit)
	assert.Equal(t, "food", budgets[1].Category)
}

func TestBudgetsScopedByUser(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewBudgetRepository(db)

	bob := createUser(t, db, "bob")
	eve := createUser(t, db, "eve")

	require.NoError(t, repo.Upsert(ctx, &domain.Budget{UserID: bob, Category: "food", Limit: 50}))
	require.NoError(t, repo.Upsert(ctx, &domain.Budget{UserID: eve, Category: "food", Limit: 10}))

	budgets, err := repo.ListByUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, 50.0, budgets[0].Limit)
}
