package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-ledger/internal/domain"
)

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "expenses.json"))
	require.NoError(t, err)

	expenses, err := store.Expenses().ListByUser(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestPersistsPrototypeDocumentShape(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenses.json")

	store, err := Open(path)
	require.NoError(t, err)

	_, err = store.Expenses().Create(ctx, &domain.Expense{
		Date:        "2024-01-01",
		Category:    "food",
		Amount:      20,
		Description: "lunch",
	})
	require.NoError(t, err)
	require.NoError(t, store.Budgets().Upsert(ctx, &domain.Budget{Category: "food", Limit: 50}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Contains(t, doc, "expenses")
	require.Contains(t, doc, "budgets")

	var budgets map[string]float64
	require.NoError(t, json.Unmarshal(doc["budgets"], &budgets))
	assert.Equal(t, map[string]float64{"food": 50}, budgets)
}

func TestReloadKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenses.json")

	store, err := Open(path)
	require.NoError(t, err)
	_, err = store.Expenses().Create(ctx, &domain.Expense{
		Date: "2024-01-01", Category: "food", Amount: 20, Description: "lunch",
	})
	require.NoError(t, err)
	require.NoError(t, store.Budgets().Upsert(ctx, &domain.Budget{Category: "food", Limit: 50}))

	reopened, err := Open(path)
	require.NoError(t, err)

	expenses, err := reopened.Expenses().ListByUser(ctx, 0)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "lunch", expenses[0].Description)

	budgets, err := reopened.Budgets().ListByUser(ctx, 0)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, 50.0, budgets[0].Limit)
}

func TestBudgetUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "expenses.json"))
	require.NoError(t, err)

	require.NoError(t, store.Budgets().Upsert(ctx, &domain.Budget{Category: "food", Limit: 50}))
	require.NoError(t, store.Budgets().Upsert(ctx, &domain.Budget{Category: "food", Limit: 75}))

	budgets, err := store.Budgets().ListByUser(ctx, 0)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, 75.0, budgets[0].Limit)
}

func TestOwnerArgumentIgnored(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "expenses.json"))
	require.NoError(t, err)

	_, err = store.Expenses().Create(ctx, &domain.Expense{
		UserID: 42, Date: "2024-01-01", Category: "food", Amount: 20,
	})
	require.NoError(t, err)

	// Single global ledger: any owner id reads the same records.
	expenses, err := store.Expenses().ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, expenses, 1)
}
