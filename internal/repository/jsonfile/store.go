package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"expense-ledger/internal/domain"
	"expense-ledger/internal/repository"
)

// expenseRecord mirrors the on-disk shape of a single expense entry.
type expenseRecord struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

// document is the serialization contract of the single-user prototype: one
// JSON file holding every expense and a category-to-limit budget mapping,
// with no per-user scoping.
type document struct {
	Expenses []expenseRecord    `json:"expenses"`
	Budgets  map[string]float64 `json:"budgets"`
}

// Store is a single-tenant ledger persisted as one JSON document. The whole
// document is loaded at open and rewritten after every mutation. All user id
// arguments are ignored; every record belongs to the implicit local owner.
type Store struct {
	path string

	mu    sync.RWMutex
	doc   document
	order []string // budget categories in first-set order
}

// Open loads the ledger document at path, or starts an empty one if the file
// does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		doc: document{
			Expenses: []expenseRecord{},
			Budgets:  map[string]float64{},
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("parse ledger file: %w", err)
	}
	if s.doc.Budgets == nil {
		s.doc.Budgets = map[string]float64{}
	}

	// JSON objects carry no order, so budgets from an existing file are
	// listed lexicographically; categories set afterwards keep set order.
	for category := range s.doc.Budgets {
		s.order = append(s.order, category)
	}
	sort.Strings(s.order)

	return s, nil
}

// Expenses returns the store as an expense repository.
func (s *Store) Expenses() repository.ExpenseRepository {
	return expenseView{s}
}

// Budgets returns the store as a budget repository.
func (s *Store) Budgets() repository.BudgetRepository {
	return budgetView{s}
}

type expenseView struct{ store *Store }

func (v expenseView) Init(ctx context.Context) error { return nil }

func (v expenseView) Create(ctx context.Context, expense *domain.Expense) (int64, error) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Expenses = append(s.doc.Expenses, expenseRecord{
		Date:        expense.Date,
		Amount:      expense.Amount,
		Category:    expense.Category,
		Description: expense.Description,
	})
	expense.ID = int64(len(s.doc.Expenses))
	expense.CreatedAt = time.Now().UTC()

	if err := s.save(); err != nil {
		return 0, err
	}
	return expense.ID, nil
}

func (v expenseView) ListByUser(ctx context.Context, userID int64) ([]domain.Expense, error) {
	s := v.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expenses []domain.Expense
	for i, rec := range s.doc.Expenses {
		expenses = append(expenses, domain.Expense{
			ID:          int64(i + 1),
			Date:        rec.Date,
			Category:    rec.Category,
			Amount:      rec.Amount,
			Description: rec.Description,
		})
	}
	return expenses, nil
}

type budgetView struct{ store *Store }

func (v budgetView) Init(ctx context.Context) error { return nil }

func (v budgetView) Upsert(ctx context.Context, budget *domain.Budget) error {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.doc.Budgets[budget.Category]; !exists {
		s.order = append(s.order, budget.Category)
	}
	s.doc.Budgets[budget.Category] = budget.Limit

	return s.save()
}

func (v budgetView) ListByUser(ctx context.Context, userID int64) ([]domain.Budget, error) {
	s := v.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var budgets []domain.Budget
	for i, category := range s.order {
		limit, ok := s.doc.Budgets[category]
		if !ok {
			continue
		}
		budgets = append(budgets, domain.Budget{
			ID:       int64(i + 1),
			Category: category,
			Limit:    limit,
		})
	}
	return budgets, nil
}

// save rewrites the whole document, matching the prototype's indented output.
// Callers must hold the write lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode ledger file: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}
	return nil
}

var (
	_ repository.ExpenseRepository = expenseView{}
	_ repository.BudgetRepository  = budgetView{}
)
