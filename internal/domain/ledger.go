package domain

import "time"

// DateLayout is the wire and storage format for expense dates.
const DateLayout = "2006-01-02"

// Expense is a single spending record owned by a user. Expenses are
// append-only; they are never edited or removed once stored.
type Expense struct {
	ID          int64
	UserID      int64
	Date        string
	Category    string
	Amount      float64
	Description string
	CreatedAt   time.Time
}

// Budget is a per-category spending limit. At most one budget exists per
// (user, category) pair; setting the same category again overwrites the limit.
type Budget struct {
	ID        int64
	UserID    int64
	Category  string
	Limit     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategorySummary compares a budgeted category against actual spending.
// Remaining may go negative when spending exceeds the limit.
type CategorySummary struct {
	Category  string
	Budget    float64
	Spent     float64
	Remaining float64
}
