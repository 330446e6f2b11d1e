package domain

import "time"

// User represents a registered owner of expenses and budgets. Users are
// created on registration and never mutated or deleted afterwards.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
