// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a group or expense row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write lost a race with another writer.
	// The caller may retry.
	ErrConflict = errors.New("conflict")
)

// ListOptions narrows expense and activity listings.
type ListOptions struct {
	// Offset skips the first rows of the result.
	Offset int

	// Limit caps the number of rows returned. 0 means no limit.
	Limit int

	// Currency keeps only expenses in this currency. Empty means all.
	Currency string

	// IncludeHistory returns every row (MODIFIED and DELETED included)
	// instead of CURRENT rows only.
	IncludeHistory bool
}

// Store defines the interface for group and expense storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, memory)
// without changing the ledger or service layer.
type Store interface {
	// CreateGroup persists a new group. Missing group and participant IDs
	// are assigned by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its participants in order.
	// Returns ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups returns every group, newest first.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// GetExpense retrieves one expense row by ID, whatever its state.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpenses returns the expense rows of a group.
	// CURRENT rows are ordered by expense date, newest first. With
	// IncludeHistory, all rows are ordered by creation time, oldest first.
	ListExpenses(ctx context.Context, groupID string, opts ListOptions) ([]*models.Expense, error)

	// CountExpenses counts the rows ListExpenses would return without paging.
	CountExpenses(ctx context.Context, groupID string, opts ListOptions) (int, error)

	// UsedCurrencies returns the distinct currencies of a group's CURRENT expenses.
	UsedCurrencies(ctx context.Context, groupID string) ([]string, error)

	// ListActivities returns a group's activity feed, newest first.
	ListActivities(ctx context.Context, groupID string, opts ListOptions) ([]*models.Activity, error)

	// InTx runs fn inside a single transaction. The transaction commits if fn
	// returns nil and rolls back otherwise, leaving no partial writes.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}

// Tx is the set of operations available inside a transaction.
type Tx interface {
	// GetGroup retrieves a group with its participants.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// UpdateGroup replaces a group's name, currency and participants.
	// Participants missing from the new list are removed.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// ExpenseParticipants returns every participant ID referenced by any
	// expense row of the group, whatever its state.
	ExpenseParticipants(ctx context.Context, groupID string) ([]string, error)

	// LockExpense reads an expense row and holds it for the rest of the
	// transaction. Returns ErrNotFound if the row does not exist.
	LockExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// SupersedeExpense flips a CURRENT row to MODIFIED.
	// Returns ErrConflict if the row is no longer CURRENT.
	SupersedeExpense(ctx context.Context, expenseID string) error

	// InsertExpense writes a new expense row. Returns ErrConflict if another
	// row already succeeds the same predecessor.
	InsertExpense(ctx context.Context, expense *models.Expense) error

	// InsertActivity appends an entry to the group's activity feed.
	InsertActivity(ctx context.Context, activity *models.Activity) error
}
