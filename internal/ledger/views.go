package ledger

import (
	"context"
	"fmt"
	"slices"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CurrentView returns the live expenses of a group, newest expense date first.
func (l *Ledger) CurrentView(ctx context.Context, groupID string, opts storage.ListOptions) ([]*models.Expense, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	opts.IncludeHistory = false
	expenses, err := l.store.ListExpenses(ctx, groupID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list current expenses: %w", err)
	}
	return expenses, nil
}

// HistoryView returns every row of a group, oldest first, with PrevVersion and
// NextVersion resolved. Offset and Limit apply to the ordered rows.
func (l *Ledger) HistoryView(ctx context.Context, groupID string, opts storage.ListOptions) ([]*models.Expense, error) {
	h, err := l.History(ctx, groupID)
	if err != nil {
		return nil, err
	}
	rows := h.Rows()
	if opts.Currency != "" {
		// Links are resolved on the whole arena so a chain that changed
		// currency stays connected.
		rows = slices.DeleteFunc(rows, func(e *models.Expense) bool { return e.Currency != opts.Currency })
	}
	start := min(max(opts.Offset, 0), len(rows))
	end := len(rows)
	if opts.Limit > 0 {
		end = min(start+opts.Limit, end)
	}
	return rows[start:end], nil
}

// History loads the arena of every row of a group.
func (l *Ledger) History(ctx context.Context, groupID string) (*History, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	rows, err := l.store.ListExpenses(ctx, groupID, storage.ListOptions{IncludeHistory: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list expense history: %w", err)
	}
	return NewHistory(rows), nil
}

// Chain returns every version of the expense containing row expenseID,
// origin first and tip last, with links resolved.
func (l *Ledger) Chain(ctx context.Context, expenseID string) ([]*models.Expense, error) {
	e, err := l.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	h, err := l.History(ctx, e.GroupID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(h.Chain(expenseID)), nil
}
