package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const expenseColumns = `id, group_id, expense_date, title, category, amount, currency, paid_by,
	split_mode, expense_type, notes, created_at, created_by, prev_version_id, state`

func scanExpense(s scanner) (*models.Expense, error) {
	var (
		e         models.Expense
		createdBy sql.NullString
		prevID    sql.NullString
	)
	err := s.Scan(
		&e.ID, &e.GroupID, &e.ExpenseDate, &e.Title, &e.Category, &e.Amount, &e.Currency, &e.PaidBy,
		&e.SplitMode, &e.ExpenseType, &e.Notes, &e.CreatedAt, &createdBy, &prevID, &e.State,
	)
	if err != nil {
		return nil, err
	}
	e.CreatedBy = stringPtr(createdBy)
	e.PrevVersionID = stringPtr(prevID)
	return &e, nil
}

// GetExpense retrieves one expense row by ID.
func (q *queries) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	return q.getExpense(ctx, expenseID, "")
}

// LockExpense reads an expense row and holds it until the transaction ends.
func (q *queries) LockExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	return q.getExpense(ctx, expenseID, q.dialect.LockClause)
}

func (q *queries) getExpense(ctx context.Context, expenseID, suffix string) (*models.Expense, error) {
	e, err := scanExpense(q.queryRow(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?"+suffix,
		expenseID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if err := q.loadPaidFor(ctx, []*models.Expense{e}); err != nil {
		return nil, err
	}
	return e, nil
}

func expenseFilter(groupID string, opts storage.ListOptions) (string, []any) {
	where := []string{"group_id = ?"}
	args := []any{groupID}
	if !opts.IncludeHistory {
		where = append(where, "state = ?")
		args = append(args, string(models.StateCurrent))
	}
	if opts.Currency != "" {
		where = append(where, "currency = ?")
		args = append(args, opts.Currency)
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// ListExpenses returns the expense rows of a group.
func (q *queries) ListExpenses(ctx context.Context, groupID string, opts storage.ListOptions) ([]*models.Expense, error) {
	where, args := expenseFilter(groupID, opts)
	order := " ORDER BY expense_date DESC, created_at DESC, id"
	if opts.IncludeHistory {
		order = " ORDER BY created_at, id"
	}
	limit, limitArgs := q.limitClause(opts)

	rows, err := q.query(ctx,
		"SELECT "+expenseColumns+" FROM expenses"+where+order+limit,
		append(args, limitArgs...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	if err := q.loadPaidFor(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// CountExpenses counts the rows ListExpenses would return without paging.
func (q *queries) CountExpenses(ctx context.Context, groupID string, opts storage.ListOptions) (int, error) {
	where, args := expenseFilter(groupID, opts)
	var n int
	if err := q.queryRow(ctx, "SELECT COUNT(*) FROM expenses"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return n, nil
}

// UsedCurrencies returns the distinct currencies of a group's CURRENT expenses.
func (q *queries) UsedCurrencies(ctx context.Context, groupID string) ([]string, error) {
	rows, err := q.query(ctx,
		"SELECT DISTINCT currency FROM expenses WHERE group_id = ? AND state = ? ORDER BY currency",
		groupID, string(models.StateCurrent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	currencies, err := scanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan currencies: %w", err)
	}
	return currencies, nil
}

// loadPaidFor fills PaidFor of every expense, in stored order.
func (q *queries) loadPaidFor(ctx context.Context, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	byID := make(map[string]*models.Expense, len(expenses))
	args := make([]any, 0, len(expenses))
	for _, e := range expenses {
		byID[e.ID] = e
		args = append(args, e.ID)
	}

	rows, err := q.query(ctx,
		"SELECT expense_id, participant_id, shares FROM expense_paid_for WHERE expense_id IN ("+
			placeholders(len(args))+") ORDER BY expense_id, position",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to get paid for: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			expenseID string
			pf        models.PaidFor
		)
		if err := rows.Scan(&expenseID, &pf.ParticipantID, &pf.Shares); err != nil {
			return fmt.Errorf("failed to scan paid for: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.PaidFor = append(e.PaidFor, pf)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate paid for: %w", err)
	}
	return nil
}

// SupersedeExpense flips a CURRENT row to MODIFIED. The state guard makes a
// concurrent writer that already moved the row fail instead of forking the chain.
func (q *queries) SupersedeExpense(ctx context.Context, expenseID string) error {
	res, err := q.exec(ctx,
		"UPDATE expenses SET state = ? WHERE id = ? AND state = ?",
		string(models.StateModified), expenseID, string(models.StateCurrent),
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("expense %s is no longer current: %w", expenseID, storage.ErrConflict)
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// InsertExpense writes a new expense row and its recipients.
func (q *queries) InsertExpense(ctx context.Context, e *models.Expense) error {
	_, err := q.exec(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES ("+placeholders(15)+")",
		e.ID, e.GroupID, e.ExpenseDate, e.Title, e.Category, e.Amount, e.Currency, e.PaidBy,
		string(e.SplitMode), string(e.ExpenseType), e.Notes, e.CreatedAt,
		nullString(e.CreatedBy), nullString(e.PrevVersionID), string(e.State),
	)
	if err != nil {
		if q.dialect.uniqueViolation(err) {
			return fmt.Errorf("expense %s: %w", e.ID, storage.ErrConflict)
		}
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, pf := range e.PaidFor {
		_, err := q.exec(ctx,
			"INSERT INTO expense_paid_for (expense_id, participant_id, shares, position) VALUES (?, ?, ?, ?)",
			e.ID, pf.ParticipantID, pf.Shares, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert paid for: %w", err)
		}
	}
	return nil
}
