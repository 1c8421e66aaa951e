// Package ledger implements the versioned expense ledger.
//
// Expenses are never edited in place. Every change appends a row to the
// expense's chain:
//
//	create:  E1(CURRENT)
//	update:  E1(MODIFIED) <- E2(CURRENT)
//	delete:  E1(MODIFIED) <- E2(MODIFIED) <- E3(DELETED)
//
// Each row points at the row it supersedes through PrevVersionID. The flip of
// the old row and the insert of its successor happen in one transaction,
// together with the activity entry describing the change.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Publisher is notified after a change has been committed.
type Publisher interface {
	Publish(ctx context.Context, activity *models.Activity) error
}

// Ledger records expense changes as version chains.
type Ledger struct {
	store     storage.Store
	publisher Publisher
	now       func() time.Time
	newID     func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher sets the publisher notified after every committed change.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides the UUID generator used for new rows.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// New creates a Ledger on top of store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Create records a new expense chain and returns its first row.
func (l *Ledger) Create(ctx context.Context, fields models.ExpenseFields, createdBy string) (*models.Expense, error) {
	var (
		created  *models.Expense
		activity *models.Activity
	)
	err := l.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		group, err := tx.GetGroup(ctx, fields.GroupID)
		if err != nil {
			return err
		}
		if err := validateParticipants(group, fields, createdBy); err != nil {
			return err
		}

		created = l.newRow(fields, createdBy, nil, models.StateCurrent)
		if err := tx.InsertExpense(ctx, created); err != nil {
			return err
		}
		activity = l.newActivity(created, models.ActivityCreateExpense, createdBy)
		return tx.InsertActivity(ctx, activity)
	})
	if err != nil {
		return nil, wrapTxError("create", err)
	}

	l.publish(ctx, activity)
	return created, nil
}

// Update supersedes the CURRENT row expenseID with a new row holding fields.
// If fields describe the same expense as the existing row, nothing is written
// and the existing row is returned.
func (l *Ledger) Update(ctx context.Context, expenseID string, fields models.ExpenseFields, updatedBy string) (*models.Expense, error) {
	var (
		result   *models.Expense
		activity *models.Activity
	)
	err := l.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		old, err := lockCurrent(ctx, tx, expenseID)
		if err != nil {
			return err
		}
		// An expense never moves between groups.
		fields.GroupID = old.GroupID

		group, err := tx.GetGroup(ctx, old.GroupID)
		if err != nil {
			return err
		}
		if err := validateParticipants(group, fields, updatedBy); err != nil {
			return err
		}

		if sameContent(old.ExpenseFields, fields) {
			result = old
			return nil
		}

		if err := tx.SupersedeExpense(ctx, old.ID); err != nil {
			return err
		}
		result = l.newRow(fields, updatedBy, &old.ID, models.StateCurrent)
		if err := tx.InsertExpense(ctx, result); err != nil {
			return err
		}
		activity = l.newActivity(result, models.ActivityUpdateExpense, updatedBy)
		return tx.InsertActivity(ctx, activity)
	})
	if err != nil {
		return nil, wrapTxError("update", err)
	}

	if activity != nil {
		l.publish(ctx, activity)
	} else {
		slog.Debug("Expense unchanged, no version written", "expense_id", expenseID)
	}
	return result, nil
}

// Delete terminates the chain of the CURRENT row expenseID with a DELETED row
// carrying the last content. It returns the DELETED row.
func (l *Ledger) Delete(ctx context.Context, expenseID string, deletedBy string) (*models.Expense, error) {
	var (
		deleted  *models.Expense
		activity *models.Activity
	)
	err := l.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		old, err := lockCurrent(ctx, tx, expenseID)
		if err != nil {
			return err
		}
		if deletedBy != "" {
			group, err := tx.GetGroup(ctx, old.GroupID)
			if err != nil {
				return err
			}
			if !group.HasParticipant(deletedBy) {
				return fmt.Errorf("%w: %s is not a member of group %s", ErrInvalidParticipant, deletedBy, group.ID)
			}
		}

		if err := tx.SupersedeExpense(ctx, old.ID); err != nil {
			return err
		}
		deleted = l.newRow(old.ExpenseFields, deletedBy, &old.ID, models.StateDeleted)
		if err := tx.InsertExpense(ctx, deleted); err != nil {
			return err
		}
		activity = l.newActivity(deleted, models.ActivityDeleteExpense, deletedBy)
		return tx.InsertActivity(ctx, activity)
	})
	if err != nil {
		return nil, wrapTxError("delete", err)
	}

	l.publish(ctx, activity)
	return deleted, nil
}

// lockCurrent reads and locks expenseID and makes sure it is still the live row.
func lockCurrent(ctx context.Context, tx storage.Tx, expenseID string) (*models.Expense, error) {
	e, err := tx.LockExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if e.State != models.StateCurrent {
		return nil, fmt.Errorf("expense %s is %s: %w", expenseID, e.State, storage.ErrConflict)
	}
	return e, nil
}

func wrapTxError(op string, err error) error {
	if errors.Is(err, storage.ErrConflict) {
		return fmt.Errorf("%s failed, retry: %w", op, err)
	}
	return fmt.Errorf("failed to %s expense: %w", op, err)
}

func (l *Ledger) newRow(fields models.ExpenseFields, by string, prevID *string, state models.ExpenseState) *models.Expense {
	e := &models.Expense{
		ID:            l.newID(),
		ExpenseFields: fields.Clone(),
		CreatedAt:     l.now().UnixMilli(),
		CreatedBy:     models.StringPtr(by),
		State:         state,
	}
	if prevID != nil {
		id := *prevID
		e.PrevVersionID = &id
	}
	return e
}

func (l *Ledger) newActivity(e *models.Expense, typ models.ActivityType, by string) *models.Activity {
	id := e.ID
	return &models.Activity{
		ID:            l.newID(),
		GroupID:       e.GroupID,
		Time:          e.CreatedAt,
		Type:          typ,
		ParticipantID: models.StringPtr(by),
		ExpenseID:     &id,
		Data:          e.Title,
	}
}

// publish notifies the publisher. Failures are logged: the change is already committed.
func (l *Ledger) publish(ctx context.Context, activity *models.Activity) {
	if l.publisher == nil || activity == nil {
		return
	}
	if err := l.publisher.Publish(ctx, activity); err != nil {
		slog.Warn("Failed to publish activity", "activity_type", activity.Type, "group_id", activity.GroupID, "error", err)
	}
}

func validateParticipants(group *models.Group, fields models.ExpenseFields, by string) error {
	check := func(role, id string) error {
		if !group.HasParticipant(id) {
			return fmt.Errorf("%w: %s %q is not a member of group %s", ErrInvalidParticipant, role, id, group.ID)
		}
		return nil
	}
	if err := check("payer", fields.PaidBy); err != nil {
		return err
	}
	for _, pf := range fields.PaidFor {
		if err := check("recipient", pf.ParticipantID); err != nil {
			return err
		}
	}
	if by != "" {
		return check("author", by)
	}
	return nil
}
