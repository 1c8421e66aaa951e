package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
)

func validExpense() models.ExpenseFields {
	return models.ExpenseFields{
		GroupID:     "g1",
		ExpenseDate: "2024-05-01",
		Title:       "Groceries",
		Amount:      1000,
		Currency:    "€",
		PaidBy:      "a",
		PaidFor: []models.PaidFor{
			{ParticipantID: "a", Shares: 1},
			{ParticipantID: "b", Shares: 1},
		},
		SplitMode:   models.SplitEvenly,
		ExpenseType: models.ExpenseTypeExpense,
	}
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrValidation), "error should match ErrValidation: %v", err)
	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field] = fe.Message
	}
	return out
}

func TestExpense(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.ExpenseFields)
		wantField string
		wantMsg   string
	}{
		{
			name:   "valid",
			mutate: func(e *models.ExpenseFields) {},
		},
		{
			name:      "short title",
			mutate:    func(e *models.ExpenseFields) { e.Title = "X" },
			wantField: "title",
			wantMsg:   "must be at least 2 characters",
		},
		{
			name:      "zero amount",
			mutate:    func(e *models.ExpenseFields) { e.Amount = 0 },
			wantField: "amount",
			wantMsg:   "must be greater than 0",
		},
		{
			name:      "amount above the maximum",
			mutate:    func(e *models.ExpenseFields) { e.Amount = 10_000_000_01 },
			wantField: "amount",
			wantMsg:   "must be at most 10000000",
		},
		{
			name:      "currency too long",
			mutate:    func(e *models.ExpenseFields) { e.Currency = "POINTS" },
			wantField: "currency",
			wantMsg:   "must be at most 5 characters",
		},
		{
			name:      "bad date",
			mutate:    func(e *models.ExpenseFields) { e.ExpenseDate = "01/05/2024" },
			wantField: "expenseDate",
			wantMsg:   "must be a date formatted as YYYY-MM-DD",
		},
		{
			name:      "no recipients",
			mutate:    func(e *models.ExpenseFields) { e.PaidFor = nil },
			wantField: "paidFor",
			wantMsg:   "must contain at least 1 entries",
		},
		{
			name: "duplicate recipient",
			mutate: func(e *models.ExpenseFields) {
				e.PaidFor = append(e.PaidFor, models.PaidFor{ParticipantID: "a", Shares: 1})
			},
			wantField: "paidFor",
			wantMsg:   "must not list the same participant twice",
		},
		{
			name:      "zero shares",
			mutate:    func(e *models.ExpenseFields) { e.PaidFor[1].Shares = 0 },
			wantField: "paidFor[1].shares",
			wantMsg:   "must be at least 1",
		},
		{
			name:      "unknown split mode",
			mutate:    func(e *models.ExpenseFields) { e.SplitMode = "RANDOM" },
			wantField: "splitMode",
			wantMsg:   "must be one of EVENLY, BY_SHARES, BY_PERCENTAGE, BY_AMOUNT",
		},
		{
			name: "amounts do not add up",
			mutate: func(e *models.ExpenseFields) {
				e.SplitMode = models.SplitByAmount
				e.PaidFor[0].Shares = 600
				e.PaidFor[1].Shares = 150
			},
			wantField: "paidFor",
			wantMsg:   "amounts must add up to the expense amount (2.5 missing)",
		},
		{
			name: "amounts add up",
			mutate: func(e *models.ExpenseFields) {
				e.SplitMode = models.SplitByAmount
				e.PaidFor[0].Shares = 600
				e.PaidFor[1].Shares = 400
			},
		},
		{
			name: "percentages overflow",
			mutate: func(e *models.ExpenseFields) {
				e.SplitMode = models.SplitByPercentage
				e.PaidFor[0].Shares = 5000
				e.PaidFor[1].Shares = 5500
			},
			wantField: "paidFor",
			wantMsg:   "percentages must add up to 100 (5% surplus)",
		},
		{
			name: "reimbursement to self",
			mutate: func(e *models.ExpenseFields) {
				e.ExpenseType = models.ExpenseTypeReimbursement
			},
			wantField: "paidFor",
			wantMsg:   "the payer of a reimbursement must not be one of its recipients",
		},
		{
			name: "reimbursement to someone else",
			mutate: func(e *models.ExpenseFields) {
				e.ExpenseType = models.ExpenseTypeReimbursement
				e.PaidFor = e.PaidFor[1:]
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense()
			tt.mutate(&e)
			err := Expense(e)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			errs := fieldErrors(t, err)
			assert.Equal(t, tt.wantMsg, errs[tt.wantField], "all errors: %v", errs)
		})
	}
}

func TestGroup(t *testing.T) {
	valid := func() *models.Group {
		return &models.Group{
			Name:         "Flat share",
			Currency:     "$",
			Participants: []models.Participant{{Name: "Alice"}, {Name: "Bob"}},
		}
	}

	require.NoError(t, Group(valid()))

	g := valid()
	g.Name = "A"
	assert.Equal(t, "must be at least 2 characters", fieldErrors(t, Group(g))["name"])

	g = valid()
	g.Participants = nil
	assert.Equal(t, "must contain at least 1 entries", fieldErrors(t, Group(g))["participants"])

	g = valid()
	g.Participants = append(g.Participants, models.Participant{Name: "Alice"})
	assert.Equal(t, "another participant already has this name", fieldErrors(t, Group(g))["participants[2].name"])

	g = valid()
	g.Participants[1].Name = "B"
	assert.Equal(t, "must be at least 2 characters", fieldErrors(t, Group(g))["participants[1].name"])
}

func TestErrorsMessage(t *testing.T) {
	err := Errors{{Field: "title", Message: "is required"}, {Field: "amount", Message: "must be greater than 0"}}
	assert.Equal(t, "validation failed: title: is required; amount: must be greater than 0", err.Error())
}
