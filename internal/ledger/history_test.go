package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
)

func row(id, prev string, state models.ExpenseState, createdAt int64) *models.Expense {
	return &models.Expense{
		ID:            id,
		PrevVersionID: models.StringPtr(prev),
		State:         state,
		CreatedAt:     createdAt,
	}
}

func TestHistory_ChainAndOrder(t *testing.T) {
	// Same timestamp everywhere: chain depth decides the order.
	rows := []*models.Expense{
		row("c", "b", models.StateDeleted, 5),
		row("a", "", models.StateModified, 5),
		row("x", "", models.StateCurrent, 5),
		row("b", "a", models.StateModified, 5),
	}
	h := NewHistory(rows)
	require.NoError(t, h.Verify())

	ids := func(rows []*models.Expense) []string {
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = r.ID
		}
		return out
	}

	assert.Equal(t, []string{"a", "x", "b", "c"}, ids(h.Rows()))
	assert.Equal(t, []string{"a", "b", "c"}, ids(h.Chain("b")))
	assert.Equal(t, []string{"x"}, ids(h.Chain("x")))
	assert.Nil(t, h.Chain("missing"))
	assert.Equal(t, []string{"a", "x"}, ids(h.Origins()))

	tip, ok := h.Tip("a")
	require.True(t, ok)
	assert.Equal(t, "c", tip.ID)

	b, _ := h.Get("b")
	assert.Equal(t, "a", b.PrevVersion.ID)
	assert.Equal(t, "c", b.NextVersion.ID)
}

func TestHistory_Verify(t *testing.T) {
	tests := []struct {
		name string
		rows []*models.Expense
	}{
		{
			name: "fork",
			rows: []*models.Expense{
				row("a", "", models.StateModified, 1),
				row("b", "a", models.StateCurrent, 2),
				row("c", "a", models.StateCurrent, 3),
			},
		},
		{
			name: "dangling predecessor",
			rows: []*models.Expense{
				row("b", "a", models.StateCurrent, 2),
			},
		},
		{
			name: "two current rows in one chain",
			rows: []*models.Expense{
				row("a", "", models.StateCurrent, 1),
				row("b", "a", models.StateCurrent, 2),
			},
		},
		{
			name: "deleted row with a successor",
			rows: []*models.Expense{
				row("a", "", models.StateDeleted, 1),
				row("b", "a", models.StateCurrent, 2),
			},
		},
		{
			name: "modified tip",
			rows: []*models.Expense{
				row("a", "", models.StateModified, 1),
			},
		},
		{
			name: "cycle",
			rows: []*models.Expense{
				row("a", "b", models.StateModified, 1),
				row("b", "a", models.StateModified, 2),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewHistory(tt.rows).Verify()
			require.ErrorIs(t, err, ErrCorruptHistory)
		})
	}
}

func TestHistory_CycleDoesNotHang(t *testing.T) {
	h := NewHistory([]*models.Expense{
		row("a", "b", models.StateModified, 1),
		row("b", "a", models.StateModified, 2),
	})
	assert.LessOrEqual(t, len(h.Chain("a")), 3)
	assert.Len(t, h.Rows(), 2)
}

func TestSameContent(t *testing.T) {
	base := models.ExpenseFields{
		GroupID:     "g",
		ExpenseDate: "2024-05-01",
		Title:       "Taxi",
		Amount:      1200,
		Currency:    "EUR",
		PaidBy:      "a",
		PaidFor:     []models.PaidFor{{ParticipantID: "a", Shares: 1}, {ParticipantID: "b", Shares: 1}},
		SplitMode:   models.SplitEvenly,
		ExpenseType: models.ExpenseTypeExpense,
	}

	tests := []struct {
		name   string
		mutate func(*models.ExpenseFields)
		same   bool
	}{
		{name: "identical", mutate: func(f *models.ExpenseFields) {}, same: true},
		{name: "title", mutate: func(f *models.ExpenseFields) { f.Title = "Cab" }},
		{name: "notes", mutate: func(f *models.ExpenseFields) { f.Notes = "late" }},
		{name: "category", mutate: func(f *models.ExpenseFields) { f.Category = 3 }},
		{name: "date", mutate: func(f *models.ExpenseFields) { f.ExpenseDate = "2024-05-02" }},
		{name: "type", mutate: func(f *models.ExpenseFields) { f.ExpenseType = models.ExpenseTypeIncome }},
		{name: "shares", mutate: func(f *models.ExpenseFields) { f.PaidFor[1].Shares = 2 }},
		{name: "recipient order", mutate: func(f *models.ExpenseFields) {
			f.PaidFor[0], f.PaidFor[1] = f.PaidFor[1], f.PaidFor[0]
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base.Clone()
			tt.mutate(&other)
			assert.Equal(t, tt.same, sameContent(base, other))
		})
	}
}
