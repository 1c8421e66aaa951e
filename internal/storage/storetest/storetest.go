// Package storetest holds behaviour tests shared by every storage.Store backend.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Run exercises a fresh store returned by newStore for every subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"CreateGroup assigns IDs", testCreateGroup},
		{"GetGroup unknown", testGetGroupNotFound},
		{"ListGroups newest first", testListGroups},
		{"UpdateGroup", testUpdateGroup},
		{"InsertExpense round trip", testExpenseRoundTrip},
		{"ListExpenses", testListExpenses},
		{"SupersedeExpense guard", testSupersede},
		{"InsertExpense unique successor", testUniqueSuccessor},
		{"InTx rollback", testRollback},
		{"ExpenseParticipants", testExpenseParticipants},
		{"ListActivities", testActivities},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { s.Close() })
			tt.fn(t, s)
		})
	}
}

// NewGroup creates a group with the given participant names.
func NewGroup(t *testing.T, s storage.Store, names ...string) *models.Group {
	t.Helper()
	g := &models.Group{Name: "Trip", Currency: "EUR"}
	for _, n := range names {
		g.Participants = append(g.Participants, models.Participant{Name: n})
	}
	require.NoError(t, s.CreateGroup(context.Background(), g))
	return g
}

// NewExpense builds a CURRENT expense row paid by the first participant and
// split evenly between all of them.
func NewExpense(g *models.Group, id string, createdAt int64) *models.Expense {
	e := &models.Expense{
		ID: id,
		ExpenseFields: models.ExpenseFields{
			GroupID:     g.ID,
			ExpenseDate: "2024-05-01",
			Title:       "Dinner " + id,
			Amount:      3000,
			Currency:    "EUR",
			PaidBy:      g.Participants[0].ID,
			SplitMode:   models.SplitEvenly,
			ExpenseType: models.ExpenseTypeExpense,
		},
		CreatedAt: createdAt,
		State:     models.StateCurrent,
	}
	for _, p := range g.Participants {
		e.PaidFor = append(e.PaidFor, models.PaidFor{ParticipantID: p.ID, Shares: 1})
	}
	return e
}

func insert(t *testing.T, s storage.Store, expenses ...*models.Expense) {
	t.Helper()
	err := s.InTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		for _, e := range expenses {
			if err := tx.InsertExpense(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func testCreateGroup(t *testing.T, s storage.Store) {
	g := NewGroup(t, s, "Alice", "Bob", "Carol")
	require.NotEmpty(t, g.ID)
	require.NotZero(t, g.CreatedAt)

	got, err := s.GetGroup(context.Background(), g.ID)
	require.NoError(t, err)
	require.Equal(t, g.Name, got.Name)
	require.Equal(t, "EUR", got.Currency)
	require.Len(t, got.Participants, 3)
	for i, name := range []string{"Alice", "Bob", "Carol"} {
		assert.NotEmpty(t, got.Participants[i].ID)
		assert.Equal(t, name, got.Participants[i].Name)
	}
}

func testGetGroupNotFound(t *testing.T, s storage.Store) {
	_, err := s.GetGroup(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.GetExpense(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testListGroups(t *testing.T, s storage.Store) {
	ctx := context.Background()
	older := &models.Group{Name: "Old", Currency: "$", CreatedAt: 100, Participants: []models.Participant{{Name: "A"}}}
	newer := &models.Group{Name: "New", Currency: "$", CreatedAt: 200, Participants: []models.Participant{{Name: "B"}}}
	require.NoError(t, s.CreateGroup(ctx, older))
	require.NoError(t, s.CreateGroup(ctx, newer))

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, "New", groups[0].Name)
	require.Equal(t, "Old", groups[1].Name)
	require.Len(t, groups[0].Participants, 1)
}

func testUpdateGroup(t *testing.T, s storage.Store) {
	ctx := context.Background()
	g := NewGroup(t, s, "Alice", "Bob")

	updated := &models.Group{
		ID:       g.ID,
		Name:     "Renamed",
		Currency: "USD",
		Participants: []models.Participant{
			{ID: g.Participants[1].ID, Name: "Robert"},
			{Name: "Dave"},
		},
	}
	err := s.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.UpdateGroup(ctx, updated)
	})
	require.NoError(t, err)

	got, err := s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Name)
	require.Equal(t, "USD", got.Currency)
	require.Equal(t, g.CreatedAt, got.CreatedAt)
	require.Len(t, got.Participants, 2)
	require.Equal(t, models.Participant{ID: g.Participants[1].ID, Name: "Robert"}, got.Participants[0])
	require.Equal(t, "Dave", got.Participants[1].Name)
	require.NotEmpty(t, got.Participants[1].ID)

	err = s.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.UpdateGroup(ctx, &models.Group{ID: "missing", Name: "x"})
	})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testExpenseRoundTrip(t *testing.T, s storage.Store) {
	ctx := context.Background()
	g := NewGroup(t, s, "Alice", "Bob", "Carol")

	e := NewExpense(g, "e1", 1000)
	// Stored order is significant and must survive a round trip.
	e.SplitMode = models.SplitByPercentage
	e.PaidFor = []models.PaidFor{
		{ParticipantID: g.Participants[2].ID, Shares: 5000},
		{ParticipantID: g.Participants[0].ID, Shares: 3000},
		{ParticipantID: g.Participants[1].ID, Shares: 2000},
	}
	e.Category = 7
	e.Notes = "with dessert"
	e.CreatedBy = &g.Participants[1].ID
	insert(t, s, e)

	got, err := s.GetExpense(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, e.ExpenseFields, got.ExpenseFields)
	require.Equal(t, e.CreatedAt, got.CreatedAt)
	require.Equal(t, models.StateCurrent, got.State)
	require.Nil(t, got.PrevVersionID)
	require.Equal(t, g.Participants[1].ID, models.StringValue(got.CreatedBy))
}

func testListExpenses(t *testing.T, s storage.Store) {
	ctx := context.Background()
	g := NewGroup(t, s, "Alice", "Bob")

	e1 := NewExpense(g, "e1", 1000)
	e1.ExpenseDate = "2024-01-01"
	e2 := NewExpense(g, "e2", 2000)
	e2.ExpenseDate = "2024-03-01"
	e3 := NewExpense(g, "e3", 3000)
	e3.ExpenseDate = "2024-02-01"
	e3.Currency = "USD"
	insert(t, s, e1, e2, e3)

	prev := "e2"
	e4 := NewExpense(g, "e4", 4000)
	e4.PrevVersionID = &prev
	e4.ExpenseDate = "2024-03-02"
	err := s.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.SupersedeExpense(ctx, "e2"); err != nil {
			return err
		}
		return tx.InsertExpense(ctx, e4)
	})
	require.NoError(t, err)

	ids := func(expenses []*models.Expense) []string {
		out := make([]string, len(expenses))
		for i, e := range expenses {
			out[i] = e.ID
		}
		return out
	}

	current, err := s.ListExpenses(ctx, g.ID, storage.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"e4", "e3", "e1"}, ids(current))

	paged, err := s.ListExpenses(ctx, g.ID, storage.ListOptions{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"e3"}, ids(paged))

	skipped, err := s.ListExpenses(ctx, g.ID, storage.ListOptions{Offset: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"e1"}, ids(skipped))

	eur, err := s.ListExpenses(ctx, g.ID, storage.ListOptions{Currency: "EUR"})
	require.NoError(t, err)
	require.Equal(t, []string{"e4", "e1"}, ids(eur))

	history, err := s.ListExpenses(ctx, g.ID, storage.ListOptions{IncludeHistory: true})
	require.NoError(t, err)
	require.Equal(t, []string{"e1", "e2", "e3", "e4"}, ids(history))
	require.Equal(t, models.StateModified, history[1].State)
	require.Len(t, history[1].PaidFor, 2)

	n, err := s.CountExpenses(ctx, g.ID, storage.ListOptions{Limit: 1})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = s.CountExpenses(ctx, g.ID, storage.ListOptions{IncludeHistory: true})
	require.NoError(t, err)
	require.Equal(t, 4, n)

	currencies, err := s.UsedCurrencies(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"EUR", "USD"}, currencies)
}

func testSupersede(t *testing.T, s storage.Store) {
	ctx := context.Background()
	g := NewGroup(t, s, "Alice")
	insert(t, s, NewExpense(g, "e1", 1000))

	supersede := func() error {
		return s.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.SupersedeExpense(ctx, "e1")
		})
	}
	require.NoError(t, supersede())
	require.ErrorIs(t, supersede(), storage.ErrConflict)

	got, err := s.GetExpense(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, models.StateModified, got.State)
}

func testUniqueSuccessor(t *testing.T, s storage.Store) {
	ctx := context.Background()
	g := NewGroup(t, s, "Alice")
	insert(t, s, NewExpense(g, "e1", 1000))

	prev := "e1"
	first := NewExpense(g, "e2", 2000)
	first.PrevVersionID = &prev
	insert(t, s, first)

	second := NewExpense(g, "e3", 2000)
	second.PrevVersionID = &prev
	err := s.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertExpense(ctx, second)
	})
	require.ErrorIs(t, err, storage.ErrConflict)

	_, err = s.GetExpense(ctx, "e3")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testRollback(t *testing.T, s storage.Store) {
	ctx := context.Background()
	g := NewGroup(t, s, "Alice")
	insert(t, s, NewExpense(g, "e1", 1000))

	boom := errors.New("boom")
	prev := "e1"
	next := NewExpense(g, "e2", 2000)
	next.PrevVersionID = &prev
	err := s.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.SupersedeExpense(ctx, "e1"); err != nil {
			return err
		}
		if err := tx.InsertExpense(ctx, next); err != nil {
			return err
		}
		if err := tx.InsertActivity(ctx, &models.Activity{GroupID: g.ID, Time: 2000, Type: models.ActivityUpdateExpense}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetExpense(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, models.StateCurrent, got.State)

	_, err = s.GetExpense(ctx, "e2")
	require.ErrorIs(t, err, storage.ErrNotFound)

	activities, err := s.ListActivities(ctx, g.ID, storage.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, activities)
}

func testExpenseParticipants(t *testing.T, s storage.Store) {
	ctx := context.Background()
	g := NewGroup(t, s, "Alice", "Bob", "Carol", "Dave")

	e := NewExpense(g, "e1", 1000)
	e.PaidFor = []models.PaidFor{{ParticipantID: g.Participants[1].ID, Shares: 1}}
	e.CreatedBy = &g.Participants[2].ID
	insert(t, s, e)

	var ids []string
	err := s.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		ids, err = tx.ExpenseParticipants(ctx, g.ID)
		return err
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{g.Participants[0].ID, g.Participants[1].ID, g.Participants[2].ID}, ids)
}

func testActivities(t *testing.T, s storage.Store) {
	ctx := context.Background()
	g := NewGroup(t, s, "Alice")

	err := s.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		for i, typ := range []models.ActivityType{models.ActivityCreateExpense, models.ActivityUpdateExpense, models.ActivityDeleteExpense} {
			a := &models.Activity{
				GroupID:       g.ID,
				Time:          int64(1000 * (i + 1)),
				Type:          typ,
				ParticipantID: &g.Participants[0].ID,
				Data:          "Dinner",
			}
			if err := tx.InsertActivity(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	all, err := s.ListActivities(ctx, g.ID, storage.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, models.ActivityDeleteExpense, all[0].Type)
	require.Equal(t, models.ActivityCreateExpense, all[2].Type)
	require.NotEmpty(t, all[0].ID)
	require.Equal(t, g.Participants[0].ID, models.StringValue(all[0].ParticipantID))
	require.Nil(t, all[0].ExpenseID)

	paged, err := s.ListActivities(ctx, g.ID, storage.ListOptions{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, models.ActivityUpdateExpense, paged[0].Type)
}
