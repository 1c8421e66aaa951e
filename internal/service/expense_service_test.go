package service

import (
	"context"
	"sync"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
)

func groceries(ids map[string]string) ExpenseInput {
	return ExpenseInput{
		ExpenseDate: "2024-05-01",
		Title:       "Groceries",
		Amount:      3000,
		PaidBy:      ids["Alice"],
		PaidFor: []PaidFor{
			{ParticipantID: ids["Alice"], Shares: 1},
			{ParticipantID: ids["Bob"], Shares: 1},
			{ParticipantID: ids["Carol"], Shares: 1},
		},
		SplitMode: string(models.SplitEvenly),
	}
}

func TestExpenseLifecycle(t *testing.T) {
	srv := setupTestServer(t)
	ctx := context.Background()
	g, ids := srv.createGroup(t, "Alice", "Bob", "Carol")

	created, err := srv.expenses.CreateExpense(ctx, as(ids["Alice"], &CreateExpenseRequest{GroupID: g.ID, Expense: groceries(ids)}))
	require.NoError(t, err)
	e1 := created.Msg.Expense
	assert.Equal(t, string(models.StateCurrent), e1.State)
	assert.Equal(t, "EUR", e1.Currency, "currency defaults to the group's")
	assert.Equal(t, string(models.ExpenseTypeExpense), e1.ExpenseType)
	assert.Equal(t, ids["Alice"], e1.CreatedBy)
	assert.Empty(t, e1.PrevVersionID)
	assert.Equal(t, "Alice created Groceries", e1.Summary)
	assert.Equal(t, "You paid", e1.Payment)

	changed := groceries(ids)
	changed.Amount = 4500
	updated, err := srv.expenses.UpdateExpense(ctx, as(ids["Bob"], &UpdateExpenseRequest{ExpenseID: e1.ID, Expense: changed}))
	require.NoError(t, err)
	e2 := updated.Msg.Expense
	assert.True(t, updated.Msg.Changed)
	assert.NotEqual(t, e1.ID, e2.ID)
	assert.Equal(t, e1.ID, e2.PrevVersionID)
	assert.Equal(t, int64(4500), e2.Amount)
	assert.Equal(t, "Bob updated Groceries", e2.Summary)

	// Editing the superseded version loses the race.
	_, err = srv.expenses.UpdateExpense(ctx, connect.NewRequest(&UpdateExpenseRequest{ExpenseID: e1.ID, Expense: groceries(ids)}))
	requireCode(t, err, connect.CodeAborted)

	deleted, err := srv.expenses.DeleteExpense(ctx, as(ids["Carol"], &DeleteExpenseRequest{ExpenseID: e2.ID}))
	require.NoError(t, err)
	e3 := deleted.Msg.Expense
	assert.Equal(t, string(models.StateDeleted), e3.State)
	assert.Equal(t, e2.ID, e3.PrevVersionID)
	assert.Equal(t, int64(4500), e3.Amount)
	assert.Equal(t, e2.PaidFor, e3.PaidFor)
	assert.Equal(t, "Carol deleted Groceries", e3.Summary)

	current, err := srv.expenses.ListExpenses(ctx, connect.NewRequest(&ListExpensesRequest{GroupID: g.ID}))
	require.NoError(t, err)
	assert.Empty(t, current.Msg.Expenses)
	assert.Zero(t, current.Msg.Total)

	history, err := srv.expenses.ListExpenses(ctx, connect.NewRequest(&ListExpensesRequest{GroupID: g.ID, IncludeHistory: true}))
	require.NoError(t, err)
	rows := history.Msg.Expenses
	require.Len(t, rows, 3)
	assert.Equal(t, 3, history.Msg.Total)
	assert.Equal(t, []string{e1.ID, e2.ID, e3.ID}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
	assert.Equal(t, []string{"MODIFIED", "MODIFIED", "DELETED"}, []string{rows[0].State, rows[1].State, rows[2].State})
	assert.Equal(t, e2.ID, rows[0].NextVersionID)
	assert.Equal(t, e3.ID, rows[1].NextVersionID)
	assert.Empty(t, rows[2].NextVersionID)

	got, err := srv.expenses.GetExpense(ctx, connect.NewRequest(&GetExpenseRequest{ExpenseID: e2.ID, IncludeHistory: true}))
	require.NoError(t, err)
	assert.Equal(t, string(models.StateModified), got.Msg.Expense.State)
	assert.Equal(t, e3.ID, got.Msg.Expense.NextVersionID)
	require.Len(t, got.Msg.History, 3)
	assert.Equal(t, e1.ID, got.Msg.History[0].ID)

	_, err = srv.expenses.DeleteExpense(ctx, connect.NewRequest(&DeleteExpenseRequest{ExpenseID: e3.ID}))
	requireCode(t, err, connect.CodeAborted)
}

func TestUpdateExpense_SameContent(t *testing.T) {
	srv := setupTestServer(t)
	ctx := context.Background()
	g, ids := srv.createGroup(t, "Alice", "Bob", "Carol")

	created, err := srv.expenses.CreateExpense(ctx, connect.NewRequest(&CreateExpenseRequest{GroupID: g.ID, Expense: groceries(ids)}))
	require.NoError(t, err)

	updated, err := srv.expenses.UpdateExpense(ctx, connect.NewRequest(&UpdateExpenseRequest{
		ExpenseID: created.Msg.Expense.ID,
		Expense:   groceries(ids),
	}))
	require.NoError(t, err)
	assert.False(t, updated.Msg.Changed)
	assert.Equal(t, created.Msg.Expense.ID, updated.Msg.Expense.ID)

	history, err := srv.expenses.ListExpenses(ctx, connect.NewRequest(&ListExpensesRequest{GroupID: g.ID, IncludeHistory: true}))
	require.NoError(t, err)
	assert.Len(t, history.Msg.Expenses, 1)
}

func TestCreateExpense_Errors(t *testing.T) {
	srv := setupTestServer(t)
	ctx := context.Background()
	g, ids := srv.createGroup(t, "Alice", "Bob", "Carol")

	tests := []struct {
		name    string
		groupID string
		author  string
		mutate  func(in *ExpenseInput)
		want    connect.Code
	}{
		{name: "unknown group", groupID: "missing", mutate: func(in *ExpenseInput) {}, want: connect.CodeNotFound},
		{name: "zero amount", mutate: func(in *ExpenseInput) { in.Amount = 0 }, want: connect.CodeInvalidArgument},
		{name: "bad split mode", mutate: func(in *ExpenseInput) { in.SplitMode = "HALF" }, want: connect.CodeInvalidArgument},
		{name: "percentages off", mutate: func(in *ExpenseInput) {
			in.SplitMode = string(models.SplitByPercentage)
			in.PaidFor = in.PaidFor[:1]
			in.PaidFor[0].Shares = 5000
		}, want: connect.CodeInvalidArgument},
		{name: "payer outside the group", mutate: func(in *ExpenseInput) { in.PaidBy = "mallory" }, want: connect.CodeInvalidArgument},
		{name: "author outside the group", author: "mallory", mutate: func(in *ExpenseInput) {}, want: connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := groceries(ids)
			tt.mutate(&in)
			groupID := tt.groupID
			if groupID == "" {
				groupID = g.ID
			}
			_, err := srv.expenses.CreateExpense(ctx, as(tt.author, &CreateExpenseRequest{GroupID: groupID, Expense: in}))
			requireCode(t, err, tt.want)
		})
	}

	current, err := srv.expenses.ListExpenses(ctx, connect.NewRequest(&ListExpensesRequest{GroupID: g.ID}))
	require.NoError(t, err)
	assert.Empty(t, current.Msg.Expenses)
}

func TestListExpenses_PagingAndCurrency(t *testing.T) {
	srv := setupTestServer(t)
	ctx := context.Background()
	g, ids := srv.createGroup(t, "Alice", "Bob", "Carol")

	for _, day := range []string{"2024-05-01", "2024-05-03", "2024-05-02"} {
		in := groceries(ids)
		in.ExpenseDate = day
		if day == "2024-05-02" {
			in.Currency = "USD"
		}
		_, err := srv.expenses.CreateExpense(ctx, connect.NewRequest(&CreateExpenseRequest{GroupID: g.ID, Expense: in}))
		require.NoError(t, err)
	}

	resp, err := srv.expenses.ListExpenses(ctx, connect.NewRequest(&ListExpensesRequest{GroupID: g.ID, Limit: 2}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Expenses, 2)
	assert.Equal(t, 3, resp.Msg.Total)
	assert.Equal(t, "2024-05-03", resp.Msg.Expenses[0].ExpenseDate)
	assert.Equal(t, "2024-05-02", resp.Msg.Expenses[1].ExpenseDate)

	resp, err = srv.expenses.ListExpenses(ctx, connect.NewRequest(&ListExpensesRequest{GroupID: g.ID, Offset: 2}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Expenses, 1)
	assert.Equal(t, "2024-05-01", resp.Msg.Expenses[0].ExpenseDate)

	resp, err = srv.expenses.ListExpenses(ctx, connect.NewRequest(&ListExpensesRequest{GroupID: g.ID, Currency: "USD", ActiveParticipantID: ids["Bob"]}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Expenses, 1)
	assert.Equal(t, 1, resp.Msg.Total)
	assert.Equal(t, "Alice paid", resp.Msg.Expenses[0].Payment)

	_, err = srv.expenses.ListExpenses(ctx, connect.NewRequest(&ListExpensesRequest{GroupID: "missing"}))
	requireCode(t, err, connect.CodeNotFound)
}

func TestUpdateExpense_ConcurrentEdits(t *testing.T) {
	srv := setupTestServer(t)
	ctx := context.Background()
	g, ids := srv.createGroup(t, "Alice", "Bob", "Carol")

	created, err := srv.expenses.CreateExpense(ctx, connect.NewRequest(&CreateExpenseRequest{GroupID: g.ID, Expense: groceries(ids)}))
	require.NoError(t, err)

	const writers = 4
	codes := make([]connect.Code, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := groceries(ids)
			in.Amount = int64(1000 + i)
			_, err := srv.expenses.UpdateExpense(ctx, connect.NewRequest(&UpdateExpenseRequest{ExpenseID: created.Msg.Expense.ID, Expense: in}))
			if err != nil {
				codes[i] = connect.CodeOf(err)
			}
		}()
	}
	wg.Wait()

	var ok, aborted int
	for _, code := range codes {
		switch code {
		case 0:
			ok++
		case connect.CodeAborted:
			aborted++
		default:
			t.Errorf("unexpected code %v", code)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, aborted)

	history, err := srv.expenses.ListExpenses(ctx, connect.NewRequest(&ListExpensesRequest{GroupID: g.ID, IncludeHistory: true}))
	require.NoError(t, err)
	assert.Len(t, history.Msg.Expenses, 2)
}
