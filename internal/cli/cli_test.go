package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mmynk/splitledger/internal/export"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/memory"
)

// sampleDocument: Alice paid 30 EUR for everyone, Bob paid 20 USD for Carol.
func sampleDocument() *export.Document {
	group := &models.Group{
		ID:       "g1",
		Name:     "Ski trip",
		Currency: "EUR",
		Participants: []models.Participant{
			{ID: "a", Name: "Alice"},
			{ID: "b", Name: "Bob"},
			{ID: "c", Name: "Carol"},
		},
	}
	expenses := []*models.Expense{
		{
			ID: "e1",
			ExpenseFields: models.ExpenseFields{
				GroupID: "g1", ExpenseDate: "2024-05-01", Title: "Dinner", Amount: 3000, Currency: "EUR",
				PaidBy:      "a",
				PaidFor:     []models.PaidFor{{ParticipantID: "a", Shares: 1}, {ParticipantID: "b", Shares: 1}, {ParticipantID: "c", Shares: 1}},
				SplitMode:   models.SplitEvenly,
				ExpenseType: models.ExpenseTypeExpense,
			},
			State: models.StateCurrent,
		},
		{
			ID: "e2",
			ExpenseFields: models.ExpenseFields{
				GroupID: "g1", ExpenseDate: "2024-05-02", Title: "Museum", Amount: 2000, Currency: "USD",
				PaidBy:      "b",
				PaidFor:     []models.PaidFor{{ParticipantID: "c", Shares: 2000}},
				SplitMode:   models.SplitByAmount,
				ExpenseType: models.ExpenseTypeExpense,
			},
			State: models.StateCurrent,
		},
	}
	return export.New(group, expenses, time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC))
}

func writeDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, export.Encode(f, sampleDocument()))
	require.NoError(t, f.Close())
	return path
}

func run(t *testing.T, args ...string) (subcommands.ExitStatus, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	status := Main(context.Background(), "splitctl", args, &stdout, &stderr)
	return status, stdout.String(), stderr.String()
}

func TestBalancesMarkdown(t *testing.T) {
	md := BalancesMarkdown(sampleDocument(), "")

	assert.Contains(t, md, "# Ski trip")
	assert.Contains(t, md, "## Balances (EUR)")
	assert.Contains(t, md, "## Balances (USD)")
	assert.Contains(t, md, "| Alice | "+money.Format("EUR", 3000)+" | "+money.Format("EUR", 1000)+" | "+money.Format("EUR", 2000)+" |")
	assert.Contains(t, md, "| Carol | "+money.Format("USD", 0)+" | "+money.Format("USD", 2000)+" | "+money.Format("USD", -2000)+" |")

	only := BalancesMarkdown(sampleDocument(), "USD")
	assert.NotContains(t, only, "(EUR)")

	none := BalancesMarkdown(sampleDocument(), "GBP")
	assert.Contains(t, none, "No expenses.")
}

func TestSettleMarkdown(t *testing.T) {
	md := SettleMarkdown(sampleDocument(), "")

	assert.Contains(t, md, "- **Carol** pays **Alice** "+money.Format("EUR", 1000))
	assert.Contains(t, md, "- **Bob** pays **Alice** "+money.Format("EUR", 1000))
	assert.Contains(t, md, "- **Carol** pays **Bob** "+money.Format("USD", 2000))
}

func TestSettleMarkdown_SettledGroup(t *testing.T) {
	doc := sampleDocument()
	doc.Expenses = append(doc.Expenses, export.Expense{
		ID: "e3", ExpenseDate: "2024-05-03", Title: "Payback", Amount: 2000, Currency: "USD",
		PaidByID:    "c",
		PaidFor:     []export.PaidFor{{ParticipantID: "b", Shares: 1}},
		SplitMode:   string(models.SplitEvenly),
		ExpenseType: string(models.ExpenseTypeReimbursement),
	})

	md := SettleMarkdown(doc, "USD")
	assert.Contains(t, md, "All settled up.")
}

func TestTotalsMarkdown(t *testing.T) {
	md, err := TotalsMarkdown(sampleDocument(), "")
	require.NoError(t, err)
	assert.Contains(t, md, "| EUR | "+money.Format("EUR", 3000)+" |")

	md, err = TotalsMarkdown(sampleDocument(), "bob")
	require.NoError(t, err)
	assert.Contains(t, md, "Paid by Bob")
	assert.Contains(t, md, "| EUR | "+money.Format("EUR", 3000)+" | "+money.Format("EUR", 0)+" | "+money.Format("EUR", 1000)+" |")
	assert.Contains(t, md, "| USD | "+money.Format("USD", 2000)+" | "+money.Format("USD", 2000)+" | "+money.Format("USD", 0)+" |")

	_, err = TotalsMarkdown(sampleDocument(), "Dave")
	assert.ErrorContains(t, err, `no participant named "Dave"`)
}

func TestMain_Reports(t *testing.T) {
	path := writeDocument(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "balances", args: []string{"-plain", "-file", path, "balances", "-c", "EUR"}, want: "## Balances (EUR)"},
		{name: "settle", args: []string{"-plain", "-file", path, "settle"}, want: "- **Carol** pays **Bob**"},
		{name: "totals", args: []string{"-plain", "-file", path, "totals", "-p", "Alice"}, want: "Paid by Alice"},
		{name: "rendered", args: []string{"-file", path, "balances"}, want: "Alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, stdout, stderr := run(t, tt.args...)
			require.Equal(t, subcommands.ExitSuccess, status, stderr)
			assert.Contains(t, stdout, tt.want)
		})
	}
}

func TestMain_Errors(t *testing.T) {
	path := writeDocument(t)

	invalid := filepath.Join(t.TempDir(), "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"id":"g","participants":[{"id":"a","name":"Alice"}],"expenses":[{"title":"Taxi","expenseDate":"2024-05-01","amount":100,"currency":"EUR","paidById":"z","paidFor":[{"participantId":"a","shares":1}],"splitMode":"EVENLY","expenseType":"EXPENSE"}]}`), 0o644))

	tests := []struct {
		name   string
		args   []string
		status subcommands.ExitStatus
		stderr string
	}{
		{name: "missing file", args: []string{"-file", filepath.Join(t.TempDir(), "nope.json"), "balances"}, status: subcommands.ExitFailure, stderr: "failed to open export"},
		{name: "invalid document", args: []string{"-file", invalid, "settle"}, status: subcommands.ExitFailure, stderr: "unknown participant"},
		{name: "unknown participant", args: []string{"-file", path, "totals", "-p", "Zoe"}, status: subcommands.ExitFailure, stderr: `no participant named "Zoe"`},
		{name: "fetch without group", args: []string{"fetch"}, status: subcommands.ExitUsageError, stderr: "-g is required"},
		{name: "unknown flag", args: []string{"-verbose"}, status: subcommands.ExitUsageError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _, stderr := run(t, tt.args...)
			assert.Equal(t, tt.status, status)
			assert.Contains(t, stderr, tt.stderr)
		})
	}
}

func TestMain_XLSX(t *testing.T) {
	path := writeDocument(t)
	output := filepath.Join(t.TempDir(), "trip.xlsx")

	status, stdout, stderr := run(t, "-file", path, "xlsx", "-o", output)
	require.Equal(t, subcommands.ExitSuccess, status, stderr)
	assert.Contains(t, stdout, "Wrote "+output)

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Expenses", "Balances", "Reimbursements"}, f.GetSheetList())
}

func TestMain_Fetch(t *testing.T) {
	store := memory.New()
	l := ledger.New(store)
	groupSvc := service.NewGroupService(store, l)
	groupPath, groupHandler := service.NewGroupServiceHandler(groupSvc)
	expensePath, expenseHandler := service.NewExpenseServiceHandler(service.NewExpenseService(store, l))
	mux := http.NewServeMux()
	mux.Handle(groupPath, groupHandler)
	mux.Handle(expensePath, expenseHandler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	ctx := context.Background()
	groups := service.NewGroupServiceClient(http.DefaultClient, server.URL)
	created, err := groups.CreateGroup(ctx, connect.NewRequest(&service.CreateGroupRequest{
		Name:         "Flat",
		Currency:     "EUR",
		Participants: []string{"Alice", "Bob"},
	}))
	require.NoError(t, err)
	group := created.Msg.Group

	expenses := service.NewExpenseServiceClient(http.DefaultClient, server.URL)
	_, err = expenses.CreateExpense(ctx, connect.NewRequest(&service.CreateExpenseRequest{
		GroupID: group.ID,
		Expense: service.ExpenseInput{
			ExpenseDate: "2024-05-01",
			Title:       "Rent",
			Amount:      100000,
			PaidBy:      group.Participants[0].ID,
			PaidFor: []service.PaidFor{
				{ParticipantID: group.Participants[0].ID, Shares: 1},
				{ParticipantID: group.Participants[1].ID, Shares: 1},
			},
			SplitMode: string(models.SplitEvenly),
		},
	}))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "flat.json")
	status, stdout, stderr := run(t, "-file", path, "fetch", "-server", server.URL, "-g", group.ID)
	require.Equal(t, subcommands.ExitSuccess, status, stderr)
	assert.Contains(t, stdout, "Saved Flat (1 expenses)")

	status, stdout, stderr = run(t, "-plain", "-file", path, "settle")
	require.Equal(t, subcommands.ExitSuccess, status, stderr)
	assert.Contains(t, stdout, "- **Bob** pays **Alice** "+money.Format("EUR", 50000))

	status, _, stderr = run(t, "-file", path, "fetch", "-server", server.URL, "-g", "missing")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, stderr, "failed to export group")
}
