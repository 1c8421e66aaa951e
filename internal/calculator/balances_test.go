package calculator

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
)

func expense(paidBy string, amount int64, mode models.SplitMode, typ models.ExpenseType, paidFor ...models.PaidFor) *models.Expense {
	return &models.Expense{ExpenseFields: models.ExpenseFields{
		Title:       "test",
		Amount:      amount,
		Currency:    "$",
		PaidBy:      paidBy,
		PaidFor:     paidFor,
		SplitMode:   mode,
		ExpenseType: typ,
	}}
}

func pf(id string, shares int64) models.PaidFor {
	return models.PaidFor{ParticipantID: id, Shares: shares}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		expenses []*models.Expense
		want     Balances
	}{
		{
			name: "even three-way split",
			expenses: []*models.Expense{
				expense("A", 100, models.SplitEvenly, models.ExpenseTypeExpense, pf("A", 1), pf("B", 1), pf("C", 1)),
			},
			want: Balances{
				"A": {Paid: 100, Owed: 34, Net: 66},
				"B": {Paid: 0, Owed: 33, Net: -33},
				"C": {Paid: 0, Owed: 33, Net: -33},
			},
		},
		{
			name: "percentage split",
			expenses: []*models.Expense{
				expense("A", 1000, models.SplitByPercentage, models.ExpenseTypeExpense, pf("A", 3000), pf("B", 7000)),
			},
			want: Balances{
				"A": {Paid: 1000, Owed: 300, Net: 700},
				"B": {Paid: 0, Owed: 700, Net: -700},
			},
		},
		{
			name: "payer outside the split",
			expenses: []*models.Expense{
				expense("A", 50, models.SplitByShares, models.ExpenseTypeExpense, pf("B", 2), pf("C", 3)),
			},
			want: Balances{
				"A": {Paid: 50, Owed: 0, Net: 50},
				"B": {Paid: 0, Owed: 20, Net: -20},
				"C": {Paid: 0, Owed: 30, Net: -30},
			},
		},
		{
			name: "income is mirrored",
			expenses: []*models.Expense{
				expense("A", 200, models.SplitEvenly, models.ExpenseTypeIncome, pf("A", 1), pf("B", 1)),
			},
			want: Balances{
				"A": {Paid: -200, Owed: -100, Net: -100},
				"B": {Paid: 0, Owed: -100, Net: 100},
			},
		},
		{
			name: "reimbursement moves money",
			expenses: []*models.Expense{
				expense("A", 100, models.SplitEvenly, models.ExpenseTypeExpense, pf("A", 1), pf("B", 1)),
				expense("B", 50, models.SplitEvenly, models.ExpenseTypeReimbursement, pf("A", 1)),
			},
			want: Balances{
				"A": {Paid: 100, Owed: 100, Net: 0},
				"B": {Paid: 50, Owed: 50, Net: 0},
			},
		},
		{
			name:     "no expenses",
			expenses: nil,
			want:     Balances{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.expenses))
		})
	}
}

func randomExpenses(rng *rand.Rand, ids []string, n int) []*models.Expense {
	modes := []models.SplitMode{models.SplitEvenly, models.SplitByShares, models.SplitByPercentage, models.SplitByAmount}
	types := []models.ExpenseType{models.ExpenseTypeExpense, models.ExpenseTypeIncome, models.ExpenseTypeReimbursement}

	expenses := make([]*models.Expense, 0, n)
	for i := 0; i < n; i++ {
		mode := modes[rng.IntN(len(modes))]
		typ := types[rng.IntN(len(types))]
		amount := 1 + rng.Int64N(1_000_000)
		payer := ids[rng.IntN(len(ids))]

		perm := rng.Perm(len(ids))
		k := 1 + rng.IntN(len(ids))
		paidFor := make([]models.PaidFor, k)
		weights := make([]int64, k)
		for j := 0; j < k; j++ {
			weights[j] = 1 + rng.Int64N(100)
		}
		switch mode {
		case models.SplitByPercentage:
			weights = Allocate(10000, weights)
		case models.SplitByAmount:
			weights = Allocate(amount, weights)
		}
		for j := 0; j < k; j++ {
			paidFor[j] = pf(ids[perm[j]], weights[j])
		}
		expenses = append(expenses, expense(payer, amount, mode, typ, paidFor...))
	}
	return expenses
}

func TestAggregate_NetsSumToZero(t *testing.T) {
	rng := rand.New(rand.NewPCG(2024, 11))
	ids := []string{"A", "B", "C", "D", "E", "F"}

	for round := 0; round < 300; round++ {
		expenses := randomExpenses(rng, ids, 1+rng.IntN(20))
		balances := Aggregate(expenses)

		var total int64
		for id, b := range balances {
			require.Equal(t, b.Paid-b.Owed, b.Net, "participant %s", id)
			total += b.Net
		}
		require.Zero(t, total, "round %d", round)
	}
}

func TestTotals(t *testing.T) {
	expenses := []*models.Expense{
		expense("A", 900, models.SplitEvenly, models.ExpenseTypeExpense, pf("A", 1), pf("B", 1), pf("C", 1)),
		expense("B", 300, models.SplitByAmount, models.ExpenseTypeExpense, pf("A", 100), pf("B", 200)),
		expense("C", 200, models.SplitEvenly, models.ExpenseTypeIncome, pf("A", 1), pf("C", 1)),
		expense("B", 150, models.SplitEvenly, models.ExpenseTypeReimbursement, pf("A", 1)),
	}

	assert.Equal(t, int64(1000), TotalGroupSpending(expenses))

	assert.Equal(t, int64(900), TotalPaidBy("A", expenses))
	assert.Equal(t, int64(300), TotalPaidBy("B", expenses))
	assert.Equal(t, int64(-200), TotalPaidBy("C", expenses))

	// A: 300 + 100 - 100, B: 300 + 200, C: 300 - 100
	assert.Equal(t, int64(300), TotalShare("A", expenses))
	assert.Equal(t, int64(500), TotalShare("B", expenses))
	assert.Equal(t, int64(200), TotalShare("C", expenses))
	assert.Zero(t, TotalShare("Z", expenses))
}

func TestTotalShare_SumsToGroupSpending(t *testing.T) {
	rng := rand.New(rand.NewPCG(99, 3))
	ids := []string{"A", "B", "C", "D"}

	for round := 0; round < 300; round++ {
		expenses := randomExpenses(rng, ids, 1+rng.IntN(15))

		var shares, paid int64
		for _, id := range ids {
			shares += TotalShare(id, expenses)
			paid += TotalPaidBy(id, expenses)
		}
		total := TotalGroupSpending(expenses)
		require.Equal(t, total, shares, "round %d", round)
		require.Equal(t, total, paid, "round %d", round)
	}
}

func TestPublicBalances(t *testing.T) {
	got := PublicBalances([]Reimbursement{
		{From: "C", To: "A", Amount: 30},
		{From: "C", To: "B", Amount: 10},
	})
	assert.Equal(t, Balances{
		"A": {Paid: 30, Net: 30},
		"B": {Paid: 10, Net: 10},
		"C": {Owed: 40, Net: -40},
	}, got)
}
