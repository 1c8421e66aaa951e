package calculator

import "github.com/mmynk/splitledger/internal/models"

// Balance is one participant's position across a list of expenses.
type Balance struct {
	Paid int64 // Signed amount advanced by the participant
	Owed int64 // Sum of the participant's allocated portions
	Net  int64 // Paid - Owed. Positive = is owed money, Negative = owes money
}

// Balances maps participant ID to Balance.
type Balances map[string]Balance

// Nets returns the net balance of every participant.
func (b Balances) Nets() map[string]int64 {
	nets := make(map[string]int64, len(b))
	for id, bal := range b {
		nets[id] = bal.Net
	}
	return nets
}

// Aggregate reduces a list of expenses into per-participant balances.
//
// Algorithm:
//   - the payer accumulates the signed amount (INCOME is negative)
//   - each recipient accumulates its allocation from Split
//   - Net = Paid - Owed
//
// Reimbursements are included: they move money between two participants even
// though they are not spending. Because every split conserves its amount, the
// nets of the result always sum to zero.
func Aggregate(expenses []*models.Expense) Balances {
	paid := make(map[string]int64)
	owed := make(map[string]int64)

	for _, e := range expenses {
		paid[e.PaidBy] += signedAmount(e)
		if _, ok := owed[e.PaidBy]; !ok {
			owed[e.PaidBy] = 0
		}
		for _, a := range Split(e) {
			owed[a.ParticipantID] += a.Amount
			if _, ok := paid[a.ParticipantID]; !ok {
				paid[a.ParticipantID] = 0
			}
		}
	}

	balances := make(Balances, len(paid))
	for id, p := range paid {
		balances[id] = Balance{Paid: p, Owed: owed[id], Net: p - owed[id]}
	}
	return balances
}

// TotalGroupSpending sums the spending of a group. Income reduces it and
// reimbursements do not count.
func TotalGroupSpending(expenses []*models.Expense) int64 {
	var total int64
	for _, e := range expenses {
		total += totalsAmount(e)
	}
	return total
}

// TotalPaidBy sums the spending advanced by one participant.
func TotalPaidBy(participantID string, expenses []*models.Expense) int64 {
	var total int64
	for _, e := range expenses {
		if e.PaidBy == participantID {
			total += totalsAmount(e)
		}
	}
	return total
}

// TotalShare sums one participant's portion of the group spending.
// Expenses without spending (reimbursements) and expenses the participant is not
// part of are skipped. The portion is computed with the same allocation as
// Aggregate, applied to the spending amount, so it is exact for every split mode
// and mirrors correctly for income.
func TotalShare(participantID string, expenses []*models.Expense) int64 {
	var total int64
	for _, e := range expenses {
		amount := totalsAmount(e)
		if amount == 0 {
			continue
		}
		if _, ok := e.SharesOf(participantID); !ok {
			continue
		}
		for _, a := range splitAmount(e, amount) {
			if a.ParticipantID == participantID {
				total += a.Amount
			}
		}
	}
	return total
}

// PublicBalances rebuilds balances from a list of reimbursements: the sender owes
// and the receiver has paid. It shows what is left to settle once the suggested
// reimbursements are the only thing that matters.
func PublicBalances(reimbursements []Reimbursement) Balances {
	balances := make(Balances)
	for _, r := range reimbursements {
		from := balances[r.From]
		from.Owed += r.Amount
		from.Net -= r.Amount
		balances[r.From] = from

		to := balances[r.To]
		to.Paid += r.Amount
		to.Net += r.Amount
		balances[r.To] = to
	}
	return balances
}
