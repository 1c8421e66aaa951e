package calculator

import (
	"math/bits"

	"github.com/mmynk/splitledger/internal/models"
)

// Allocation is one participant's portion of a split expense.
type Allocation struct {
	ParticipantID string
	Amount        int64
}

// Allocate distributes amount across weights without creating or losing a single
// minor unit.
//
// Algorithm:
//   - walk the weights in order, tracking the unallocated remainder and the weight
//     still to be served
//   - every entry but the last receives ceil(remainder * w / remainingWeight)
//   - the last entry receives whatever is left
//
// The sum of the result always equals amount. Extra units produced by rounding go
// to the earliest entries, so {100; 1,1,1} yields {34, 33, 33}. Rounding up means
// an early entry can exceed its exact proportion by up to one unit and the last
// entry absorbs the difference: {10; 1,2} yields {4, 6}, where flooring each
// proportion would give {3, 7}. A zero total weight
// allocates nothing. Negative amounts are split on their magnitude and negated.
// Non-positive weights are treated as zero.
func Allocate(amount int64, weights []int64) []int64 {
	out := make([]int64, len(weights))

	var total uint64
	for _, w := range weights {
		if w > 0 {
			total += uint64(w)
		}
	}
	if total == 0 {
		return out
	}

	sign := int64(1)
	remaining := uint64(amount)
	if amount < 0 {
		sign = -1
		remaining = uint64(-amount)
	}

	remainingWeight := total
	last := len(weights) - 1
	for i, w := range weights {
		if i == last {
			out[i] = sign * int64(remaining)
			break
		}
		if w <= 0 {
			continue
		}
		share := ceilMulDiv(remaining, uint64(w), remainingWeight)
		out[i] = sign * int64(share)
		remaining -= share
		remainingWeight -= uint64(w)
	}
	return out
}

// ceilMulDiv returns ceil(a*b/c) using a 128-bit intermediate product.
// Callers guarantee b <= c, so the quotient never exceeds a.
func ceilMulDiv(a, b, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, rem := bits.Div64(hi, lo, c)
	if rem != 0 {
		q++
	}
	return q
}

// Weights returns the split weight of every PaidFor entry, in order.
func Weights(mode models.SplitMode, paidFor []models.PaidFor) []int64 {
	weights := make([]int64, len(paidFor))
	for i, pf := range paidFor {
		switch mode {
		case models.SplitEvenly:
			weights[i] = 1
		default:
			// BY_SHARES, BY_PERCENTAGE (basis points) and BY_AMOUNT (minor units)
			// all use the literal shares as weights.
			weights[i] = pf.Shares
		}
	}
	return weights
}

// Split allocates the expense's signed amount across its recipients.
// INCOME is negative; REIMBURSEMENT keeps its sign so that it still moves money
// between its two participants.
func Split(e *models.Expense) []Allocation {
	return splitAmount(e, signedAmount(e))
}

func splitAmount(e *models.Expense, amount int64) []Allocation {
	amounts := Allocate(amount, Weights(e.SplitMode, e.PaidFor))
	allocations := make([]Allocation, len(e.PaidFor))
	for i, pf := range e.PaidFor {
		allocations[i] = Allocation{ParticipantID: pf.ParticipantID, Amount: amounts[i]}
	}
	return allocations
}

// signedAmount is the contribution of an expense to per-participant balances.
func signedAmount(e *models.Expense) int64 {
	if e.ExpenseType == models.ExpenseTypeIncome {
		return -e.Amount
	}
	return e.Amount
}

// totalsAmount is the contribution of an expense to spending totals.
// Reimbursements are transfers, not spending.
func totalsAmount(e *models.Expense) int64 {
	switch e.ExpenseType {
	case models.ExpenseTypeReimbursement:
		return 0
	case models.ExpenseTypeIncome:
		return -e.Amount
	default:
		return e.Amount
	}
}
