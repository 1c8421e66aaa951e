package ledger

import (
	"slices"

	"github.com/mmynk/splitledger/internal/models"
)

// sameContent reports whether two versions describe the same expense.
// Row metadata (ID, timestamps, author, state, links) is not part of
// ExpenseFields and never matters. PaidFor is compared in stored order, since
// the order decides who absorbs the rounding remainder.
func sameContent(a, b models.ExpenseFields) bool {
	return a.GroupID == b.GroupID &&
		a.ExpenseDate == b.ExpenseDate &&
		a.Title == b.Title &&
		a.Category == b.Category &&
		a.Amount == b.Amount &&
		a.Currency == b.Currency &&
		a.PaidBy == b.PaidBy &&
		a.SplitMode == b.SplitMode &&
		a.ExpenseType == b.ExpenseType &&
		a.Notes == b.Notes &&
		slices.Equal(a.PaidFor, b.PaidFor)
}
