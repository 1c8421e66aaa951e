package ledger

import (
	"strconv"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// Summary describes what a row did, e.g. "Alice updated Groceries".
func Summary(e *models.Expense, group *models.Group) string {
	who := "Someone"
	if name := group.ParticipantName(models.StringValue(e.CreatedBy)); name != "" {
		who = name
	}
	return who + " " + e.Action() + " " + e.Title
}

// PaymentString describes who paid for whom, from the point of view of
// activeID ("You paid for Bob and Carol (30%+70%)"). activeID may be empty.
func PaymentString(activeID string, e *models.Expense, group *models.Group) string {
	name := func(id, you string) string {
		if activeID != "" && id == activeID {
			return you
		}
		if n := group.ParticipantName(id); n != "" {
			return n
		}
		return "someone"
	}

	from := name(e.PaidBy, "You")
	you := "you"
	if from == "You" {
		you = "yourself"
	}

	split := splitDescription(e)
	var to string
	if len(e.PaidFor) > 0 && (split != "" || len(e.PaidFor) < len(group.Participants)) {
		names := make([]string, len(e.PaidFor))
		for i, pf := range e.PaidFor {
			names[i] = name(pf.ParticipantID, you)
		}
		to = joinNames(names) + split
	}

	action := "paid"
	if e.ExpenseType == models.ExpenseTypeIncome {
		action = "received"
	}
	if e.ExpenseType != models.ExpenseTypeReimbursement && to != "" {
		action += " for"
	}
	return strings.TrimSpace(from + " " + action + " " + to)
}

func splitDescription(e *models.Expense) string {
	if len(e.PaidFor) == 0 || e.SplitMode == models.SplitEvenly {
		return ""
	}
	parts := make([]string, len(e.PaidFor))
	for i, pf := range e.PaidFor {
		if e.SplitMode == models.SplitByShares {
			parts[i] = strconv.FormatInt(pf.Shares, 10)
		} else {
			parts[i] = money.FormatShares(pf.Shares)
		}
	}
	switch e.SplitMode {
	case models.SplitByPercentage:
		return " (" + strings.Join(parts, "+") + "%)"
	case models.SplitByAmount:
		return " (" + strings.Join(parts, "+") + ")"
	default:
		return " (" + strings.Join(parts, ":") + ")"
	}
}

// joinNames renders "A", "A and B", "A, B and C".
func joinNames(names []string) string {
	if len(names) <= 1 {
		return strings.Join(names, "")
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
