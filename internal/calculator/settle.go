package calculator

import (
	"cmp"
	"slices"
	"strings"
)

// Reimbursement is a suggested payment from a debtor to a creditor.
type Reimbursement struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount int64  // Always > 0
}

// Settle suggests the reimbursements that bring every balance back to zero.
func Settle(balances Balances) []Reimbursement {
	return SettleNets(balances.Nets())
}

type netEntry struct {
	participantID string
	net           int64
}

// compareForReimbursements orders creditors before debtors and, within the same
// sign, by participant ID. It depends only on sign and ID so that executing one
// suggestion does not reshuffle the others.
func compareForReimbursements(a, b netEntry) int {
	return cmp.Or(
		cmp.Compare(signRank(a.net), signRank(b.net)),
		strings.Compare(a.participantID, b.participantID),
	)
}

func signRank(net int64) int {
	if net > 0 {
		return 0
	}
	return 1
}

// SettleNets runs the greedy pairing on raw net balances, which must sum to zero.
//
// Algorithm:
//   - drop zero balances and sort with compareForReimbursements
//   - pair the first entry (a creditor) with the last one (a debtor)
//   - transfer min(creditor, -debtor) and move both towards zero
//   - remove whoever reached zero (both if both did) and repeat while two remain
//
// At most n-1 reimbursements are produced for n non-zero balances.
func SettleNets(nets map[string]int64) []Reimbursement {
	entries := make([]netEntry, 0, len(nets))
	for id, net := range nets {
		if net != 0 {
			entries = append(entries, netEntry{participantID: id, net: net})
		}
	}
	slices.SortFunc(entries, compareForReimbursements)

	var reimbursements []Reimbursement
	for len(entries) > 1 {
		first := &entries[0]
		last := &entries[len(entries)-1]
		if first.net <= 0 || last.net >= 0 {
			// Only one side left: the input did not sum to zero.
			break
		}

		amount := min(first.net, -last.net)
		if amount > 0 {
			reimbursements = append(reimbursements, Reimbursement{
				From:   last.participantID,
				To:     first.participantID,
				Amount: amount,
			})
		}
		first.net -= amount
		last.net += amount

		if last.net == 0 {
			entries = entries[:len(entries)-1]
		}
		if len(entries) > 0 && entries[0].net == 0 {
			entries = entries[1:]
		}
	}
	return reimbursements
}
