package models

import "slices"

// ExpenseType determines the sign of an expense and how it counts towards totals.
type ExpenseType string

const (
	// ExpenseTypeExpense is money spent on behalf of the PaidFor participants.
	ExpenseTypeExpense ExpenseType = "EXPENSE"
	// ExpenseTypeIncome is money received on behalf of the PaidFor participants.
	// It reduces group spending.
	ExpenseTypeIncome ExpenseType = "INCOME"
	// ExpenseTypeReimbursement moves money between two participants. It changes
	// who owes whom but is not spending.
	ExpenseTypeReimbursement ExpenseType = "REIMBURSEMENT"
)

// Valid reports whether t is a known expense type.
func (t ExpenseType) Valid() bool {
	switch t {
	case ExpenseTypeExpense, ExpenseTypeIncome, ExpenseTypeReimbursement:
		return true
	}
	return false
}

// SplitMode determines how an amount is distributed across PaidFor.
type SplitMode string

const (
	// SplitEvenly gives every PaidFor entry the same weight.
	SplitEvenly SplitMode = "EVENLY"
	// SplitByShares weighs each entry by its Shares.
	SplitByShares SplitMode = "BY_SHARES"
	// SplitByPercentage reads Shares as basis points out of 10000.
	SplitByPercentage SplitMode = "BY_PERCENTAGE"
	// SplitByAmount reads Shares as an absolute amount in minor units.
	SplitByAmount SplitMode = "BY_AMOUNT"
)

// Valid reports whether m is a known split mode.
func (m SplitMode) Valid() bool {
	switch m {
	case SplitEvenly, SplitByShares, SplitByPercentage, SplitByAmount:
		return true
	}
	return false
}

// ExpenseState is the lifecycle flag of one physical expense row.
type ExpenseState string

const (
	// StateCurrent marks the live version of a chain. At most one per chain.
	StateCurrent ExpenseState = "CURRENT"
	// StateModified marks a row that has been superseded by a newer version.
	StateModified ExpenseState = "MODIFIED"
	// StateDeleted marks the terminal row of a deleted chain.
	StateDeleted ExpenseState = "DELETED"
)

// PaidFor is one recipient of an expense and its weight.
// The meaning of Shares depends on the expense's SplitMode.
type PaidFor struct {
	ParticipantID string
	Shares        int64
}

// ExpenseFields is the user-editable content of an expense.
// Two rows with equal fields describe the same expense.
type ExpenseFields struct {
	// GroupID is the group the expense belongs to.
	GroupID string

	// ExpenseDate is the calendar day of the expense (YYYY-MM-DD).
	ExpenseDate string

	// Title is a short description (e.g., "Groceries").
	Title string

	// Category is an opaque category identifier. 0 means uncategorized.
	Category int64

	// Amount is the non-negative total in minor units.
	Amount int64

	// Currency is the code or symbol the amount is expressed in.
	Currency string

	// PaidBy is the participant who advanced the money.
	PaidBy string

	// PaidFor lists the recipients in stored order. Order is significant:
	// the last entry absorbs the rounding remainder.
	PaidFor []PaidFor

	SplitMode   SplitMode
	ExpenseType ExpenseType

	// Notes is optional free text.
	Notes string
}

// Clone returns a deep copy of the fields.
func (f ExpenseFields) Clone() ExpenseFields {
	f.PaidFor = slices.Clone(f.PaidFor)
	return f
}

// ParticipantIDs returns the payer followed by every recipient.
func (f ExpenseFields) ParticipantIDs() []string {
	ids := make([]string, 0, len(f.PaidFor)+1)
	ids = append(ids, f.PaidBy)
	for _, pf := range f.PaidFor {
		ids = append(ids, pf.ParticipantID)
	}
	return ids
}

// SharesOf returns the recipient entry for a participant.
func (f ExpenseFields) SharesOf(participantID string) (PaidFor, bool) {
	for _, pf := range f.PaidFor {
		if pf.ParticipantID == participantID {
			return pf, true
		}
	}
	return PaidFor{}, false
}

// Expense is one physical row of an expense chain.
type Expense struct {
	// ID is unique per row; every edit creates a new row with a new ID.
	ID string

	ExpenseFields

	// CreatedAt is the Unix time in milliseconds when this row was written.
	CreatedAt int64

	// CreatedBy is the participant who wrote this row, if known.
	CreatedBy *string

	// PrevVersionID points at the row this one supersedes. Nil for the origin.
	PrevVersionID *string

	State ExpenseState

	// PrevVersion and NextVersion are resolved by history views only.
	// They are never persisted.
	PrevVersion *Expense
	NextVersion *Expense
}

// Clone returns a deep copy of the row without its resolved links.
func (e *Expense) Clone() *Expense {
	c := *e
	c.ExpenseFields = e.ExpenseFields.Clone()
	if e.CreatedBy != nil {
		v := *e.CreatedBy
		c.CreatedBy = &v
	}
	if e.PrevVersionID != nil {
		v := *e.PrevVersionID
		c.PrevVersionID = &v
	}
	c.PrevVersion = nil
	c.NextVersion = nil
	return &c
}

// IsOrigin reports whether the row starts a chain.
func (e *Expense) IsOrigin() bool {
	return e.PrevVersionID == nil
}

// Action describes what this row did to its chain: "created", "updated" or "deleted".
func (e *Expense) Action() string {
	switch {
	case e.State == StateDeleted:
		return "deleted"
	case e.PrevVersionID != nil:
		return "updated"
	default:
		return "created"
	}
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
