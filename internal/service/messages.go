package service

import (
	"maps"
	"slices"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/export"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

// Participant is a group member on the wire. ID is empty for members added
// by UpdateGroup.
type Participant struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Group struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Currency     string        `json:"currency"`
	Participants []Participant `json:"participants"`
	CreatedAt    int64         `json:"createdAt"`
}

type PaidFor struct {
	ParticipantID string `json:"participantId"`
	Shares        int64  `json:"shares"`
}

// ExpenseInput is the editable content of an expense. Amounts and BY_AMOUNT
// shares are minor units, BY_PERCENTAGE shares are basis points.
type ExpenseInput struct {
	ExpenseDate string    `json:"expenseDate"`
	Title       string    `json:"title"`
	Category    int64     `json:"category,omitempty"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency,omitempty"`
	PaidBy      string    `json:"paidBy"`
	PaidFor     []PaidFor `json:"paidFor"`
	SplitMode   string    `json:"splitMode"`
	ExpenseType string    `json:"expenseType,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// Expense is one version of an expense.
type Expense struct {
	ID      string `json:"id"`
	GroupID string `json:"groupId"`
	ExpenseInput
	CreatedAt     int64  `json:"createdAt"`
	CreatedBy     string `json:"createdBy,omitempty"`
	PrevVersionID string `json:"prevVersionId,omitempty"`
	NextVersionID string `json:"nextVersionId,omitempty"`
	State         string `json:"state"`

	// Summary reads "Alice updated Groceries".
	Summary string `json:"summary"`
	// Payment reads "You paid for Bob and Carol (30+70%)".
	Payment string `json:"payment"`
}

type Balance struct {
	ParticipantID string `json:"participantId"`
	Paid          int64  `json:"paid"`
	Owed          int64  `json:"owed"`
	Net           int64  `json:"net"`
}

type Reimbursement struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// CurrencyBalances is the settlement state of one currency. Currencies are
// never netted against each other.
type CurrencyBalances struct {
	Currency       string          `json:"currency"`
	Balances       []Balance       `json:"balances"`
	Reimbursements []Reimbursement `json:"reimbursements"`
	PublicBalances []Balance       `json:"publicBalances"`
	TotalSpending  int64           `json:"totalSpending"`

	// Set when the request names an active participant.
	ActiveTotalPaid  int64 `json:"activeTotalPaid,omitempty"`
	ActiveTotalShare int64 `json:"activeTotalShare,omitempty"`
}

type Activity struct {
	ID            string `json:"id"`
	GroupID       string `json:"groupId"`
	Time          int64  `json:"time"`
	Type          string `json:"type"`
	ParticipantID string `json:"participantId,omitempty"`
	ExpenseID     string `json:"expenseId,omitempty"`
	Data          string `json:"data,omitempty"`
}

type CreateGroupRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	// Participants are display names, in order.
	Participants []string `json:"participants"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type UpdateGroupRequest struct {
	GroupID      string        `json:"groupId"`
	Name         string        `json:"name"`
	Currency     string        `json:"currency"`
	Participants []Participant `json:"participants"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type GetBalancesRequest struct {
	GroupID             string `json:"groupId"`
	ActiveParticipantID string `json:"activeParticipantId,omitempty"`
}

type GetBalancesResponse struct {
	Currencies []*CurrencyBalances `json:"currencies"`
}

type ListActivitiesRequest struct {
	GroupID string `json:"groupId"`
	Offset  int    `json:"offset,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

type ListActivitiesResponse struct {
	Activities []*Activity `json:"activities"`
}

type ExportGroupRequest struct {
	GroupID string `json:"groupId"`
}

type ExportGroupResponse struct {
	Export *export.Document `json:"export"`
}

type CreateExpenseRequest struct {
	GroupID string       `json:"groupId"`
	Expense ExpenseInput `json:"expense"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type UpdateExpenseRequest struct {
	ExpenseID string       `json:"expenseId"`
	Expense   ExpenseInput `json:"expense"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
	// Changed is false when the content was identical and no version was written.
	Changed bool `json:"changed"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type DeleteExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID             string `json:"groupId"`
	Offset              int    `json:"offset,omitempty"`
	Limit               int    `json:"limit,omitempty"`
	Currency            string `json:"currency,omitempty"`
	IncludeHistory      bool   `json:"includeHistory,omitempty"`
	ActiveParticipantID string `json:"activeParticipantId,omitempty"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
	// Total counts matching rows before paging.
	Total int `json:"total"`
}

type GetExpenseRequest struct {
	ExpenseID      string `json:"expenseId"`
	IncludeHistory bool   `json:"includeHistory,omitempty"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
	// History is the whole chain, origin first, when requested.
	History []*Expense `json:"history,omitempty"`
}

func toGroup(g *models.Group) *Group {
	out := &Group{
		ID:           g.ID,
		Name:         g.Name,
		Currency:     g.Currency,
		Participants: make([]Participant, len(g.Participants)),
		CreatedAt:    g.CreatedAt,
	}
	for i, p := range g.Participants {
		out.Participants[i] = Participant{ID: p.ID, Name: p.Name}
	}
	return out
}

func toFields(groupID string, in ExpenseInput) models.ExpenseFields {
	f := models.ExpenseFields{
		GroupID:     groupID,
		ExpenseDate: in.ExpenseDate,
		Title:       in.Title,
		Category:    in.Category,
		Amount:      in.Amount,
		Currency:    in.Currency,
		PaidBy:      in.PaidBy,
		SplitMode:   models.SplitMode(in.SplitMode),
		ExpenseType: models.ExpenseType(in.ExpenseType),
		Notes:       in.Notes,
	}
	if f.ExpenseType == "" {
		f.ExpenseType = models.ExpenseTypeExpense
	}
	for _, pf := range in.PaidFor {
		f.PaidFor = append(f.PaidFor, models.PaidFor{ParticipantID: pf.ParticipantID, Shares: pf.Shares})
	}
	return f
}

// toExpense converts a row. activeID personalizes the payment string.
func toExpense(e *models.Expense, group *models.Group, activeID string) *Expense {
	out := &Expense{
		ID:      e.ID,
		GroupID: e.GroupID,
		ExpenseInput: ExpenseInput{
			ExpenseDate: e.ExpenseDate,
			Title:       e.Title,
			Category:    e.Category,
			Amount:      e.Amount,
			Currency:    e.Currency,
			PaidBy:      e.PaidBy,
			PaidFor:     make([]PaidFor, len(e.PaidFor)),
			SplitMode:   string(e.SplitMode),
			ExpenseType: string(e.ExpenseType),
			Notes:       e.Notes,
		},
		CreatedAt:     e.CreatedAt,
		CreatedBy:     models.StringValue(e.CreatedBy),
		PrevVersionID: models.StringValue(e.PrevVersionID),
		State:         string(e.State),
		Summary:       ledger.Summary(e, group),
		Payment:       ledger.PaymentString(activeID, e, group),
	}
	for i, pf := range e.PaidFor {
		out.PaidFor[i] = PaidFor{ParticipantID: pf.ParticipantID, Shares: pf.Shares}
	}
	if e.NextVersion != nil {
		out.NextVersionID = e.NextVersion.ID
	}
	return out
}

func toExpenses(rows []*models.Expense, group *models.Group, activeID string) []*Expense {
	out := make([]*Expense, len(rows))
	for i, e := range rows {
		out[i] = toExpense(e, group, activeID)
	}
	return out
}

func toActivity(a *models.Activity) *Activity {
	return &Activity{
		ID:            a.ID,
		GroupID:       a.GroupID,
		Time:          a.Time,
		Type:          string(a.Type),
		ParticipantID: models.StringValue(a.ParticipantID),
		ExpenseID:     models.StringValue(a.ExpenseID),
		Data:          a.Data,
	}
}

// toBalances lists every group member in group order, zero balances included,
// followed by anyone else in sorted order.
func toBalances(group *models.Group, balances calculator.Balances) []Balance {
	out := make([]Balance, 0, len(group.Participants))
	for _, p := range group.Participants {
		b := balances[p.ID]
		out = append(out, Balance{ParticipantID: p.ID, Paid: b.Paid, Owed: b.Owed, Net: b.Net})
	}
	for _, id := range slices.Sorted(maps.Keys(balances)) {
		if group.HasParticipant(id) {
			continue
		}
		b := balances[id]
		out = append(out, Balance{ParticipantID: id, Paid: b.Paid, Owed: b.Owed, Net: b.Net})
	}
	return out
}

func toReimbursements(rs []calculator.Reimbursement) []Reimbursement {
	out := make([]Reimbursement, len(rs))
	for i, r := range rs {
		out[i] = Reimbursement{From: r.From, To: r.To, Amount: r.Amount}
	}
	return out
}
