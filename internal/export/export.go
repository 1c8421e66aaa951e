// Package export turns a group and its live expenses into portable documents.
//
// The JSON document is also the input format of splitctl, which recomputes
// balances offline from it.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/validation"
)

// ErrInvalidDocument is returned by Decode when a document does not describe
// a consistent group.
var ErrInvalidDocument = errors.New("invalid export document")

type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PaidFor struct {
	ParticipantID string `json:"participantId"`
	Shares        int64  `json:"shares"`
}

type Expense struct {
	ID          string    `json:"id"`
	ExpenseDate string    `json:"expenseDate"`
	Title       string    `json:"title"`
	Category    int64     `json:"category"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	PaidByID    string    `json:"paidById"`
	PaidFor     []PaidFor `json:"paidFor"`
	ExpenseType string    `json:"expenseType"`
	SplitMode   string    `json:"splitMode"`
	Notes       string    `json:"notes,omitempty"`
}

// Document is a snapshot of a group's CURRENT expenses.
type Document struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Currency     string        `json:"currency"`
	ExportedAt   string        `json:"exportedAt"`
	Participants []Participant `json:"participants"`
	Expenses     []Expense     `json:"expenses"`
}

// New builds a document from a group and its CURRENT expenses.
func New(group *models.Group, expenses []*models.Expense, now time.Time) *Document {
	d := &Document{
		ID:           group.ID,
		Name:         group.Name,
		Currency:     group.Currency,
		ExportedAt:   now.UTC().Format(time.RFC3339),
		Participants: make([]Participant, 0, len(group.Participants)),
		Expenses:     make([]Expense, 0, len(expenses)),
	}
	for _, p := range group.Participants {
		d.Participants = append(d.Participants, Participant{ID: p.ID, Name: p.Name})
	}
	for _, e := range expenses {
		x := Expense{
			ID:          e.ID,
			ExpenseDate: e.ExpenseDate,
			Title:       e.Title,
			Category:    e.Category,
			Amount:      e.Amount,
			Currency:    e.Currency,
			PaidByID:    e.PaidBy,
			PaidFor:     make([]PaidFor, 0, len(e.PaidFor)),
			ExpenseType: string(e.ExpenseType),
			SplitMode:   string(e.SplitMode),
			Notes:       e.Notes,
		}
		for _, pf := range e.PaidFor {
			x.PaidFor = append(x.PaidFor, PaidFor{ParticipantID: pf.ParticipantID, Shares: pf.Shares})
		}
		d.Expenses = append(d.Expenses, x)
	}
	return d
}

// Group returns the group described by the document.
func (d *Document) Group() *models.Group {
	g := &models.Group{ID: d.ID, Name: d.Name, Currency: d.Currency}
	for _, p := range d.Participants {
		g.Participants = append(g.Participants, models.Participant{ID: p.ID, Name: p.Name})
	}
	return g
}

// Rows returns the expenses as CURRENT ledger rows.
func (d *Document) Rows() []*models.Expense {
	rows := make([]*models.Expense, 0, len(d.Expenses))
	for _, x := range d.Expenses {
		rows = append(rows, &models.Expense{
			ID:            x.ID,
			ExpenseFields: x.fields(d.ID),
			State:         models.StateCurrent,
		})
	}
	return rows
}

func (x Expense) fields(groupID string) models.ExpenseFields {
	f := models.ExpenseFields{
		GroupID:     groupID,
		ExpenseDate: x.ExpenseDate,
		Title:       x.Title,
		Category:    x.Category,
		Amount:      x.Amount,
		Currency:    x.Currency,
		PaidBy:      x.PaidByID,
		SplitMode:   models.SplitMode(x.SplitMode),
		ExpenseType: models.ExpenseType(x.ExpenseType),
		Notes:       x.Notes,
	}
	for _, pf := range x.PaidFor {
		f.PaidFor = append(f.PaidFor, models.PaidFor{ParticipantID: pf.ParticipantID, Shares: pf.Shares})
	}
	return f
}

// Currencies returns the distinct expense currencies, sorted.
func (d *Document) Currencies() []string {
	var out []string
	for _, x := range d.Expenses {
		if !slices.Contains(out, x.Currency) {
			out = append(out, x.Currency)
		}
	}
	slices.Sort(out)
	return out
}

// ByCurrency returns the rows expressed in currency.
func (d *Document) ByCurrency(currency string) []*models.Expense {
	rows := d.Rows()
	return slices.DeleteFunc(rows, func(e *models.Expense) bool { return e.Currency != currency })
}

// Encode writes the document as indented JSON.
func Encode(w io.Writer, d *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// Decode reads a JSON document and checks that every expense is valid and
// only references participants of the group.
func Decode(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}
	if err := d.check(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Document) check() error {
	group := d.Group()
	var errs []error
	for i, x := range d.Expenses {
		f := x.fields(d.ID)
		if f.GroupID == "" {
			// Documents written by hand may omit the group ID.
			f.GroupID = "-"
		}
		if err := validation.Expense(f); err != nil {
			errs = append(errs, fmt.Errorf("expense %d (%s): %w", i, x.Title, err))
			continue
		}
		for _, id := range f.ParticipantIDs() {
			if !group.HasParticipant(id) {
				errs = append(errs, fmt.Errorf("expense %d (%s): unknown participant %q", i, x.Title, id))
				break
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, errors.Join(errs...))
	}
	return nil
}

// Filename returns the download name of an export, e.g.
// "Splitledger Export - 2024-05-01.json".
func Filename(now time.Time, ext string) string {
	return fmt.Sprintf("Splitledger Export - %s.%s", now.UTC().Format(time.DateOnly), ext)
}
