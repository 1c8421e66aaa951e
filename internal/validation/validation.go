// Package validation checks user input before it reaches the ledger.
//
// Field rules are struct tags evaluated by go-playground/validator. Rules that
// span several fields (split totals, reimbursement recipients, unique names)
// are registered as struct-level validations.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// ErrValidation is matched by every error returned from this package.
var ErrValidation = errors.New("validation failed")

// FieldError describes one invalid field, e.g. {"paidFor[1].shares", "must be at least 1"}.
type FieldError struct {
	Field   string
	Message string
}

// Errors is the list of problems found in one input.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e Errors) Unwrap() error {
	return ErrValidation
}

type paidForForm struct {
	ParticipantID string `json:"participant" validate:"required"`
	Shares        int64  `json:"shares" validate:"gte=1"`
}

type expenseForm struct {
	GroupID     string        `json:"groupId" validate:"required"`
	ExpenseDate string        `json:"expenseDate" validate:"required,datetime=2006-01-02"`
	Title       string        `json:"title" validate:"min=2,max=200"`
	Category    int64         `json:"category" validate:"gte=0"`
	Amount      int64         `json:"amount" validate:"gt=0,max_amount"`
	Currency    string        `json:"currency" validate:"min=1,max=5"`
	PaidBy      string        `json:"paidBy" validate:"required"`
	PaidFor     []paidForForm `json:"paidFor" validate:"min=1,unique=ParticipantID,dive"`
	SplitMode   string        `json:"splitMode" validate:"oneof=EVENLY BY_SHARES BY_PERCENTAGE BY_AMOUNT"`
	ExpenseType string        `json:"expenseType" validate:"oneof=EXPENSE INCOME REIMBURSEMENT"`
	Notes       string        `json:"notes" validate:"max=1000"`
}

type participantForm struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"min=2,max=50"`
}

type groupForm struct {
	Name         string            `json:"name" validate:"min=2,max=50"`
	Currency     string            `json:"currency" validate:"min=1,max=5"`
	Participants []participantForm `json:"participants" validate:"min=1,dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("max_amount", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= money.MaxAmount
	})
	v.RegisterStructValidation(expenseRules, expenseForm{})
	v.RegisterStructValidation(groupRules, groupForm{})
	return v
}

func expenseRules(sl validator.StructLevel) {
	e := sl.Current().Interface().(expenseForm)

	var sum int64
	for _, pf := range e.PaidFor {
		sum += pf.Shares
	}
	switch models.SplitMode(e.SplitMode) {
	case models.SplitByAmount:
		if sum != e.Amount {
			sl.ReportError(e.PaidFor, "paidFor", "PaidFor", "sum_amount", gap(sum, e.Amount, ""))
		}
	case models.SplitByPercentage:
		if sum != money.FullPercent {
			sl.ReportError(e.PaidFor, "paidFor", "PaidFor", "sum_percent", gap(sum, money.FullPercent, "%"))
		}
	}

	if models.ExpenseType(e.ExpenseType) == models.ExpenseTypeReimbursement {
		for _, pf := range e.PaidFor {
			if pf.ParticipantID == e.PaidBy {
				sl.ReportError(e.PaidFor, "paidFor", "PaidFor", "payer_not_recipient", "")
				break
			}
		}
	}
}

// gap renders "12.5 missing" or "3 surplus".
func gap(sum, want int64, suffix string) string {
	if sum < want {
		return money.FormatShares(want-sum) + suffix + " missing"
	}
	return money.FormatShares(sum-want) + suffix + " surplus"
}

func groupRules(sl validator.StructLevel) {
	g := sl.Current().Interface().(groupForm)
	for i, p := range g.Participants {
		for _, other := range g.Participants[:i] {
			if other.Name == p.Name {
				sl.ReportError(p.Name, fmt.Sprintf("participants[%d].name", i), "Name", "unique_name", "")
				break
			}
		}
	}
}

// Expense validates the editable content of an expense.
func Expense(f models.ExpenseFields) error {
	form := expenseForm{
		GroupID:     f.GroupID,
		ExpenseDate: f.ExpenseDate,
		Title:       f.Title,
		Category:    f.Category,
		Amount:      f.Amount,
		Currency:    f.Currency,
		PaidBy:      f.PaidBy,
		SplitMode:   string(f.SplitMode),
		ExpenseType: string(f.ExpenseType),
		Notes:       f.Notes,
	}
	for _, pf := range f.PaidFor {
		form.PaidFor = append(form.PaidFor, paidForForm{ParticipantID: pf.ParticipantID, Shares: pf.Shares})
	}
	return check(form)
}

// Group validates a group and its participants.
func Group(g *models.Group) error {
	form := groupForm{Name: g.Name, Currency: g.Currency}
	for _, p := range g.Participants {
		form.Participants = append(form.Participants, participantForm{ID: p.ID, Name: p.Name})
	}
	return check(form)
}

func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return out
}

// fieldPath drops the struct name from the namespace: "expenseForm.paidFor[0].shares"
// becomes "paidFor[0].shares".
func fieldPath(fe validator.FieldError) string {
	_, path, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}
	return path
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isString {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must contain at least " + fe.Param() + " entries"
	case "max":
		if isString {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must contain at most " + fe.Param() + " entries"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "max_amount":
		return "must be at most " + money.FormatShares(money.MaxAmount)
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "unique":
		return "must not list the same participant twice"
	case "datetime":
		return "must be a date formatted as YYYY-MM-DD"
	case "sum_amount":
		return "amounts must add up to the expense amount (" + fe.Param() + ")"
	case "sum_percent":
		return "percentages must add up to 100 (" + fe.Param() + ")"
	case "payer_not_recipient":
		return "the payer of a reimbursement must not be one of its recipients"
	case "unique_name":
		return "another participant already has this name"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
