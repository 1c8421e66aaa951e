package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

const (
	expensesSheet       = "Expenses"
	balancesSheet       = "Balances"
	reimbursementsSheet = "Reimbursements"

	// Built-in excelize number format "#,##0.00".
	amountFormat = 4
)

// WriteXLSX writes a workbook with the expenses, the balances and the
// suggested reimbursements of every currency.
func WriteXLSX(w io.Writer, d *Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", expensesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{balancesSheet, reimbursementsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: amountFormat})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	sw := sheetWriter{f: f}
	group := d.Group()

	sw.row(expensesSheet, "Date", "Title", "Amount", "Currency", "Type", "Paid by", "Paid for")
	for _, e := range d.Rows() {
		sw.row(expensesSheet,
			e.ExpenseDate,
			e.Title,
			units(e.Amount),
			e.Currency,
			string(e.ExpenseType),
			name(group, e.PaidBy),
			ledger.PaymentString("", e, group),
		)
	}

	sw.row(balancesSheet, "Currency", "Participant", "Paid", "Owed", "Net")
	sw.row(reimbursementsSheet, "Currency", "From", "To", "Amount")
	for _, currency := range d.Currencies() {
		balances := calculator.Aggregate(d.ByCurrency(currency))
		for _, p := range group.Participants {
			b, ok := balances[p.ID]
			if !ok {
				continue
			}
			sw.row(balancesSheet, currency, p.Name, units(b.Paid), units(b.Owed), units(b.Net))
		}
		for _, r := range calculator.Settle(balances) {
			sw.row(reimbursementsSheet, currency, name(group, r.From), name(group, r.To), units(r.Amount))
		}
	}
	if sw.err != nil {
		return sw.err
	}

	for sheet, cols := range map[string]string{
		expensesSheet:       "C",
		balancesSheet:       "C:E",
		reimbursementsSheet: "D",
	} {
		if err := f.SetColStyle(sheet, cols, style); err != nil {
			return fmt.Errorf("failed to style %s: %w", sheet, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// sheetWriter appends rows to sheets and keeps the first error.
type sheetWriter struct {
	f    *excelize.File
	next map[string]int
	err  error
}

func (s *sheetWriter) row(sheet string, values ...any) {
	if s.err != nil {
		return
	}
	if s.next == nil {
		s.next = make(map[string]int)
	}
	s.next[sheet]++
	cell, err := excelize.CoordinatesToCellName(1, s.next[sheet])
	if err != nil {
		s.err = err
		return
	}
	if err := s.f.SetSheetRow(sheet, cell, &values); err != nil {
		s.err = fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
	}
}

// units converts minor units to a spreadsheet number.
func units(amount int64) float64 {
	return decimal.New(amount, -2).InexactFloat64()
}

func name(group *models.Group, id string) string {
	if n := group.ParticipantName(id); n != "" {
		return n
	}
	return id
}
