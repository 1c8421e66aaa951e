package ledger

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/mmynk/splitledger/internal/models"
)

// History is an arena of expense rows indexed both ways: by ID for the backward
// link (PrevVersionID) and by predecessor ID for the forward link.
// Rows are never followed through live pointers, so a corrupt chain cannot loop.
type History struct {
	rows     []*models.Expense
	byID     map[string]*models.Expense
	byPrevID map[string]*models.Expense
	depth    map[string]int

	// forks records predecessors claimed by more than one row.
	forks []string
}

// NewHistory indexes rows. The rows are annotated in place with their resolved
// PrevVersion and NextVersion.
func NewHistory(rows []*models.Expense) *History {
	h := &History{
		rows:     rows,
		byID:     make(map[string]*models.Expense, len(rows)),
		byPrevID: make(map[string]*models.Expense, len(rows)),
		depth:    make(map[string]int, len(rows)),
	}
	for _, e := range rows {
		h.byID[e.ID] = e
	}
	for _, e := range rows {
		if e.PrevVersionID == nil {
			continue
		}
		if _, taken := h.byPrevID[*e.PrevVersionID]; taken {
			h.forks = append(h.forks, *e.PrevVersionID)
			continue
		}
		h.byPrevID[*e.PrevVersionID] = e
	}
	for _, e := range rows {
		e.PrevVersion = h.Prev(e)
		e.NextVersion = h.Next(e)
		h.depth[e.ID] = h.walkDepth(e)
	}
	return h
}

// Get returns the row with the given ID.
func (h *History) Get(id string) (*models.Expense, bool) {
	e, ok := h.byID[id]
	return e, ok
}

// Prev returns the row e supersedes, or nil for an origin.
func (h *History) Prev(e *models.Expense) *models.Expense {
	if e.PrevVersionID == nil {
		return nil
	}
	return h.byID[*e.PrevVersionID]
}

// Next returns the row that supersedes e, or nil for a tip.
func (h *History) Next(e *models.Expense) *models.Expense {
	return h.byPrevID[e.ID]
}

// walkDepth counts predecessors, or returns -1 if the walk loops.
func (h *History) walkDepth(e *models.Expense) int {
	depth := 0
	for p := h.Prev(e); p != nil; p = h.Prev(p) {
		depth++
		if depth > len(h.rows) {
			return -1
		}
	}
	return depth
}

// Rows returns every row ordered by creation time, oldest first. Rows written
// in the same millisecond keep chain order.
func (h *History) Rows() []*models.Expense {
	out := slices.Clone(h.rows)
	slices.SortStableFunc(out, func(a, b *models.Expense) int {
		return cmp.Or(
			cmp.Compare(a.CreatedAt, b.CreatedAt),
			cmp.Compare(h.depth[a.ID], h.depth[b.ID]),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out
}

// Origin returns the first row of the chain containing id.
func (h *History) Origin(id string) (*models.Expense, bool) {
	e, ok := h.byID[id]
	if !ok {
		return nil, false
	}
	for steps := 0; e.PrevVersionID != nil; steps++ {
		p := h.Prev(e)
		if p == nil || steps > len(h.rows) {
			break
		}
		e = p
	}
	return e, true
}

// Chain returns the chain containing id, origin first, tip last.
func (h *History) Chain(id string) []*models.Expense {
	origin, ok := h.Origin(id)
	if !ok {
		return nil
	}
	var chain []*models.Expense
	for e := origin; e != nil && len(chain) <= len(h.rows); e = h.Next(e) {
		chain = append(chain, e)
	}
	return chain
}

// Tip returns the last row of the chain containing id.
func (h *History) Tip(id string) (*models.Expense, bool) {
	chain := h.Chain(id)
	if len(chain) == 0 {
		return nil, false
	}
	return chain[len(chain)-1], true
}

// Origins returns the first row of every chain, in Rows order.
func (h *History) Origins() []*models.Expense {
	var origins []*models.Expense
	for _, e := range h.Rows() {
		if e.PrevVersionID == nil {
			origins = append(origins, e)
		}
	}
	return origins
}

// Verify checks the structural guarantees of every chain:
//   - every predecessor exists and has at most one successor
//   - following predecessors always ends at an origin
//   - rows before the tip are MODIFIED
//   - the tip is CURRENT or DELETED, so a chain has at most one CURRENT row
//     and a DELETED row is always terminal
func (h *History) Verify() error {
	var errs []error
	for _, id := range h.forks {
		errs = append(errs, fmt.Errorf("row %s has more than one successor", id))
	}
	for _, e := range h.rows {
		if e.PrevVersionID != nil && h.Prev(e) == nil {
			errs = append(errs, fmt.Errorf("row %s points at missing row %s", e.ID, *e.PrevVersionID))
		}
		if h.depth[e.ID] < 0 {
			errs = append(errs, fmt.Errorf("row %s is part of a cycle", e.ID))
			continue
		}

		tip := h.Next(e) == nil
		switch {
		case tip && e.State == models.StateModified:
			errs = append(errs, fmt.Errorf("row %s is MODIFIED but has no successor", e.ID))
		case !tip && e.State != models.StateModified:
			errs = append(errs, fmt.Errorf("row %s is %s but has a successor", e.ID, e.State))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrCorruptHistory, errors.Join(errs...))
}
