// Package memory provides an in-process implementation of storage.Store.
// It is used by tests and by the server when no database is configured.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps everything in maps guarded by a single mutex.
// Transactions hold the mutex for their whole duration and work on a copy of
// the state that replaces the live one on commit.
type Store struct {
	mu    sync.Mutex
	state *state
}

// New creates an empty Store.
func New() *Store {
	return &Store{state: newState()}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

type state struct {
	groups     map[string]*models.Group
	expenses   map[string]*models.Expense
	successors map[string]string // prev_version_id -> id
	order      []string          // expense IDs in insertion order
	activities []*models.Activity
}

func newState() *state {
	return &state{
		groups:     make(map[string]*models.Group),
		expenses:   make(map[string]*models.Expense),
		successors: make(map[string]string),
	}
}

func (st *state) clone() *state {
	c := &state{
		groups:     make(map[string]*models.Group, len(st.groups)),
		expenses:   make(map[string]*models.Expense, len(st.expenses)),
		successors: make(map[string]string, len(st.successors)),
		order:      slices.Clone(st.order),
		activities: slices.Clone(st.activities),
	}
	for id, g := range st.groups {
		c.groups[id] = cloneGroup(g)
	}
	for id, e := range st.expenses {
		c.expenses[id] = e.Clone()
	}
	for prev, id := range st.successors {
		c.successors[prev] = id
	}
	return c
}

func cloneGroup(g *models.Group) *models.Group {
	c := *g
	c.Participants = slices.Clone(g.Participants)
	return &c
}

func cloneActivity(a *models.Activity) *models.Activity {
	c := *a
	return &c
}

// CreateGroup stores a new group, assigning IDs where missing.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if _, ok := s.state.groups[group.ID]; ok {
		return fmt.Errorf("group already exists: %s", group.ID)
	}
	assignParticipantIDs(group)
	s.state.groups[group.ID] = cloneGroup(group)
	return nil
}

func assignParticipantIDs(group *models.Group) {
	for i := range group.Participants {
		if group.Participants[i].ID == "" {
			group.Participants[i].ID = uuid.New().String()
		}
	}
}

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getGroup(groupID)
}

func (st *state) getGroup(groupID string) (*models.Group, error) {
	g, ok := st.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return cloneGroup(g), nil
}

// ListGroups returns every group, newest first.
func (s *Store) ListGroups(ctx context.Context) ([]*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := make([]*models.Group, 0, len(s.state.groups))
	for _, g := range s.state.groups {
		groups = append(groups, cloneGroup(g))
	}
	slices.SortFunc(groups, func(a, b *models.Group) int {
		return cmp.Or(cmp.Compare(b.CreatedAt, a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return groups, nil
}

// GetExpense retrieves one expense row by ID.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.state.expenses[expenseID]
	if !ok {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return e.Clone(), nil
}

// ListExpenses returns the expense rows of a group.
func (s *Store) ListExpenses(ctx context.Context, groupID string, opts storage.ListOptions) ([]*models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.state.filterExpenses(groupID, opts)
	start, end := page(len(rows), opts)
	out := make([]*models.Expense, 0, end-start)
	for _, e := range rows[start:end] {
		out = append(out, e.Clone())
	}
	return out, nil
}

// CountExpenses counts the rows ListExpenses would return without paging.
func (s *Store) CountExpenses(ctx context.Context, groupID string, opts storage.ListOptions) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.filterExpenses(groupID, opts)), nil
}

func (st *state) filterExpenses(groupID string, opts storage.ListOptions) []*models.Expense {
	var rows []*models.Expense
	for _, id := range st.order {
		e := st.expenses[id]
		if e.GroupID != groupID {
			continue
		}
		if !opts.IncludeHistory && e.State != models.StateCurrent {
			continue
		}
		if opts.Currency != "" && e.Currency != opts.Currency {
			continue
		}
		rows = append(rows, e)
	}

	if opts.IncludeHistory {
		// Insertion order breaks ties between rows written in the same millisecond.
		slices.SortStableFunc(rows, func(a, b *models.Expense) int {
			return cmp.Compare(a.CreatedAt, b.CreatedAt)
		})
		return rows
	}
	slices.SortStableFunc(rows, func(a, b *models.Expense) int {
		return cmp.Or(
			cmp.Compare(b.ExpenseDate, a.ExpenseDate),
			cmp.Compare(b.CreatedAt, a.CreatedAt),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return rows
}

func page(n int, opts storage.ListOptions) (int, int) {
	start := min(max(opts.Offset, 0), n)
	end := n
	if opts.Limit > 0 {
		end = min(start+opts.Limit, n)
	}
	return start, end
}

// UsedCurrencies returns the distinct currencies of a group's CURRENT expenses.
func (s *Store) UsedCurrencies(ctx context.Context, groupID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var currencies []string
	for _, e := range s.state.expenses {
		if e.GroupID == groupID && e.State == models.StateCurrent && !slices.Contains(currencies, e.Currency) {
			currencies = append(currencies, e.Currency)
		}
	}
	slices.Sort(currencies)
	return currencies, nil
}

// ListActivities returns a group's activity feed, newest first.
func (s *Store) ListActivities(ctx context.Context, groupID string, opts storage.ListOptions) ([]*models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []*models.Activity
	for i := len(s.state.activities) - 1; i >= 0; i-- {
		if a := s.state.activities[i]; a.GroupID == groupID {
			rows = append(rows, a)
		}
	}
	slices.SortStableFunc(rows, func(a, b *models.Activity) int {
		return cmp.Compare(b.Time, a.Time)
	})

	start, end := page(len(rows), opts)
	out := make([]*models.Activity, 0, end-start)
	for _, a := range rows[start:end] {
		out = append(out, cloneActivity(a))
	}
	return out, nil
}

// InTx runs fn against a private copy of the state and publishes the copy only
// if fn succeeds. Store methods must not be called from inside fn.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{state: s.state.clone()}
	if err := fn(ctx, t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = t.state
	return nil
}

type tx struct {
	state *state
}

func (t *tx) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return t.state.getGroup(groupID)
}

func (t *tx) UpdateGroup(ctx context.Context, group *models.Group) error {
	existing, ok := t.state.groups[group.ID]
	if !ok {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrNotFound)
	}
	assignParticipantIDs(group)
	group.CreatedAt = existing.CreatedAt
	t.state.groups[group.ID] = cloneGroup(group)
	return nil
}

func (t *tx) ExpenseParticipants(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	add := func(id string) {
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	for _, e := range t.state.expenses {
		if e.GroupID != groupID {
			continue
		}
		for _, id := range e.ParticipantIDs() {
			add(id)
		}
		add(models.StringValue(e.CreatedBy))
	}
	slices.Sort(ids)
	return ids, nil
}

func (t *tx) LockExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	e, ok := t.state.expenses[expenseID]
	if !ok {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return e.Clone(), nil
}

func (t *tx) SupersedeExpense(ctx context.Context, expenseID string) error {
	e, ok := t.state.expenses[expenseID]
	if !ok || e.State != models.StateCurrent {
		return fmt.Errorf("expense %s is no longer current: %w", expenseID, storage.ErrConflict)
	}
	e.State = models.StateModified
	return nil
}

func (t *tx) InsertExpense(ctx context.Context, expense *models.Expense) error {
	if _, ok := t.state.groups[expense.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", expense.GroupID, storage.ErrNotFound)
	}
	if _, ok := t.state.expenses[expense.ID]; ok {
		return fmt.Errorf("expense %s already exists: %w", expense.ID, storage.ErrConflict)
	}
	if expense.PrevVersionID != nil {
		prev := *expense.PrevVersionID
		if _, ok := t.state.expenses[prev]; !ok {
			return fmt.Errorf("previous version %s: %w", prev, storage.ErrNotFound)
		}
		if _, taken := t.state.successors[prev]; taken {
			return fmt.Errorf("expense %s already has a successor: %w", prev, storage.ErrConflict)
		}
		t.state.successors[prev] = expense.ID
	}
	t.state.expenses[expense.ID] = expense.Clone()
	t.state.order = append(t.state.order, expense.ID)
	return nil
}

func (t *tx) InsertActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	t.state.activities = append(t.state.activities, cloneActivity(activity))
	return nil
}
