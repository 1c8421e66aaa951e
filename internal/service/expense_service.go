package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/validation"
)

// ExpenseService implements the Connect ExpenseService on top of the ledger.
// The acting participant, if any, is taken from the request context.
type ExpenseService struct {
	store  storage.Store
	ledger *ledger.Ledger
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store storage.Store, l *ledger.Ledger) *ExpenseService {
	return &ExpenseService{store: store, ledger: l}
}

// CreateExpense records a new expense. An empty currency defaults to the
// group's currency.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	slog.Info("CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"title", req.Msg.Expense.Title,
		"amount", req.Msg.Expense.Amount,
	)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("CreateExpense failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	fields := toFields(group.ID, req.Msg.Expense)
	if fields.Currency == "" {
		fields.Currency = group.Currency
	}
	if err := validation.Expense(fields); err != nil {
		slog.Warn("CreateExpense rejected", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	participantID := middleware.GetParticipantID(ctx)
	created, err := s.ledger.Create(ctx, fields, participantID)
	if err != nil {
		slog.Error("CreateExpense failed", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Expense created", "expense_id", created.ID, "group_id", group.ID)

	return connect.NewResponse(&CreateExpenseResponse{
		Expense: toExpense(created, group, participantID),
	}), nil
}

// UpdateExpense writes a new version of a live expense. Updating a version
// that has been superseded or deleted fails with CodeAborted.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	slog.Info("UpdateExpense request received", "expense_id", req.Msg.ExpenseID)

	old, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.Error("UpdateExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, connectError(err)
	}

	fields := toFields(old.GroupID, req.Msg.Expense)
	if fields.Currency == "" {
		fields.Currency = old.Currency
	}
	if err := validation.Expense(fields); err != nil {
		slog.Warn("UpdateExpense rejected", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, connectError(err)
	}

	participantID := middleware.GetParticipantID(ctx)
	updated, err := s.ledger.Update(ctx, req.Msg.ExpenseID, fields, participantID)
	if err != nil {
		slog.Error("UpdateExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, connectError(err)
	}

	group, err := s.store.GetGroup(ctx, updated.GroupID)
	if err != nil {
		slog.Error("UpdateExpense failed", "group_id", updated.GroupID, "error", err)
		return nil, connectError(err)
	}

	changed := updated.ID != req.Msg.ExpenseID
	slog.Info("UpdateExpense successful", "expense_id", updated.ID, "changed", changed)

	return connect.NewResponse(&UpdateExpenseResponse{
		Expense: toExpense(updated, group, participantID),
		Changed: changed,
	}), nil
}

// DeleteExpense ends the chain of a live expense and returns the DELETED row.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	participantID := middleware.GetParticipantID(ctx)
	deleted, err := s.ledger.Delete(ctx, req.Msg.ExpenseID, participantID)
	if err != nil {
		slog.Error("DeleteExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, connectError(err)
	}

	group, err := s.store.GetGroup(ctx, deleted.GroupID)
	if err != nil {
		slog.Error("DeleteExpense failed", "group_id", deleted.GroupID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Expense deleted", "expense_id", req.Msg.ExpenseID, "deleted_row", deleted.ID)

	return connect.NewResponse(&DeleteExpenseResponse{
		Expense: toExpense(deleted, group, participantID),
	}), nil
}

// ListExpenses returns the live expenses of a group or, with IncludeHistory,
// every version with its neighbours linked.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	slog.Info("ListExpenses request received",
		"group_id", req.Msg.GroupID,
		"include_history", req.Msg.IncludeHistory,
	)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	opts := storage.ListOptions{
		Offset:         req.Msg.Offset,
		Limit:          req.Msg.Limit,
		Currency:       req.Msg.Currency,
		IncludeHistory: req.Msg.IncludeHistory,
	}
	view := s.ledger.CurrentView
	if req.Msg.IncludeHistory {
		view = s.ledger.HistoryView
	}
	rows, err := view(ctx, group.ID, opts)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}
	total, err := s.store.CountExpenses(ctx, group.ID, opts)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("ListExpenses successful", "group_id", group.ID, "count", len(rows), "total", total)

	return connect.NewResponse(&ListExpensesResponse{
		Expenses: toExpenses(rows, group, req.Msg.ActiveParticipantID),
		Total:    total,
	}), nil
}

// GetExpense returns one expense row, whatever its state, optionally with
// its whole chain.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error) {
	slog.Info("GetExpense request received", "expense_id", req.Msg.ExpenseID)

	e, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.Error("GetExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, connectError(err)
	}
	group, err := s.store.GetGroup(ctx, e.GroupID)
	if err != nil {
		slog.Error("GetExpense failed", "group_id", e.GroupID, "error", err)
		return nil, connectError(err)
	}

	participantID := middleware.GetParticipantID(ctx)
	resp := &GetExpenseResponse{Expense: toExpense(e, group, participantID)}
	if req.Msg.IncludeHistory {
		chain, err := s.ledger.Chain(ctx, e.ID)
		if err != nil {
			slog.Error("GetExpense failed", "expense_id", e.ID, "error", err)
			return nil, connectError(err)
		}
		resp.History = toExpenses(chain, group, participantID)
		for _, v := range chain {
			if v.ID == e.ID && v.NextVersion != nil {
				resp.Expense.NextVersionID = v.NextVersion.ID
			}
		}
	}

	slog.Info("GetExpense successful", "expense_id", e.ID, "state", e.State)

	return connect.NewResponse(resp), nil
}
