package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/export"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/validation"
)

// GroupService implements the Connect GroupService
type GroupService struct {
	store  storage.Store
	ledger *ledger.Ledger
	now    func() time.Time
}

// NewGroupService creates a new GroupService. Group edits go through l so
// that they are recorded in the activity feed.
func NewGroupService(store storage.Store, l *ledger.Ledger) *GroupService {
	return &GroupService{store: store, ledger: l, now: time.Now}
}

// CreateGroup creates a new group.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"participants_count", len(req.Msg.Participants),
	)

	group := &models.Group{
		Name:     req.Msg.Name,
		Currency: req.Msg.Currency,
	}
	for _, name := range req.Msg.Participants {
		group.Participants = append(group.Participants, models.Participant{Name: name})
	}
	if err := validation.Group(group); err != nil {
		slog.Warn("CreateGroup rejected", "error", err)
		return nil, connectError(err)
	}

	// Save to storage (generates IDs and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&CreateGroupResponse{Group: toGroup(group)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "name", group.Name)

	return connect.NewResponse(&GetGroupResponse{Group: toGroup(group)}), nil
}

// UpdateGroup renames a group, changes its currency and edits its participants.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[UpdateGroupResponse], error) {
	slog.Info("UpdateGroup request received",
		"group_id", req.Msg.GroupID,
		"participants_count", len(req.Msg.Participants),
	)

	group := &models.Group{
		ID:       req.Msg.GroupID,
		Name:     req.Msg.Name,
		Currency: req.Msg.Currency,
	}
	for _, p := range req.Msg.Participants {
		group.Participants = append(group.Participants, models.Participant{ID: p.ID, Name: p.Name})
	}
	if err := validation.Group(group); err != nil {
		slog.Warn("UpdateGroup rejected", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	updated, err := s.ledger.UpdateGroup(ctx, group, middleware.GetParticipantID(ctx))
	if err != nil {
		slog.Error("UpdateGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Group updated", "group_id", updated.ID)

	return connect.NewResponse(&UpdateGroupResponse{Group: toGroup(updated)}), nil
}

// ListGroups retrieves all groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	slog.Info("ListGroups request received")

	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, connectError(err)
	}

	out := make([]*Group, len(groups))
	for i, g := range groups {
		out[i] = toGroup(g)
	}

	slog.Info("ListGroups successful", "count", len(out))

	return connect.NewResponse(&ListGroupsResponse{Groups: out}), nil
}

// GetBalances computes balances, suggested reimbursements and totals for
// every currency used by the group's live expenses.
func (s *GroupService) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	slog.Info("GetBalances request received", "group_id", req.Msg.GroupID)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetBalances failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}
	active := req.Msg.ActiveParticipantID
	if active != "" && !group.HasParticipant(active) {
		err := fmt.Errorf("%w: %q is not a member of group %s", ledger.ErrInvalidParticipant, active, group.ID)
		return nil, connectError(err)
	}

	currencies, err := s.store.UsedCurrencies(ctx, group.ID)
	if err != nil {
		slog.Error("GetBalances failed", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	results := make([]*CurrencyBalances, len(currencies))
	g, gctx := errgroup.WithContext(ctx)
	for i, currency := range currencies {
		g.Go(func() error {
			expenses, err := s.ledger.CurrentView(gctx, group.ID, storage.ListOptions{Currency: currency})
			if err != nil {
				return fmt.Errorf("failed to load %s expenses: %w", currency, err)
			}
			results[i] = currencyBalances(group, currency, expenses, active)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("GetBalances failed", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("GetBalances successful", "group_id", group.ID, "currencies", len(results))

	return connect.NewResponse(&GetBalancesResponse{Currencies: results}), nil
}

func currencyBalances(group *models.Group, currency string, expenses []*models.Expense, active string) *CurrencyBalances {
	balances := calculator.Aggregate(expenses)
	reimbursements := calculator.Settle(balances)
	out := &CurrencyBalances{
		Currency:       currency,
		Balances:       toBalances(group, balances),
		Reimbursements: toReimbursements(reimbursements),
		PublicBalances: toBalances(group, calculator.PublicBalances(reimbursements)),
		TotalSpending:  calculator.TotalGroupSpending(expenses),
	}
	if active != "" {
		out.ActiveTotalPaid = calculator.TotalPaidBy(active, expenses)
		out.ActiveTotalShare = calculator.TotalShare(active, expenses)
	}
	return out
}

// ListActivities returns the group's activity feed, newest first.
func (s *GroupService) ListActivities(ctx context.Context, req *connect.Request[ListActivitiesRequest]) (*connect.Response[ListActivitiesResponse], error) {
	slog.Info("ListActivities request received", "group_id", req.Msg.GroupID)

	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		slog.Error("ListActivities failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}
	activities, err := s.store.ListActivities(ctx, req.Msg.GroupID, storage.ListOptions{
		Offset: req.Msg.Offset,
		Limit:  req.Msg.Limit,
	})
	if err != nil {
		slog.Error("ListActivities failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	out := make([]*Activity, len(activities))
	for i, a := range activities {
		out[i] = toActivity(a)
	}

	slog.Info("ListActivities successful", "group_id", req.Msg.GroupID, "count", len(out))

	return connect.NewResponse(&ListActivitiesResponse{Activities: out}), nil
}

// ExportGroup returns the group and its live expenses as an export document.
func (s *GroupService) ExportGroup(ctx context.Context, req *connect.Request[ExportGroupRequest]) (*connect.Response[ExportGroupResponse], error) {
	slog.Info("ExportGroup request received", "group_id", req.Msg.GroupID)

	doc, err := s.export(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ExportGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("ExportGroup successful", "group_id", doc.ID, "expenses", len(doc.Expenses))

	return connect.NewResponse(&ExportGroupResponse{Export: doc}), nil
}

func (s *GroupService) export(ctx context.Context, groupID string) (*export.Document, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.ledger.CurrentView(ctx, groupID, storage.ListOptions{})
	if err != nil {
		return nil, err
	}
	return export.New(group, expenses, s.now()), nil
}
