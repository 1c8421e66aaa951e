package service

import (
	"context"

	"connectrpc.com/connect"
)

// GroupServiceClient calls a remote GroupService.
type GroupServiceClient struct {
	createGroup    *connect.Client[CreateGroupRequest, CreateGroupResponse]
	getGroup       *connect.Client[GetGroupRequest, GetGroupResponse]
	updateGroup    *connect.Client[UpdateGroupRequest, UpdateGroupResponse]
	listGroups     *connect.Client[ListGroupsRequest, ListGroupsResponse]
	getBalances    *connect.Client[GetBalancesRequest, GetBalancesResponse]
	listActivities *connect.Client[ListActivitiesRequest, ListActivitiesResponse]
	exportGroup    *connect.Client[ExportGroupRequest, ExportGroupResponse]
}

// NewGroupServiceClient constructs a client for the GroupService served at
// baseURL (e.g. "http://localhost:8080").
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &GroupServiceClient{
		createGroup:    connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:       connect.NewClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		updateGroup:    connect.NewClient[UpdateGroupRequest, UpdateGroupResponse](httpClient, baseURL+GroupServiceUpdateGroupProcedure, opts...),
		listGroups:     connect.NewClient[ListGroupsRequest, ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		getBalances:    connect.NewClient[GetBalancesRequest, GetBalancesResponse](httpClient, baseURL+GroupServiceGetBalancesProcedure, opts...),
		listActivities: connect.NewClient[ListActivitiesRequest, ListActivitiesResponse](httpClient, baseURL+GroupServiceListActivitiesProcedure, opts...),
		exportGroup:    connect.NewClient[ExportGroupRequest, ExportGroupResponse](httpClient, baseURL+GroupServiceExportGroupProcedure, opts...),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[UpdateGroupResponse], error) {
	return c.updateGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListActivities(ctx context.Context, req *connect.Request[ListActivitiesRequest]) (*connect.Response[ListActivitiesResponse], error) {
	return c.listActivities.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ExportGroup(ctx context.Context, req *connect.Request[ExportGroupRequest]) (*connect.Response[ExportGroupResponse], error) {
	return c.exportGroup.CallUnary(ctx, req)
}

// ExpenseServiceClient calls a remote ExpenseService.
type ExpenseServiceClient struct {
	createExpense *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	updateExpense *connect.Client[UpdateExpenseRequest, UpdateExpenseResponse]
	deleteExpense *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	listExpenses  *connect.Client[ListExpensesRequest, ListExpensesResponse]
	getExpense    *connect.Client[GetExpenseRequest, GetExpenseResponse]
}

// NewExpenseServiceClient constructs a client for the ExpenseService served at baseURL.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &ExpenseServiceClient{
		createExpense: connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		updateExpense: connect.NewClient[UpdateExpenseRequest, UpdateExpenseResponse](httpClient, baseURL+ExpenseServiceUpdateExpenseProcedure, opts...),
		deleteExpense: connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+ExpenseServiceDeleteExpenseProcedure, opts...),
		listExpenses:  connect.NewClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL+ExpenseServiceListExpensesProcedure, opts...),
		getExpense:    connect.NewClient[GetExpenseRequest, GetExpenseResponse](httpClient, baseURL+ExpenseServiceGetExpenseProcedure, opts...),
	}
}

func (c *ExpenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}
