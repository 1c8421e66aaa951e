package service

import (
	"net/http"

	"connectrpc.com/connect"
)

const (
	// GroupServiceName is the fully-qualified name of the GroupService.
	GroupServiceName = "splitledger.v1.GroupService"
	// ExpenseServiceName is the fully-qualified name of the ExpenseService.
	ExpenseServiceName = "splitledger.v1.ExpenseService"
)

// Procedure paths, as Connect routes them.
const (
	GroupServiceCreateGroupProcedure    = "/splitledger.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure       = "/splitledger.v1.GroupService/GetGroup"
	GroupServiceUpdateGroupProcedure    = "/splitledger.v1.GroupService/UpdateGroup"
	GroupServiceListGroupsProcedure     = "/splitledger.v1.GroupService/ListGroups"
	GroupServiceGetBalancesProcedure    = "/splitledger.v1.GroupService/GetBalances"
	GroupServiceListActivitiesProcedure = "/splitledger.v1.GroupService/ListActivities"
	GroupServiceExportGroupProcedure    = "/splitledger.v1.GroupService/ExportGroup"

	ExpenseServiceCreateExpenseProcedure = "/splitledger.v1.ExpenseService/CreateExpense"
	ExpenseServiceUpdateExpenseProcedure = "/splitledger.v1.ExpenseService/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure = "/splitledger.v1.ExpenseService/DeleteExpense"
	ExpenseServiceListExpensesProcedure  = "/splitledger.v1.ExpenseService/ListExpenses"
	ExpenseServiceGetExpenseProcedure    = "/splitledger.v1.ExpenseService/GetExpense"
)

// NewGroupServiceHandler builds an HTTP handler for every GroupService
// procedure. It returns the path to mount the handler on.
func NewGroupServiceHandler(svc *GroupService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(GroupServiceCreateGroupProcedure, connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...))
	mux.Handle(GroupServiceGetGroupProcedure, connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...))
	mux.Handle(GroupServiceUpdateGroupProcedure, connect.NewUnaryHandler(GroupServiceUpdateGroupProcedure, svc.UpdateGroup, opts...))
	mux.Handle(GroupServiceListGroupsProcedure, connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...))
	mux.Handle(GroupServiceGetBalancesProcedure, connect.NewUnaryHandler(GroupServiceGetBalancesProcedure, svc.GetBalances, opts...))
	mux.Handle(GroupServiceListActivitiesProcedure, connect.NewUnaryHandler(GroupServiceListActivitiesProcedure, svc.ListActivities, opts...))
	mux.Handle(GroupServiceExportGroupProcedure, connect.NewUnaryHandler(GroupServiceExportGroupProcedure, svc.ExportGroup, opts...))
	return "/" + GroupServiceName + "/", mux
}

// NewExpenseServiceHandler builds an HTTP handler for every ExpenseService
// procedure. It returns the path to mount the handler on.
func NewExpenseServiceHandler(svc *ExpenseService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(ExpenseServiceCreateExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...))
	mux.Handle(ExpenseServiceUpdateExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, opts...))
	mux.Handle(ExpenseServiceDeleteExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...))
	mux.Handle(ExpenseServiceListExpensesProcedure, connect.NewUnaryHandler(ExpenseServiceListExpensesProcedure, svc.ListExpenses, opts...))
	mux.Handle(ExpenseServiceGetExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceGetExpenseProcedure, svc.GetExpense, opts...))
	return "/" + ExpenseServiceName + "/", mux
}
