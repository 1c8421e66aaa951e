package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

type testServer struct {
	url      string
	groups   *GroupServiceClient
	expenses *ExpenseServiceClient
}

// setupTestServer creates a test server with both GroupService and ExpenseService
// on a fresh SQLite database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create store")

	l := ledger.New(store)
	interceptors := connect.WithInterceptors(
		middleware.ParticipantInterceptor(),
		middleware.LoggingInterceptor(nil),
	)
	groupSvc := NewGroupService(store, l)
	groupPath, groupHandler := NewGroupServiceHandler(groupSvc, interceptors)
	expensePath, expenseHandler := NewExpenseServiceHandler(NewExpenseService(store, l), interceptors)

	mux := http.NewServeMux()
	mux.Handle(groupPath, groupHandler)
	mux.Handle(expensePath, expenseHandler)
	mux.HandleFunc(ExportPattern, groupSvc.ServeExport)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testServer{
		url:      server.URL,
		groups:   NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses: NewExpenseServiceClient(http.DefaultClient, server.URL),
	}
}

// as builds a request acting as participantID.
func as[T any](participantID string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if participantID != "" {
		req.Header().Set(middleware.ParticipantHeader, participantID)
	}
	return req
}

// createGroup creates a group and returns it with participant IDs by name.
func (s *testServer) createGroup(t *testing.T, names ...string) (*Group, map[string]string) {
	t.Helper()
	resp, err := s.groups.CreateGroup(context.Background(), connect.NewRequest(&CreateGroupRequest{
		Name:         "Roommates",
		Currency:     "EUR",
		Participants: names,
	}))
	require.NoError(t, err)
	ids := make(map[string]string, len(names))
	for _, p := range resp.Msg.Group.Participants {
		ids[p.Name] = p.ID
	}
	return resp.Msg.Group, ids
}

func requireCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, connect.CodeOf(err), "error: %v", err)
}
