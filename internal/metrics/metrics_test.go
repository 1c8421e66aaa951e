package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
)

func TestObserveRPC(t *testing.T) {
	m := New()
	m.ObserveRPC("/splitledger.v1.GroupService/GetGroup", "ok", 0.01)
	m.ObserveRPC("/splitledger.v1.GroupService/GetGroup", "ok", 0.02)
	m.ObserveRPC("/splitledger.v1.GroupService/GetGroup", "not_found", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/splitledger.v1.GroupService/GetGroup", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/splitledger.v1.GroupService/GetGroup", "not_found")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.rpcDuration))
}

func TestPublish(t *testing.T) {
	m := New()
	ctx := context.Background()
	require.NoError(t, m.Publish(ctx, &models.Activity{Type: models.ActivityCreateExpense}))
	require.NoError(t, m.Publish(ctx, &models.Activity{Type: models.ActivityCreateExpense}))
	require.NoError(t, m.Publish(ctx, &models.Activity{Type: models.ActivityDeleteExpense}))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.expenseChanges.WithLabelValues("CREATE_EXPENSE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.expenseChanges.WithLabelValues("DELETE_EXPENSE")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRPC("/p", "ok", 0.1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `splitledger_rpc_requests_total{code="ok",procedure="/p"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
