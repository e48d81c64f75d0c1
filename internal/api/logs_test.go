package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustcast/internal/models"
)

func seedLogs(t *testing.T, env *testEnv, n int, every int) {
	t.Helper()
	for i := 0; i < n; i++ {
		level := models.SeverityInfo
		if i%every == 0 {
			level = models.SeverityCritical
		}
		env.audit.Record(context.Background(), "admin", fmt.Sprintf("action %d", i), "", level)
	}
}

func TestLogsQuery(t *testing.T) {
	env := newTestEnv(t)
	seedLogs(t, env, 20, 7) // Critical at 0, 7, 14

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/logs?severity=Critical&page=1&page_size=8", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	var page models.LogPage
	decode(t, rec, &page)
	assert.Len(t, page.Entries, 3)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasNext)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/logs?page=2", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 8, page.PageSize)
	assert.Equal(t, 3, page.TotalPages)
}

func TestLogsQueryRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/logs?severity=Debug", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/logs?page=two", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogsEmptyHasOnePage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/logs", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	var page models.LogPage
	decode(t, rec, &page)
	assert.Empty(t, page.Entries)
	assert.Equal(t, 1, page.TotalPages)
}

func TestLogExport(t *testing.T) {
	env := newTestEnv(t)
	seedLogs(t, env, 10, 5) // Critical at 0, 5

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/logs/export?severity=Critical", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "audit-logs-")

	var export models.LogExport
	decode(t, rec, &export)
	assert.Equal(t, "TrustCast", export.System)
	assert.Equal(t, 2, export.Total)
	assert.Len(t, export.Entries, 2)
}

func TestLogView(t *testing.T) {
	env := newTestEnv(t)
	seedLogs(t, env, 20, 7)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/logs/view", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodPost, "/api/logs/view/next", http.NoBody))
	var page models.LogPage
	decode(t, rec, &page)
	assert.Equal(t, 2, page.Page)

	rec = env.do(t, httptest.NewRequest(http.MethodPost, "/api/logs/view/filter?severity=Critical", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Entries, 3)

	rec = env.do(t, httptest.NewRequest(http.MethodPost, "/api/logs/view/prev", http.NoBody))
	decode(t, rec, &page)
	assert.Equal(t, 1, page.Page)
}
