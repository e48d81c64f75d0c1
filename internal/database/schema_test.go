package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllTables(t *testing.T) {
	tables := AllTables()
	assert.Len(t, tables, 4)

	for _, name := range []string{"device_uploads", "fleet_summaries", "inference_runs", "audit_logs"} {
		found := false
		for _, ddl := range tables {
			if strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS "+name+" ") {
				found = true
			}
		}
		assert.True(t, found, name)
	}
}

func TestListAuditLogsSQL_NewestWindowInChronologicalOrder(t *testing.T) {
	inner := strings.Index(ListAuditLogsSQL, "ORDER BY timestamp DESC, id DESC")
	limit := strings.Index(ListAuditLogsSQL, "LIMIT ?")
	outer := strings.LastIndex(ListAuditLogsSQL, "ORDER BY timestamp ASC, id ASC")

	assert.Greater(t, inner, 0)
	assert.Greater(t, limit, inner)
	assert.Greater(t, outer, limit)
}
