package logs

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustcast/internal/models"
)

func TestExport_ContainsFilteredEntriesOnly(t *testing.T) {
	entries := sampleEntries(12, 0, 5)
	at := time.Date(2025, 11, 28, 12, 30, 0, 0, time.FixedZone("CET", 3600))

	export := Export(entries, "Critical", "TrustCast", at)

	assert.Equal(t, "TrustCast", export.System)
	assert.Equal(t, 2, export.Total)
	assert.Len(t, export.Entries, 2)
	assert.Equal(t, time.UTC, export.ExportedAt.Location())
	assert.Len(t, entries, 12)
}

func TestExport_EmptyFilterMeansAll(t *testing.T) {
	export := Export(sampleEntries(4), "", "TrustCast", time.Now())

	assert.Equal(t, FilterAll, export.Filter)
	assert.Equal(t, 4, export.Total)
}

func TestExportFileName(t *testing.T) {
	at := time.Date(2025, 11, 28, 10, 32, 0, 0, time.UTC)

	assert.Equal(t, "audit-logs-20251128T103200Z.json", ExportFileName("audit-logs", "json", at))
}

func TestWriteExport(t *testing.T) {
	var buf bytes.Buffer
	export := Export(sampleEntries(3, 1), "Critical", "TrustCast", time.Unix(0, 0))

	require.NoError(t, WriteExport(&buf, export))

	var decoded models.LogExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 1, decoded.Total)
	assert.Equal(t, "log-01", decoded.Entries[0].ID)
}
