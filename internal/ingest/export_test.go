package ingest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustcast/internal/models"
)

func TestWriteCSV_PreservesHeaderOrder(t *testing.T) {
	header, records := ParseTable("device_id,trust_score,site\nIOT-1,92,north\nIOT-2,15\n")

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, header, records))

	assert.Equal(t, "device_id,trust_score,site\nIOT-1,92,north\nIOT-2,15,\n", buf.String())
}

func TestWriteCSV_QuotesCellsContainingDelimiter(t *testing.T) {
	records := []models.DeviceRecord{
		models.NewDeviceRecord([]string{"device_id", "notes"}, []string{"IOT-1", "rebooted, then ok"}),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, records))

	assert.Equal(t, "device_id,notes\nIOT-1,\"rebooted, then ok\"\n", buf.String())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, nil))
	assert.Empty(t, buf.String())
}

func TestWriteCSV_HeaderOnlyKeepsColumns(t *testing.T) {
	header, records := ParseTable("device_id, trust_score ,device_id\n\n")
	assert.Empty(t, records)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, header, records))
	assert.Equal(t, "device_id,trust_score\n", buf.String())
}
