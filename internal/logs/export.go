package logs

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"trustcast/internal/models"
)

// ExportTimeLayout is the timestamp layout used in export file names.
const ExportTimeLayout = "20060102T150405Z"

// Export builds a downloadable snapshot of the filtered entries. Total is the
// number of exported entries.
func Export(entries []models.LogEntry, filter, system string, at time.Time) models.LogExport {
	if filter == "" {
		filter = FilterAll
	}

	filtered := Filter(entries, filter)

	return models.LogExport{
		System:     system,
		ExportedAt: at.UTC(),
		Filter:     filter,
		Total:      len(filtered),
		Entries:    filtered,
	}
}

// ExportFileName returns "<prefix>-<UTC timestamp>.<ext>".
func ExportFileName(prefix, ext string, at time.Time) string {
	return fmt.Sprintf("%s-%s.%s", prefix, at.UTC().Format(ExportTimeLayout), ext)
}

// WriteExport encodes the export as indented JSON.
func WriteExport(w io.Writer, export models.LogExport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("failed to encode log export: %w", err)
	}
	return nil
}
