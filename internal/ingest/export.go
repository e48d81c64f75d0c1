package ingest

import (
	"encoding/csv"
	"fmt"
	"io"

	"trustcast/internal/models"
)

// WriteCSV writes records back out as delimited text, header first. Without
// a header the field order of the first record is used; with neither,
// nothing is written.
func WriteCSV(w io.Writer, header []string, records []models.DeviceRecord) error {
	if len(header) == 0 {
		if len(records) == 0 {
			return nil
		}
		header = records[0].Keys()
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range records {
		row := make([]string, len(header))
		for j, field := range header {
			row[j], _ = rec.Get(field)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
