// Package ingest turns uploaded delimited text into device records.
package ingest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"trustcast/internal/models"
)

// Delimiter separates cells in an uploaded file.
const Delimiter = ","

// Parse splits content into device records. Blank lines are dropped, the
// first remaining line is the header and every other line becomes one record,
// however many cells it has.
func Parse(content string) []models.DeviceRecord {
	_, records := ParseTable(content)
	return records
}

// ParseTable is Parse that also returns the column names in header order,
// each repeated name listed once. Both are empty for blank content.
func ParseTable(content string) ([]string, []models.DeviceRecord) {
	lines := nonEmptyLines(content)
	if len(lines) == 0 {
		return []string{}, []models.DeviceRecord{}
	}

	headers := splitCells(lines[0])

	records := make([]models.DeviceRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		records = append(records, models.NewDeviceRecord(headers, splitCells(line)))
	}

	return models.NewDeviceRecord(headers, nil).Keys(), records
}

func nonEmptyLines(content string) []string {
	raw := strings.Split(content, "\n")

	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	return lines
}

func splitCells(line string) []string {
	cells := strings.Split(line, Delimiter)
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// Ingestor reads uploads into memory and parses them.
type Ingestor struct {
	maxBytes int64
	now      func() time.Time
}

// NewIngestor creates an ingestor refusing uploads larger than maxBytes.
func NewIngestor(maxBytes int64) *Ingestor {
	return &Ingestor{
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// Read consumes r fully and returns the upload metadata with its records.
// Only a failing reader produces an error.
func (in *Ingestor) Read(name string, r io.Reader) (*models.UploadedFile, []models.DeviceRecord, error) {
	if r == nil {
		return nil, nil, &FileReadError{Name: name, Err: ErrNoReader}
	}

	reader := r
	if in.maxBytes > 0 {
		reader = io.LimitReader(r, in.maxBytes+1)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, &FileReadError{Name: name, Err: err}
	}

	if in.maxBytes > 0 && int64(len(content)) > in.maxBytes {
		return nil, nil, &FileReadError{
			Name: name,
			Err:  fmt.Errorf("%w (%d bytes)", ErrFileTooLarge, in.maxBytes),
		}
	}

	columns, records := ParseTable(string(content))

	size := int64(len(content))
	file := &models.UploadedFile{
		ID:          uuid.NewString(),
		Name:        name,
		Size:        size,
		UploadedAt:  in.now().UTC(),
		Fingerprint: Fingerprint(name, size),
		Columns:     columns,
		Content:     content,
	}

	return file, records, nil
}
