// Package logs filters, paginates and exports audit log snapshots.
package logs

import (
	"errors"
	"fmt"

	"trustcast/internal/models"
)

// FilterAll disables severity filtering.
const FilterAll = "All"

var ErrUnknownFilter = errors.New("unknown severity filter")

// ParseFilter accepts All or one of the severities, matched exactly. An empty
// string means All.
func ParseFilter(s string) (string, error) {
	switch s {
	case "", FilterAll:
		return FilterAll, nil
	case string(models.SeverityInfo), string(models.SeverityWarning), string(models.SeverityCritical):
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
	}
}

// Filter keeps the entries whose level equals filter. The input is never
// modified.
func Filter(entries []models.LogEntry, filter string) []models.LogEntry {
	if filter == FilterAll || filter == "" {
		out := make([]models.LogEntry, len(entries))
		copy(out, entries)
		return out
	}

	out := make([]models.LogEntry, 0, len(entries))
	for _, e := range entries {
		if string(e.Level) == filter {
			out = append(out, e)
		}
	}
	return out
}

// TotalPages is ceil(n / pageSize) with a floor of 1.
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 || n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// Query filters entries and returns the 1-indexed page. Pages outside
// [1, TotalPages] are clamped.
func Query(entries []models.LogEntry, filter string, page, pageSize int) models.LogPage {
	if pageSize <= 0 {
		pageSize = 1
	}

	filtered := Filter(entries, filter)
	total := TotalPages(len(filtered), pageSize)
	page = clamp(page, 1, total)

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	if filter == "" {
		filter = FilterAll
	}

	return models.LogPage{
		Entries:    filtered[start:end],
		Filter:     filter,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: total,
		Matched:    len(filtered),
		HasPrev:    page > 1,
		HasNext:    page < total,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
