package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Severity is the level of an audit log entry.
type Severity string

const (
	SeverityInfo     Severity = "Info"
	SeverityWarning  Severity = "Warning"
	SeverityCritical Severity = "Critical"
)

// LogEntry is one audit log line. RawTime holds a time value that could not
// be parsed; it is written back unchanged.
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"time"`
	RawTime   string    `json:"-"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Level     Severity  `json:"level"`
}

// logTimeLayouts are tried in order when decoding a log entry time.
var logTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseLogTime parses s with the accepted log time layouts. Zone-less
// values are taken as UTC.
func ParseLogTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range logTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UnmarshalJSON decodes an entry without ever failing on its time: strings
// in any accepted layout and unix seconds are parsed, anything else is kept
// in RawTime.
func (e *LogEntry) UnmarshalJSON(data []byte) error {
	type plain LogEntry
	aux := struct {
		*plain
		Time json.RawMessage `json:"time"`
	}{plain: (*plain)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	e.Timestamp = time.Time{}
	e.RawTime = ""

	raw := strings.TrimSpace(string(aux.Time))
	switch {
	case raw == "" || raw == "null":
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(aux.Time, &s); err != nil {
			e.RawTime = raw
			break
		}
		if t, ok := ParseLogTime(s); ok {
			e.Timestamp = t
		} else {
			e.RawTime = s
		}
	default:
		if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
			e.Timestamp = time.Unix(secs, 0).UTC()
		} else if secs, err := strconv.ParseFloat(raw, 64); err == nil {
			e.Timestamp = time.UnixMilli(int64(secs * 1000)).UTC()
		} else {
			e.RawTime = raw
		}
	}

	return nil
}

// MarshalJSON writes RawTime in place of an unset time.
func (e LogEntry) MarshalJSON() ([]byte, error) {
	type plain LogEntry
	if e.Timestamp.IsZero() && e.RawTime != "" {
		return json.Marshal(struct {
			plain
			Time string `json:"time"`
		}{plain: plain(e), Time: e.RawTime})
	}
	return json.Marshal(plain(e))
}

// LogPage is the visible slice of a filtered log sequence.
type LogPage struct {
	Entries    []LogEntry `json:"entries"`
	Filter     string     `json:"filter"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
	Matched    int        `json:"matched"`
	HasPrev    bool       `json:"has_prev"`
	HasNext    bool       `json:"has_next"`
}

// LogExport is the downloadable snapshot of a filtered log sequence.
type LogExport struct {
	System     string     `json:"system"`
	ExportedAt time.Time  `json:"exported_at"`
	Filter     string     `json:"filter"`
	Total      int        `json:"total"`
	Entries    []LogEntry `json:"entries"`
}
