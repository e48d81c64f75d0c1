package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// DeviceRecord is one row of an uploaded file, keyed by header name.
// Keys keep header order; the record is immutable once built.
type DeviceRecord struct {
	keys   []string
	values map[string]string
}

// NewDeviceRecord pairs header names with cells. Missing trailing cells become
// empty strings, cells beyond the header are dropped, and a repeated header
// name keeps its first position but takes the last value.
func NewDeviceRecord(headers, cells []string) DeviceRecord {
	rec := DeviceRecord{
		keys:   make([]string, 0, len(headers)),
		values: make(map[string]string, len(headers)),
	}

	for i, h := range headers {
		value := ""
		if i < len(cells) {
			value = cells[i]
		}

		if _, seen := rec.values[h]; !seen {
			rec.keys = append(rec.keys, h)
		}
		rec.values[h] = value
	}

	return rec
}

// Get returns the value stored under field and whether the field exists.
func (r DeviceRecord) Get(field string) (string, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Keys returns the field names in header order.
func (r DeviceRecord) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r DeviceRecord) Len() int {
	return len(r.keys)
}

// Values returns the cells in header order.
func (r DeviceRecord) Values() []string {
	out := make([]string, len(r.keys))
	for i, k := range r.keys {
		out[i] = r.values[k]
	}
	return out
}

// MarshalJSON encodes the record as an object whose keys follow header order.
func (r DeviceRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UploadFingerprint is a display label for an upload. The digest is derived
// from the file name only and says nothing about the content.
type UploadFingerprint struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Digest string `json:"digest"`
}

// UploadedFile is the raw upload kept alongside the parsed snapshot so the
// same file can be handed to the inference endpoint.
type UploadedFile struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Size        int64             `json:"size"`
	UploadedAt  time.Time         `json:"uploaded_at"`
	Fingerprint UploadFingerprint `json:"fingerprint"`
	Columns     []string          `json:"columns"`
	Content     []byte            `json:"-"`
}
