package logs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"trustcast/internal/models"
)

// Source fetches a full audit log snapshot, oldest entry first.
type Source interface {
	Fetch(ctx context.Context) ([]models.LogEntry, error)
}

// HTTPSource reads the snapshot from GET <baseURL>/logs.
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:    strings.TrimSuffix(baseURL, "/") + "/logs",
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]models.LogEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build log request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch logs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("log source returned status %d", resp.StatusCode)
	}

	var entries []models.LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode logs: %w", err)
	}

	if entries == nil {
		entries = []models.LogEntry{}
	}
	return entries, nil
}

// Reader is implemented by stores that keep the audit log.
type Reader interface {
	ListAuditLogs(ctx context.Context, limit int) ([]models.LogEntry, error)
}

// StoreSource adapts a Reader to Source, fetching at most limit entries.
type StoreSource struct {
	reader Reader
	limit  int
}

func NewStoreSource(reader Reader, limit int) *StoreSource {
	return &StoreSource{reader: reader, limit: limit}
}

func (s *StoreSource) Fetch(ctx context.Context) ([]models.LogEntry, error) {
	return s.reader.ListAuditLogs(ctx, s.limit)
}
