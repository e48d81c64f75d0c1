package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trustcast/internal/logs"
	"trustcast/internal/models"
)

// ExportSystem labels log exports.
const ExportSystem = "TrustCast"

// ErrLogSourceUnavailable wraps failures of the configured log source.
var ErrLogSourceUnavailable = errors.New("log source unavailable")

// AuditService keeps the append-only audit trail and answers filtered,
// paginated queries over it.
type AuditService struct {
	pageSize int
	log      zerolog.Logger
	now      func() time.Time

	// Input channel (written by the MQTT subscriber)
	AuditChan chan *models.LogEntry

	mu      sync.RWMutex
	store   AuditStore
	source  logs.Source
	journal *ring[models.LogEntry]

	viewMu sync.Mutex
	view   *logs.Pager
}

// AuditServiceConfig holds configuration for the audit service
type AuditServiceConfig struct {
	PageSize        int
	ChannelSize     int
	JournalCapacity int
}

// DefaultAuditServiceConfig returns default configuration
func DefaultAuditServiceConfig() AuditServiceConfig {
	return AuditServiceConfig{
		PageSize:        8,
		ChannelSize:     100,
		JournalCapacity: JournalCapacity,
	}
}

// NewAuditService creates an audit service answering from its own bounded
// journal until a source is attached
func NewAuditService(config AuditServiceConfig, log zerolog.Logger) *AuditService {
	defaults := DefaultAuditServiceConfig()
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if config.JournalCapacity <= 0 {
		config.JournalCapacity = defaults.JournalCapacity
	}

	return &AuditService{
		pageSize:  config.PageSize,
		log:       log,
		now:       time.Now,
		AuditChan: make(chan *models.LogEntry, config.ChannelSize),
		journal:   newRing[models.LogEntry](config.JournalCapacity),
		view:      logs.NewPager(nil, config.PageSize),
	}
}

// SetStore persists every recorded entry
func (s *AuditService) SetStore(store AuditStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
}

// SetSource makes queries read from source. The local journal is no longer
// kept once a source is attached.
func (s *AuditService) SetSource(source logs.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = source
	if source != nil {
		s.journal = newRing[models.LogEntry](1)
	}
}

// PageSize returns the default page size
func (s *AuditService) PageSize() int {
	return s.pageSize
}

// Start appends entries arriving on AuditChan until ctx is cancelled
func (s *AuditService) Start(ctx context.Context) {
	s.log.Info().Msg("audit intake starting")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("audit intake stopped")
			return
		case entry, ok := <-s.AuditChan:
			if !ok {
				return
			}
			s.append(ctx, *entry)
		}
	}
}

// Record appends a new entry stamped with the current time
func (s *AuditService) Record(ctx context.Context, actor, action, details string, level models.Severity) models.LogEntry {
	entry := models.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: s.now().UTC(),
		Actor:     actor,
		Action:    action,
		Details:   details,
		Level:     level,
	}
	s.append(ctx, entry)
	return entry
}

func (s *AuditService) append(ctx context.Context, entry models.LogEntry) {
	s.mu.RLock()
	if s.source == nil {
		s.journal.add(entry)
	}
	store := s.store
	s.mu.RUnlock()

	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := store.SaveAuditLog(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("entry_id", entry.ID).Msg("failed to save audit entry")
	}
}

// Entries fetches the full log snapshot from the source, or the local
// journal when no source is attached. Entries are oldest first.
func (s *AuditService) Entries(ctx context.Context) ([]models.LogEntry, error) {
	s.mu.RLock()
	source := s.source
	journal := s.journal
	s.mu.RUnlock()

	if source == nil {
		return journal.chronological(), nil
	}

	entries, err := source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogSourceUnavailable, err)
	}
	return entries, nil
}

// Query returns one page of the filtered log. A non-positive pageSize uses
// the default; out-of-range pages are clamped.
func (s *AuditService) Query(ctx context.Context, filter string, page, pageSize int) (models.LogPage, error) {
	f, err := logs.ParseFilter(filter)
	if err != nil {
		return models.LogPage{}, err
	}

	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	entries, err := s.Entries(ctx)
	if err != nil {
		return models.LogPage{}, err
	}

	return logs.Query(entries, f, page, pageSize), nil
}

// Export snapshots the filtered log for download
func (s *AuditService) Export(ctx context.Context, filter string) (models.LogExport, error) {
	f, err := logs.ParseFilter(filter)
	if err != nil {
		return models.LogExport{}, err
	}

	entries, err := s.Entries(ctx)
	if err != nil {
		return models.LogExport{}, err
	}

	return logs.Export(entries, f, ExportSystem, s.now()), nil
}

// View refreshes the shared log viewer from the source and returns its page
func (s *AuditService) View(ctx context.Context) (models.LogPage, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return models.LogPage{}, err
	}

	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	s.view.Replace(entries)
	return s.view.View(), nil
}

// SetViewFilter switches the viewer filter and returns to page 1
func (s *AuditService) SetViewFilter(filter string) (models.LogPage, error) {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	if err := s.view.SetFilter(filter); err != nil {
		return models.LogPage{}, err
	}
	return s.view.View(), nil
}

// NextPage advances the viewer; at the last page it is a no-op
func (s *AuditService) NextPage() models.LogPage {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	s.view.Next()
	return s.view.View()
}

// PrevPage moves the viewer back; at page 1 it is a no-op
func (s *AuditService) PrevPage() models.LogPage {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	s.view.Prev()
	return s.view.View()
}
