package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"trustcast/internal/models"
)

// Store persists pipeline results. Implemented by database.ClickHouseDB.
type Store interface {
	SaveUpload(ctx context.Context, file *models.UploadedFile, records []models.DeviceRecord) error
	SaveFleetSummary(ctx context.Context, uploadID string, computedAt time.Time, summary models.FleetSummary) error
	SaveInferenceRun(ctx context.Context, run models.InferenceRun) error
}

// AuditStore persists audit entries. Implemented by database.ClickHouseDB.
type AuditStore interface {
	SaveAuditLog(ctx context.Context, entry models.LogEntry) error
}

// EventSink receives pipeline events for publishing.
type EventSink interface {
	Publish(event *models.PipelineEvent)
}

// Auditor appends entries to the audit trail.
type Auditor interface {
	Record(ctx context.Context, actor, action, details string, level models.Severity) models.LogEntry
}

// ChannelSink hands events to a channel read by the MQTT publisher.
type ChannelSink struct {
	ch      chan *models.PipelineEvent
	timeout time.Duration
	log     zerolog.Logger
}

func NewChannelSink(ch chan *models.PipelineEvent, log zerolog.Logger) *ChannelSink {
	return &ChannelSink{ch: ch, timeout: time.Second, log: log}
}

// Publish sends the event, dropping it if the channel stays full.
func (s *ChannelSink) Publish(event *models.PipelineEvent) {
	select {
	case s.ch <- event:
	case <-time.After(s.timeout):
		s.log.Warn().Str("kind", string(event.Kind)).Msg("event channel full, dropping event")
	}
}
