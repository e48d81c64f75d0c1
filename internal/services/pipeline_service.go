package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trustcast/internal/aggregator"
	"trustcast/internal/inference"
	"trustcast/internal/ingest"
	"trustcast/internal/models"
)

// SystemActor is the audit actor for actions taken by the pipeline itself.
const SystemActor = "system"

// UploadResult describes an ingested upload. Stale is set when a newer
// upload was committed first and this one was discarded.
type UploadResult struct {
	File    *models.UploadedFile `json:"file"`
	Records int                  `json:"records"`
	Summary models.FleetSummary  `json:"summary"`
	Stale   bool                 `json:"stale"`
}

// PipelineService owns the device-record snapshot and drives ingestion,
// aggregation and inference. Storage, event publishing and auditing are
// optional and best-effort.
type PipelineService struct {
	ingestor   *ingest.Ingestor
	snapshots  *ingest.Store
	aggregator *aggregator.Aggregator
	controller *inference.Controller

	mu      sync.RWMutex
	store   Store
	events  EventSink
	auditor Auditor

	notifications *ring[models.Notification]
	persistTO     time.Duration
	log           zerolog.Logger
	now           func() time.Time
}

// NewPipelineService creates a pipeline over the given stages
func NewPipelineService(
	ingestor *ingest.Ingestor,
	agg *aggregator.Aggregator,
	predictor inference.Predictor,
	log zerolog.Logger,
) *PipelineService {
	s := &PipelineService{
		ingestor:      ingestor,
		snapshots:     ingest.NewStore(),
		aggregator:    agg,
		controller:    inference.NewController(predictor, log.With().Str("stage", "inference").Logger()),
		notifications: newNotificationRing(NotificationCapacity),
		persistTO:     5 * time.Second,
		log:           log,
		now:           time.Now,
	}

	s.controller.SetNotifier(s.notify)
	s.controller.SetStartHandler(s.handleInferenceStart)
	s.controller.SetCompletionHandler(s.handleInferenceRun)

	return s
}

// SetStore enables persistence of uploads, summaries and inference runs
func (s *PipelineService) SetStore(store Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
}

// SetEventSink enables event publishing
func (s *PipelineService) SetEventSink(sink EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = sink
}

// SetAuditor enables the audit trail of pipeline actions
func (s *PipelineService) SetAuditor(a Auditor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditor = a
}

// Upload reads and parses one file and, unless a newer upload has already
// landed, replaces the device-record snapshot with it. A read failure keeps
// the previous snapshot.
func (s *PipelineService) Upload(ctx context.Context, name string, r io.Reader) (*UploadResult, error) {
	ticket := s.snapshots.Begin()

	file, records, err := s.ingestor.Read(name, r)
	if err != nil {
		s.log.Error().Err(err).Str("file", name).Msg("upload failed")
		s.notify(models.Notification{
			Level:     models.NotifyError,
			Message:   fmt.Sprintf("Could not read %s", name),
			Timestamp: s.now().UTC(),
		})
		s.audit(ctx, "Upload failed", fmt.Sprintf("%s: %v", name, err), models.SeverityWarning)
		return nil, err
	}

	summary := s.aggregator.Summarize(records)
	result := &UploadResult{File: file, Records: len(records), Summary: summary}

	if !s.snapshots.Commit(ticket, file, records) {
		result.Stale = true
		s.log.Warn().Str("file", name).Uint64("ticket", ticket).Msg("newer upload already committed, discarding")
		return result, nil
	}

	s.log.Info().
		Str("upload_id", file.ID).
		Str("file", name).
		Int("records", len(records)).
		Float64("average_score", summary.AverageScore).
		Msg("device snapshot replaced")

	s.persistUpload(ctx, file, records, summary)
	s.publish(&models.PipelineEvent{
		Kind:      models.EventFleetSummary,
		Timestamp: s.now().UTC(),
		UploadID:  file.ID,
		Summary:   &summary,
	})
	s.notify(models.Notification{
		Level:     models.NotifyInfo,
		Message:   fmt.Sprintf("Loaded %d device records from %s", len(records), name),
		Timestamp: s.now().UTC(),
	})
	s.audit(ctx, "File uploaded",
		fmt.Sprintf("%s (%d bytes, %d records, fingerprint %s)", name, file.Size, len(records), file.Fingerprint.Digest),
		models.SeverityInfo)

	return result, nil
}

// CurrentUpload returns the upload behind the snapshot, or nil
func (s *PipelineService) CurrentUpload() *models.UploadedFile {
	return s.snapshots.File()
}

// Records returns the current device-record snapshot
func (s *PipelineService) Records() []models.DeviceRecord {
	return s.snapshots.Records()
}

// Summary recomputes the fleet summary of the current snapshot
func (s *PipelineService) Summary() models.FleetSummary {
	return s.aggregator.Summarize(s.snapshots.Records())
}

// Devices returns the classified rows of the current snapshot, optionally
// restricted to one tier
func (s *PipelineService) Devices(only *models.RiskTier) []models.DeviceRow {
	return s.aggregator.Rows(s.snapshots.Records(), only)
}

// Thresholds returns the bounds every classification uses
func (s *PipelineService) Thresholds() models.Thresholds {
	return s.aggregator.Classifier().Thresholds()
}

// ExportDevices writes the current snapshot as CSV
func (s *PipelineService) ExportDevices(w io.Writer) error {
	return ingest.WriteCSV(w, s.snapshots.Header(), s.snapshots.Records())
}

// ReadFile reads an upload for inference without touching the snapshot
func (s *PipelineService) ReadFile(name string, r io.Reader) (*models.UploadedFile, error) {
	file, _, err := s.ingestor.Read(name, r)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// RunInference submits file, or the current upload when file is nil, to the
// detection endpoint and blocks until it resolves.
func (s *PipelineService) RunInference(ctx context.Context, file *models.UploadedFile) (*models.InferenceRun, error) {
	if file == nil {
		file = s.snapshots.File()
	}

	return s.controller.Submit(ctx, file)
}

// InferenceSnapshot returns the controller state
func (s *PipelineService) InferenceSnapshot() models.InferenceSnapshot {
	return s.controller.Snapshot()
}

// Notifications returns the most recent notifications, newest first
func (s *PipelineService) Notifications() []models.Notification {
	return s.notifications.recent()
}

func (s *PipelineService) handleInferenceStart(run models.InferenceRun) {
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTO)
	defer cancel()

	s.audit(ctx, "Detection submitted", run.FileName, models.SeverityInfo)
}

func (s *PipelineService) handleInferenceRun(run models.InferenceRun) {
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTO)
	defer cancel()

	if store := s.getStore(); store != nil {
		if err := store.SaveInferenceRun(ctx, run); err != nil {
			s.log.Error().Err(err).Str("run_id", run.ID).Msg("failed to save inference run")
		}
	}

	s.publish(&models.PipelineEvent{
		Kind:      models.EventInference,
		Timestamp: s.now().UTC(),
		Inference: &run,
	})

	if run.State == models.InferenceFailed {
		s.audit(ctx, "Detection failed", fmt.Sprintf("%s: %s", run.FileName, run.Error), models.SeverityWarning)
		return
	}

	level := models.SeverityInfo
	if run.AttackCount > 0 {
		level = models.SeverityCritical
	}
	s.audit(ctx, "Detection completed",
		fmt.Sprintf("%s: %d of %d sequences flagged, average risk %.3f",
			run.FileName, run.AttackCount, run.Result.NumSequences, run.AverageRisk),
		level)
}

func (s *PipelineService) persistUpload(ctx context.Context, file *models.UploadedFile, records []models.DeviceRecord, summary models.FleetSummary) {
	store := s.getStore()
	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTO)
	defer cancel()

	if err := store.SaveUpload(ctx, file, records); err != nil {
		s.log.Error().Err(err).Str("upload_id", file.ID).Msg("failed to save upload")
	}
	if err := store.SaveFleetSummary(ctx, file.ID, s.now().UTC(), summary); err != nil {
		s.log.Error().Err(err).Str("upload_id", file.ID).Msg("failed to save fleet summary")
	}
}

func (s *PipelineService) notify(n models.Notification) {
	s.notifications.add(n)
	s.publish(&models.PipelineEvent{
		Kind:         models.EventNotification,
		Timestamp:    n.Timestamp,
		Notification: &n,
	})
}

func (s *PipelineService) publish(event *models.PipelineEvent) {
	s.mu.RLock()
	sink := s.events
	s.mu.RUnlock()

	if sink != nil {
		sink.Publish(event)
	}
}

func (s *PipelineService) audit(ctx context.Context, action, details string, level models.Severity) {
	s.mu.RLock()
	a := s.auditor
	s.mu.RUnlock()

	if a != nil {
		a.Record(ctx, SystemActor, action, details, level)
	}
}

func (s *PipelineService) getStore() Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}
