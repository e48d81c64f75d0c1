package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"trustcast/internal/aggregator"
	"trustcast/internal/ingest"
	"trustcast/internal/models"
)

type fakeStore struct {
	mu        sync.Mutex
	uploads   []string
	summaries []models.FleetSummary
	runs      []models.InferenceRun
	audit     []models.LogEntry
	err       error
}

func (f *fakeStore) SaveUpload(_ context.Context, file *models.UploadedFile, _ []models.DeviceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, file.ID)
	return f.err
}

func (f *fakeStore) SaveFleetSummary(_ context.Context, _ string, _ time.Time, s models.FleetSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, s)
	return f.err
}

func (f *fakeStore) SaveInferenceRun(_ context.Context, run models.InferenceRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return f.err
}

func (f *fakeStore) SaveAuditLog(_ context.Context, entry models.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audit = append(f.audit, entry)
	return f.err
}

type fakeSink struct {
	mu     sync.Mutex
	events []*models.PipelineEvent
}

func (f *fakeSink) Publish(event *models.PipelineEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeSink) kinds() []models.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.EventKind, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Kind)
	}
	return out
}

type stubPredictor struct {
	mu      sync.Mutex
	calls   int
	result  *models.InferenceResult
	err     error
	release chan struct{}
}

func (p *stubPredictor) Predict(_ context.Context, _ *models.UploadedFile) (*models.InferenceResult, error) {
	if p.release != nil {
		<-p.release
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.result, p.err
}

type fakeSource struct {
	entries []models.LogEntry
	err     error
}

func (f *fakeSource) Fetch(context.Context) ([]models.LogEntry, error) {
	return f.entries, f.err
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("handle closed")
}

func newTestPipeline(t *testing.T, predictor *stubPredictor) *PipelineService {
	t.Helper()

	classifier, err := aggregator.NewClassifier(models.Thresholds{CriticalBound: 35, WarningBound: 70})
	require.NoError(t, err)

	agg := aggregator.NewAggregator(classifier, "trust_score", "device_id", aggregator.PolicyZero)
	return NewPipelineService(ingest.NewIngestor(1<<20), agg, predictor, zerolog.Nop())
}
