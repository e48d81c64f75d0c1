package inference

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trustcast/internal/models"
)

// Controller drives one submission at a time through
// Idle -> Submitting -> Succeeded|Failed. A failed submission keeps the last
// successful result; nothing is retried automatically.
type Controller struct {
	predictor Predictor
	log       zerolog.Logger
	now       func() time.Time

	mu      sync.Mutex
	state   models.InferenceState
	result  *models.InferenceResult
	lastErr string
	lastRun *models.InferenceRun

	onNotify   func(models.Notification)
	onStart    func(models.InferenceRun)
	onComplete func(models.InferenceRun)
}

func NewController(predictor Predictor, log zerolog.Logger) *Controller {
	return &Controller{
		predictor: predictor,
		log:       log,
		now:       time.Now,
		state:     models.InferenceIdle,
	}
}

// SetNotifier registers the callback for user-visible notifications.
func (c *Controller) SetNotifier(fn func(models.Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onNotify = fn
}

// SetStartHandler registers the callback invoked once a submission has been
// accepted, before the request is sent.
func (c *Controller) SetStartHandler(fn func(models.InferenceRun)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStart = fn
}

// SetCompletionHandler registers the callback invoked after every resolved
// submission, successful or not.
func (c *Controller) SetCompletionHandler(fn func(models.InferenceRun)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onComplete = fn
}

// Submit sends file to the detection endpoint and blocks until it resolves.
// A second call while one is pending returns ErrSubmissionInFlight. The
// in-flight request is detached from ctx cancellation.
func (c *Controller) Submit(ctx context.Context, file *models.UploadedFile) (*models.InferenceRun, error) {
	if file == nil {
		c.notify(models.NotifyWarning, "Select a file before running detection")
		return nil, ErrNoFileSelected
	}

	c.mu.Lock()
	if c.state == models.InferenceSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	c.state = models.InferenceSubmitting
	run := models.InferenceRun{
		ID:        uuid.NewString(),
		FileName:  file.Name,
		StartedAt: c.now().UTC(),
		State:     models.InferenceSubmitting,
	}
	onStart := c.onStart
	c.mu.Unlock()

	c.log.Info().Str("run_id", run.ID).Str("file", file.Name).Msg("submitting file for detection")

	if onStart != nil {
		onStart(run)
	}

	result, err := c.predict(context.WithoutCancel(ctx), file)

	run.FinishedAt = c.now().UTC()

	c.mu.Lock()
	if err != nil {
		run.State = models.InferenceFailed
		run.Error = err.Error()
		c.state = models.InferenceFailed
		c.lastErr = err.Error()
	} else {
		run.State = models.InferenceSucceeded
		run.Result = result
		run.AttackCount = result.AttackCount()
		run.AverageRisk = result.AverageRisk()
		c.state = models.InferenceSucceeded
		c.result = result
		c.lastErr = ""
	}
	stored := run
	c.lastRun = &stored
	onComplete := c.onComplete
	c.mu.Unlock()

	if err != nil {
		c.log.Error().Err(err).Str("run_id", run.ID).Msg("detection request failed")
		c.notify(models.NotifyError, fmt.Sprintf("Detection failed: %v", err))
	} else {
		c.log.Info().
			Str("run_id", run.ID).
			Int("sequences", result.NumSequences).
			Int("attacks", run.AttackCount).
			Float64("average_risk", run.AverageRisk).
			Msg("detection completed")
		c.notify(models.NotifyInfo, fmt.Sprintf("Detection completed: %d of %d sequences flagged",
			run.AttackCount, result.NumSequences))
	}

	if onComplete != nil {
		onComplete(run)
	}

	if err != nil {
		return &run, err
	}
	return &run, nil
}

// predict calls the predictor, turning a panic into an error so the
// submission still resolves.
func (c *Controller) predict(ctx context.Context, file *models.UploadedFile) (result *models.InferenceResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrPredictorPanic, r)
		}
	}()

	return c.predictor.Predict(ctx, file)
}

// Snapshot returns the current state. Attack count and average risk are
// computed from the stored result on every call.
func (c *Controller) Snapshot() models.InferenceSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := models.InferenceSnapshot{
		State:     c.state,
		Loading:   c.state == models.InferenceSubmitting,
		Result:    c.result,
		LastError: c.lastErr,
	}
	if c.result != nil {
		snap.AttackCount = c.result.AttackCount()
		snap.AverageRisk = c.result.AverageRisk()
	}
	if c.lastRun != nil {
		run := *c.lastRun
		snap.LastRun = &run
	}
	return snap
}

func (c *Controller) notify(level models.NotificationLevel, message string) {
	c.mu.Lock()
	fn := c.onNotify
	c.mu.Unlock()

	if fn == nil {
		return
	}
	fn(models.Notification{
		Level:     level,
		Message:   message,
		Timestamp: c.now().UTC(),
	})
}
