package models

import (
	"fmt"
	"math"
	"time"
)

// PredictionAnomalous is the prediction label marking an anomalous sequence.
const PredictionAnomalous = 1

// InferenceResult is the response of the remote detection endpoint.
type InferenceResult struct {
	NumSequences  int       `json:"num_sequences"`
	Predictions   []int     `json:"predictions"`
	Probabilities []float64 `json:"probabilities"`
}

// Validate enforces len(predictions) == len(probabilities) == num_sequences.
func (r *InferenceResult) Validate() error {
	if r.NumSequences < 0 {
		return fmt.Errorf("num_sequences is negative: %d", r.NumSequences)
	}
	if len(r.Predictions) != r.NumSequences {
		return fmt.Errorf("got %d predictions for %d sequences", len(r.Predictions), r.NumSequences)
	}
	if len(r.Probabilities) != r.NumSequences {
		return fmt.Errorf("got %d probabilities for %d sequences", len(r.Probabilities), r.NumSequences)
	}
	for i, p := range r.Predictions {
		if p != 0 && p != PredictionAnomalous {
			return fmt.Errorf("prediction %d has label %d, want 0 or 1", i, p)
		}
	}
	for i, p := range r.Probabilities {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("probability %d is %v, want a value in [0,1]", i, p)
		}
	}
	return nil
}

// AttackCount counts predictions carrying the anomalous label.
func (r *InferenceResult) AttackCount() int {
	count := 0
	for _, p := range r.Predictions {
		if p == PredictionAnomalous {
			count++
		}
	}
	return count
}

// AverageRisk is the mean probability, or 0 when there are no sequences.
func (r *InferenceResult) AverageRisk() float64 {
	if len(r.Probabilities) == 0 {
		return 0
	}

	var sum float64
	for _, p := range r.Probabilities {
		sum += p
	}
	return sum / float64(len(r.Probabilities))
}

// InferenceState is the state of the inference request controller.
type InferenceState string

const (
	InferenceIdle       InferenceState = "idle"
	InferenceSubmitting InferenceState = "submitting"
	InferenceSucceeded  InferenceState = "succeeded"
	InferenceFailed     InferenceState = "failed"
)

// InferenceRun records one completed submission.
type InferenceRun struct {
	ID          string           `json:"id"`
	FileName    string           `json:"file_name"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	State       InferenceState   `json:"state"`
	Result      *InferenceResult `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	AttackCount int              `json:"attack_count"`
	AverageRisk float64          `json:"average_risk"`
}

// InferenceSnapshot is what the dashboard reads from the controller. Result
// is the last successful result and survives later failures.
type InferenceSnapshot struct {
	State       InferenceState   `json:"state"`
	Loading     bool             `json:"loading"`
	Result      *InferenceResult `json:"result,omitempty"`
	AttackCount int              `json:"attack_count"`
	AverageRisk float64          `json:"average_risk"`
	LastError   string           `json:"last_error,omitempty"`
	LastRun     *InferenceRun    `json:"last_run,omitempty"`
}
