package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferenceResult_DerivedMetrics(t *testing.T) {
	r := &InferenceResult{
		NumSequences:  4,
		Predictions:   []int{0, 1, 0, 1},
		Probabilities: []float64{0.1, 0.8, 0.3, 0.9},
	}

	assert.NoError(t, r.Validate())
	assert.Equal(t, 2, r.AttackCount())
	assert.InDelta(t, 0.525, r.AverageRisk(), 1e-9)
}

func TestInferenceResult_EmptyAverageIsZero(t *testing.T) {
	r := &InferenceResult{}

	assert.NoError(t, r.Validate())
	assert.Equal(t, 0, r.AttackCount())
	assert.Equal(t, 0.0, r.AverageRisk())
}

func TestInferenceResult_ValidateRejectsMisalignedLengths(t *testing.T) {
	tests := []struct {
		name   string
		result InferenceResult
	}{
		{
			name:   "predictions short",
			result: InferenceResult{NumSequences: 2, Predictions: []int{1}, Probabilities: []float64{0.1, 0.2}},
		},
		{
			name:   "probabilities short",
			result: InferenceResult{NumSequences: 2, Predictions: []int{1, 0}, Probabilities: []float64{0.1}},
		},
		{
			name:   "label outside 0/1",
			result: InferenceResult{NumSequences: 1, Predictions: []int{2}, Probabilities: []float64{0.5}},
		},
		{
			name:   "probability above 1",
			result: InferenceResult{NumSequences: 1, Predictions: []int{1}, Probabilities: []float64{1.5}},
		},
		{
			name:   "negative count",
			result: InferenceResult{NumSequences: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.result.Validate())
		})
	}
}
