package aggregator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"trustcast/internal/models"
)

// ScorePolicy decides what happens to a record whose trust score is missing
// or not a finite number.
type ScorePolicy string

const (
	// PolicyZero counts an unusable score as 0.
	PolicyZero ScorePolicy = "zero"
	// PolicyExclude leaves the record out of the scored population.
	PolicyExclude ScorePolicy = "exclude"
)

func ParseScorePolicy(s string) (ScorePolicy, error) {
	switch ScorePolicy(s) {
	case PolicyZero, PolicyExclude:
		return ScorePolicy(s), nil
	default:
		return "", fmt.Errorf("unknown missing score policy %q", s)
	}
}

// ParseScore reads field from rec as a float. ok is false when the field is
// absent, empty, non-numeric, NaN or infinite.
func ParseScore(rec models.DeviceRecord, field string) (score float64, ok bool) {
	raw, present := rec.Get(field)
	if !present {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Aggregator derives fleet statistics from a device-record snapshot.
type Aggregator struct {
	classifier *Classifier
	scoreField string
	idField    string
	policy     ScorePolicy
}

func NewAggregator(classifier *Classifier, scoreField, idField string, policy ScorePolicy) *Aggregator {
	return &Aggregator{
		classifier: classifier,
		scoreField: scoreField,
		idField:    idField,
		policy:     policy,
	}
}

func (a *Aggregator) Classifier() *Classifier {
	return a.classifier
}

// Summarize computes a FleetSummary from scratch. It has no side effects and
// returns zero-valued statistics for an empty population.
func (a *Aggregator) Summarize(records []models.DeviceRecord) models.FleetSummary {
	summary := models.FleetSummary{
		Total:         len(records),
		Thresholds:    a.classifier.Thresholds(),
		MissingPolicy: string(a.policy),
	}

	var sum float64
	for _, rec := range records {
		score, ok := ParseScore(rec, a.scoreField)
		if !ok {
			summary.Missing++
			if a.policy == PolicyExclude {
				continue
			}
		}

		summary.Scored++
		sum += score

		switch a.classifier.Classify(score) {
		case models.TierHealthy:
			summary.Trusted++
		case models.TierCritical:
			summary.Critical++
		default:
			summary.Suspicious++
		}
	}

	if summary.Scored > 0 {
		summary.AverageScore = sum / float64(summary.Scored)
		summary.TrustedPercent = 100 * float64(summary.Trusted) / float64(summary.Scored)
	}

	return summary
}

// Rows annotates each record with its score and tier, in snapshot order.
// When only is non-nil, rows in any other tier are left out.
func (a *Aggregator) Rows(records []models.DeviceRecord, only *models.RiskTier) []models.DeviceRow {
	rows := make([]models.DeviceRow, 0, len(records))

	for _, rec := range records {
		score, ok := ParseScore(rec, a.scoreField)
		id, _ := rec.Get(a.idField)

		row := models.DeviceRow{
			DeviceID: id,
			Score:    score,
			Valid:    ok,
			Record:   rec,
		}

		if ok || a.policy == PolicyZero {
			tier := a.classifier.Classify(score)
			row.Tier = &tier
		}

		if only != nil && (row.Tier == nil || *row.Tier != *only) {
			continue
		}

		rows = append(rows, row)
	}

	return rows
}
