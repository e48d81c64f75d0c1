package aggregator

import "trustcast/internal/models"

// Classifier maps trust scores to risk tiers. Every consumer that colours,
// counts or filters devices by tier goes through the same Classifier.
type Classifier struct {
	thresholds models.Thresholds
}

// NewClassifier validates the bounds and returns a classifier.
func NewClassifier(thresholds models.Thresholds) (*Classifier, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{thresholds: thresholds}, nil
}

// Classify applies half-open bounds: [.., critical) is Critical,
// [critical, warning) is LowTrust and [warning, ..) is Healthy.
func (c *Classifier) Classify(score float64) models.RiskTier {
	switch {
	case score < c.thresholds.CriticalBound:
		return models.TierCritical
	case score < c.thresholds.WarningBound:
		return models.TierLowTrust
	default:
		return models.TierHealthy
	}
}

func (c *Classifier) Thresholds() models.Thresholds {
	return c.thresholds
}
