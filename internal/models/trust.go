package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RiskTier is the categorical classification of a trust score. Tiers are
// ordered: Critical < LowTrust < Healthy.
type RiskTier int

const (
	TierCritical RiskTier = iota
	TierLowTrust
	TierHealthy
)

func (t RiskTier) String() string {
	switch t {
	case TierCritical:
		return "critical"
	case TierLowTrust:
		return "suspicious"
	case TierHealthy:
		return "healthy"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

func (t RiskTier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// ParseRiskTier accepts the tier labels along with the alternate names used
// on the dashboard (anomaly, low_trust, trusted).
func ParseRiskTier(s string) (RiskTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "anomaly":
		return TierCritical, nil
	case "suspicious", "low_trust", "lowtrust":
		return TierLowTrust, nil
	case "healthy", "trusted":
		return TierHealthy, nil
	default:
		return 0, fmt.Errorf("unknown risk tier %q", s)
	}
}

// Thresholds are the canonical classification bounds.
type Thresholds struct {
	CriticalBound float64 `json:"critical_bound"`
	WarningBound  float64 `json:"warning_bound"`
}

func (t Thresholds) Validate() error {
	if t.CriticalBound >= t.WarningBound {
		return fmt.Errorf("critical bound %.2f must be below warning bound %.2f",
			t.CriticalBound, t.WarningBound)
	}
	return nil
}

// FleetSummary holds fleet-wide statistics over one device-record snapshot.
type FleetSummary struct {
	Total          int        `json:"total"`
	Scored         int        `json:"scored"`
	Missing        int        `json:"missing"`
	Trusted        int        `json:"trusted"`
	Suspicious     int        `json:"suspicious"`
	Critical       int        `json:"critical"`
	AverageScore   float64    `json:"average_score"`
	TrustedPercent float64    `json:"trusted_percent"`
	Thresholds     Thresholds `json:"thresholds"`
	MissingPolicy  string     `json:"missing_policy"`
}

// DeviceRow is a device record annotated for the device table. Tier is nil
// when the score is unusable and the missing-score policy excludes it.
type DeviceRow struct {
	DeviceID string       `json:"device_id"`
	Score    float64      `json:"score"`
	Valid    bool         `json:"valid"`
	Tier     *RiskTier    `json:"tier,omitempty"`
	Record   DeviceRecord `json:"record"`
}
