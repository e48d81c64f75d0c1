package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "trust_score", cfg.TrustScoreField)
	assert.Equal(t, 35.0, cfg.CriticalBound)
	assert.Equal(t, 70.0, cfg.WarningBound)
	assert.Equal(t, MissingScoreZero, cfg.MissingScorePolicy)
	assert.Equal(t, 8, cfg.LogPageSize)
	assert.Equal(t, 60*time.Second, cfg.PredictTimeout)
	assert.Equal(t, "audit/+/log", cfg.MQTTTopicAuditLog)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("TRUST_CRITICAL_BOUND", "40")
	t.Setenv("TRUST_WARNING_BOUND", "80")
	t.Setenv("MISSING_SCORE_POLICY", "exclude")
	t.Setenv("LOG_PAGE_SIZE", "20")
	t.Setenv("PREDICT_TIMEOUT", "5s")
	t.Setenv("MQTT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 40.0, cfg.CriticalBound)
	assert.Equal(t, 80.0, cfg.WarningBound)
	assert.Equal(t, MissingScoreExclude, cfg.MissingScorePolicy)
	assert.Equal(t, 20, cfg.LogPageSize)
	assert.Equal(t, 5*time.Second, cfg.PredictTimeout)
	assert.False(t, cfg.MQTTEnabled)
}

func TestLoad_MalformedValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("TRUST_CRITICAL_BOUND", "low")
	t.Setenv("LOG_PAGE_SIZE", "many")
	t.Setenv("STORAGE_ENABLED", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 35.0, cfg.CriticalBound)
	assert.Equal(t, 8, cfg.LogPageSize)
	assert.True(t, cfg.StorageEnabled)
}

func TestLoad_RejectsInvertedBounds(t *testing.T) {
	t.Setenv("TRUST_CRITICAL_BOUND", "70")
	t.Setenv("TRUST_WARNING_BOUND", "70")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRUST_CRITICAL_BOUND")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPAddr:           ":8080",
			MaxUploadBytes:     1024,
			TrustScoreField:    "trust_score",
			CriticalBound:      35,
			WarningBound:       70,
			MissingScorePolicy: MissingScoreZero,
			PredictURL:         "http://ml/predict",
			LogPageSize:        8,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown policy", mutate: func(c *Config) { c.MissingScorePolicy = "drop" }, wantErr: true},
		{name: "empty predict url", mutate: func(c *Config) { c.PredictURL = "" }, wantErr: true},
		{name: "zero page size", mutate: func(c *Config) { c.LogPageSize = 0 }, wantErr: true},
		{name: "empty score field", mutate: func(c *Config) { c.TrustScoreField = "" }, wantErr: true},
		{name: "critical above warning", mutate: func(c *Config) { c.CriticalBound = 90 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
