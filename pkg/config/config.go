package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"trustcast/pkg/logger"
)

// Missing score policies.
const (
	MissingScoreZero    = "zero"
	MissingScoreExclude = "exclude"
)

type Config struct {
	// HTTP API
	HTTPAddr       string
	MaxUploadBytes int64

	// Device record schema
	TrustScoreField string
	DeviceIDField   string

	// Classification bounds shared by every consumer
	CriticalBound      float64
	WarningBound       float64
	MissingScorePolicy string

	// Remote inference
	PredictURL     string
	PredictTimeout time.Duration

	// Audit log source
	LogSourceURL  string
	LogPageSize   int
	LogFetchLimit int

	// MQTT Configuration
	MQTTEnabled  bool
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	MQTTTopicAuditLog        string
	MQTTTopicFleetSummary    string
	MQTTTopicInferenceResult string
	MQTTTopicNotification    string

	// ClickHouse Configuration
	StorageEnabled bool
	ClickHouseAddr string
	ClickHouseDB   string
	ClickHouseUser string
	ClickHousePass string

	Logging logger.Config
}

// Load reads configuration from the environment, after loading a .env file
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 32<<20)),

		TrustScoreField: getEnv("TRUST_SCORE_FIELD", "trust_score"),
		DeviceIDField:   getEnv("DEVICE_ID_FIELD", "device_id"),

		CriticalBound:      getEnvFloat("TRUST_CRITICAL_BOUND", 35),
		WarningBound:       getEnvFloat("TRUST_WARNING_BOUND", 70),
		MissingScorePolicy: getEnv("MISSING_SCORE_POLICY", MissingScoreZero),

		PredictURL:     getEnv("PREDICT_URL", "http://localhost:8000/predict"),
		PredictTimeout: getEnvDuration("PREDICT_TIMEOUT", 60*time.Second),

		LogSourceURL:  getEnv("LOG_SOURCE_URL", ""),
		LogPageSize:   getEnvInt("LOG_PAGE_SIZE", 8),
		LogFetchLimit: getEnvInt("LOG_FETCH_LIMIT", 1000),

		MQTTEnabled:  getEnvBool("MQTT_ENABLED", true),
		MQTTBroker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "trustcast"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),

		MQTTTopicAuditLog:        getEnv("MQTT_TOPIC_AUDIT_LOG", "audit/+/log"),
		MQTTTopicFleetSummary:    getEnv("MQTT_TOPIC_FLEET_SUMMARY", "trust/fleet/summary"),
		MQTTTopicInferenceResult: getEnv("MQTT_TOPIC_INFERENCE_RESULT", "trust/inference/{state}"),
		MQTTTopicNotification:    getEnv("MQTT_TOPIC_NOTIFICATION", "trust/notifications"),

		StorageEnabled: getEnvBool("STORAGE_ENABLED", true),
		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "trustcast"),
		ClickHouseUser: getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass: getEnv("CLICKHOUSE_PASS", ""),

		Logging: *logger.DefaultConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}

	if c.TrustScoreField == "" {
		return fmt.Errorf("TRUST_SCORE_FIELD is required")
	}

	if c.CriticalBound >= c.WarningBound {
		return fmt.Errorf("TRUST_CRITICAL_BOUND (%.2f) must be below TRUST_WARNING_BOUND (%.2f)",
			c.CriticalBound, c.WarningBound)
	}

	switch c.MissingScorePolicy {
	case MissingScoreZero, MissingScoreExclude:
	default:
		return fmt.Errorf("MISSING_SCORE_POLICY must be %q or %q, got %q",
			MissingScoreZero, MissingScoreExclude, c.MissingScorePolicy)
	}

	if c.PredictURL == "" {
		return fmt.Errorf("PREDICT_URL is required")
	}

	if c.LogPageSize <= 0 {
		return fmt.Errorf("LOG_PAGE_SIZE must be positive")
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to parse float, using default")
		return defaultValue
	}
	return floatValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to parse int, using default")
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to parse bool, using default")
		return defaultValue
	}
	return boolValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to parse duration, using default")
		return defaultValue
	}
	return d
}
