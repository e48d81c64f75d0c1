package database

// SQL schemas for all ClickHouse tables

const (
	// DeviceUploadsTableSQL creates the device_uploads table
	DeviceUploadsTableSQL = `
		CREATE TABLE IF NOT EXISTS device_uploads (
			upload_id String,
			uploaded_at DateTime64(3),
			file_name String,
			file_size UInt64,
			name_digest String,
			record_count UInt32,
			columns Array(String)
		) ENGINE = MergeTree()
		ORDER BY (uploaded_at, upload_id)
		PARTITION BY toYYYYMM(uploaded_at)
	`

	// FleetSummariesTableSQL creates the fleet_summaries table
	FleetSummariesTableSQL = `
		CREATE TABLE IF NOT EXISTS fleet_summaries (
			computed_at DateTime64(3),
			upload_id String,
			total UInt32,
			scored UInt32,
			missing UInt32,
			trusted UInt32,
			suspicious UInt32,
			critical UInt32,
			average_score Float64,
			trusted_percent Float64,
			critical_bound Float64,
			warning_bound Float64,
			missing_policy LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY (computed_at, upload_id)
		PARTITION BY toYYYYMM(computed_at)
	`

	// InferenceRunsTableSQL creates the inference_runs table
	InferenceRunsTableSQL = `
		CREATE TABLE IF NOT EXISTS inference_runs (
			run_id String,
			started_at DateTime64(3),
			finished_at DateTime64(3),
			file_name String,
			state LowCardinality(String),
			num_sequences UInt32,
			attack_count UInt32,
			average_risk Float64,
			predictions Array(UInt8),
			probabilities Array(Float64),
			error String
		) ENGINE = MergeTree()
		ORDER BY (started_at, run_id)
		PARTITION BY toYYYYMM(started_at)
	`

	// AuditLogsTableSQL creates the append-only audit_logs table
	AuditLogsTableSQL = `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id String,
			timestamp DateTime64(3),
			actor String,
			action String,
			details String,
			level LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY (timestamp, id)
		PARTITION BY toYYYYMM(timestamp)
	`
)

// ListAuditLogsSQL selects the newest entries and returns them oldest first
const ListAuditLogsSQL = `
	SELECT id, timestamp, actor, action, details, level
	FROM (
		SELECT id, timestamp, actor, action, details, level
		FROM audit_logs
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	)
	ORDER BY timestamp ASC, id ASC
`

// AllTables returns all table creation SQL statements
func AllTables() []string {
	return []string{
		DeviceUploadsTableSQL,
		FleetSummariesTableSQL,
		InferenceRunsTableSQL,
		AuditLogsTableSQL,
	}
}
