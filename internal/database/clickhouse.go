package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog"

	"trustcast/internal/models"
)

type ClickHouseDB struct {
	conn driver.Conn
	log  zerolog.Logger
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(ctx context.Context, addr, database, username, password string, log zerolog.Logger) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Info().Str("addr", addr).Msg("connected to ClickHouse")

	db := &ClickHouseDB{conn: conn, log: log}

	if err := db.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// InitSchema creates the necessary tables if they don't exist
func (db *ClickHouseDB) InitSchema(ctx context.Context) error {
	for _, tableSQL := range AllTables() {
		if err := db.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	db.log.Info().Msg("database schema initialized")
	return nil
}

// SaveUpload records upload metadata (not the file content)
func (db *ClickHouseDB) SaveUpload(ctx context.Context, file *models.UploadedFile, records []models.DeviceRecord) error {
	columns := file.Columns
	if len(columns) == 0 && len(records) > 0 {
		columns = records[0].Keys()
	}

	query := `
		INSERT INTO device_uploads (upload_id, uploaded_at, file_name, file_size, name_digest, record_count, columns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	err := db.conn.Exec(ctx, query,
		file.ID,
		file.UploadedAt,
		file.Name,
		uint64(file.Size),
		file.Fingerprint.Digest,
		uint32(len(records)),
		columns,
	)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}

	return nil
}

// SaveFleetSummary stores the summary computed for an upload
func (db *ClickHouseDB) SaveFleetSummary(ctx context.Context, uploadID string, computedAt time.Time, s models.FleetSummary) error {
	query := `
		INSERT INTO fleet_summaries (computed_at, upload_id, total, scored, missing, trusted, suspicious, critical,
			average_score, trusted_percent, critical_bound, warning_bound, missing_policy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := db.conn.Exec(ctx, query,
		computedAt,
		uploadID,
		uint32(s.Total),
		uint32(s.Scored),
		uint32(s.Missing),
		uint32(s.Trusted),
		uint32(s.Suspicious),
		uint32(s.Critical),
		s.AverageScore,
		s.TrustedPercent,
		s.Thresholds.CriticalBound,
		s.Thresholds.WarningBound,
		s.MissingPolicy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fleet summary: %w", err)
	}

	return nil
}

// SaveInferenceRun stores a resolved inference submission
func (db *ClickHouseDB) SaveInferenceRun(ctx context.Context, run models.InferenceRun) error {
	var (
		numSequences  uint32
		predictions   = []uint8{}
		probabilities = []float64{}
	)
	if run.Result != nil {
		numSequences = uint32(run.Result.NumSequences)
		for _, p := range run.Result.Predictions {
			predictions = append(predictions, uint8(p))
		}
		probabilities = run.Result.Probabilities
	}

	query := `
		INSERT INTO inference_runs (run_id, started_at, finished_at, file_name, state, num_sequences,
			attack_count, average_risk, predictions, probabilities, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := db.conn.Exec(ctx, query,
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		run.FileName,
		string(run.State),
		numSequences,
		uint32(run.AttackCount),
		run.AverageRisk,
		predictions,
		probabilities,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert inference run: %w", err)
	}

	return nil
}

// SaveAuditLog appends one audit entry
func (db *ClickHouseDB) SaveAuditLog(ctx context.Context, entry models.LogEntry) error {
	query := `
		INSERT INTO audit_logs (id, timestamp, actor, action, details, level)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	err := db.conn.Exec(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.Actor,
		entry.Action,
		entry.Details,
		string(entry.Level),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// ListAuditLogs returns the newest limit entries, oldest first like the
// in-process journal
func (db *ClickHouseDB) ListAuditLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = 1000
	}

	rows, err := db.conn.Query(ctx, ListAuditLogsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LogEntry, 0, limit)
	for rows.Next() {
		var (
			e     models.LogEntry
			level string
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Actor, &e.Action, &e.Details, &level); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		e.Level = models.Severity(level)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit logs: %w", err)
	}

	return entries, nil
}

// Close closes the ClickHouse connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		if err := db.conn.Close(); err != nil {
			return fmt.Errorf("failed to close ClickHouse connection: %w", err)
		}
		db.log.Info().Msg("ClickHouse connection closed")
	}
	return nil
}
