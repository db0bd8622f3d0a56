package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
)

// MySQLStore is a MySQL implementation of the TriageStore interface
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL store, creating the schema and seeding
// the default taxonomy when the database is empty. The DSN must set
// parseTime=true so TIMESTAMP columns scan into time.Time.
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS request_types (
			name VARCHAR(255) PRIMARY KEY,
			description TEXT,
			sub_types JSON,
			fields JSON
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create request_types table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS triage_results (
			id VARCHAR(64) PRIMARY KEY,
			sender VARCHAR(512),
			subject VARCHAR(1024),
			is_duplicate BOOLEAN,
			duplicate_reason TEXT,
			duplicate_confidence DOUBLE,
			matched_id VARCHAR(64),
			request_types JSON,
			extracted_fields JSON,
			model_used VARCHAR(255),
			processed_at TIMESTAMP,
			processing_time_ms DOUBLE,
			error TEXT,
			INDEX idx_processed_at (processed_at)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create triage_results table: %w", err)
	}

	s := &MySQLStore{db: db, logger: logger}
	if err := s.seedTaxonomy(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// seedTaxonomy inserts the default taxonomy when the table is empty
func (s *MySQLStore) seedTaxonomy() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM request_types`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count request types: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, rt := range DefaultTaxonomy() {
		subTypes, _ := json.Marshal(rt.SubTypes)
		fields, _ := json.Marshal(rt.Fields)
		if _, err := s.db.Exec(`
			INSERT INTO request_types (name, description, sub_types, fields)
			VALUES (?, ?, ?, ?)
		`, rt.Name, rt.Description, string(subTypes), string(fields)); err != nil {
			return fmt.Errorf("failed to seed request type %q: %w", rt.Name, err)
		}
	}

	s.logger.Info("Seeded default request type taxonomy")
	return nil
}

// ListRequestTypes returns the configured taxonomy
func (s *MySQLStore) ListRequestTypes(ctx context.Context) ([]core.RequestType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, description, sub_types, fields FROM request_types ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query request types: %w", err)
	}
	defer rows.Close()

	var taxonomy []core.RequestType
	for rows.Next() {
		var rt core.RequestType
		var subTypes, fields string
		if err := rows.Scan(&rt.Name, &rt.Description, &subTypes, &fields); err != nil {
			return nil, fmt.Errorf("failed to scan request type: %w", err)
		}
		if err := json.Unmarshal([]byte(subTypes), &rt.SubTypes); err != nil {
			s.logger.Warn("Invalid sub_types JSON", zap.String("request_type", rt.Name), zap.Error(err))
		}
		if err := json.Unmarshal([]byte(fields), &rt.Fields); err != nil {
			s.logger.Warn("Invalid fields JSON", zap.String("request_type", rt.Name), zap.Error(err))
		}
		taxonomy = append(taxonomy, rt)
	}
	return taxonomy, rows.Err()
}

// SaveResult stores a completed triage result
func (s *MySQLStore) SaveResult(ctx context.Context, result *core.TriageResult) error {
	requestTypes, err := json.Marshal(result.RequestTypes)
	if err != nil {
		return fmt.Errorf("failed to encode request types: %w", err)
	}
	extractedFields, err := json.Marshal(result.ExtractedFields)
	if err != nil {
		return fmt.Errorf("failed to encode extracted fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		REPLACE INTO triage_results
		(id, sender, subject, is_duplicate, duplicate_reason, duplicate_confidence,
		 matched_id, request_types, extracted_fields, model_used, processed_at,
		 processing_time_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.ID,
		result.Sender,
		result.Subject,
		result.Duplicate.IsDuplicate,
		result.Duplicate.Reason,
		result.Duplicate.Confidence,
		result.Duplicate.MatchedID,
		string(requestTypes),
		string(extractedFields),
		result.ModelUsed,
		result.ProcessedAt,
		result.ProcessingTimeMs,
		result.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert triage result: %w", err)
	}
	return nil
}

// RecentResults returns up to limit results, newest first
func (s *MySQLStore) RecentResults(ctx context.Context, limit int) ([]*core.TriageResult, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender, subject, is_duplicate, duplicate_reason, duplicate_confidence,
		       matched_id, request_types, extracted_fields, model_used, processed_at,
		       processing_time_ms, error
		FROM triage_results
		ORDER BY processed_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query triage results: %w", err)
	}
	defer rows.Close()

	var results []*core.TriageResult
	for rows.Next() {
		var result core.TriageResult
		var requestTypes, extractedFields string
		if err := rows.Scan(
			&result.ID,
			&result.Sender,
			&result.Subject,
			&result.Duplicate.IsDuplicate,
			&result.Duplicate.Reason,
			&result.Duplicate.Confidence,
			&result.Duplicate.MatchedID,
			&requestTypes,
			&extractedFields,
			&result.ModelUsed,
			&result.ProcessedAt,
			&result.ProcessingTimeMs,
			&result.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan triage result: %w", err)
		}
		if err := json.Unmarshal([]byte(requestTypes), &result.RequestTypes); err != nil {
			s.logger.Warn("Invalid request_types JSON", zap.String("id", result.ID), zap.Error(err))
		}
		if err := json.Unmarshal([]byte(extractedFields), &result.ExtractedFields); err != nil {
			s.logger.Warn("Invalid extracted_fields JSON", zap.String("id", result.ID), zap.Error(err))
		}
		results = append(results, &result)
	}
	return results, rows.Err()
}

// Close closes the database
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
