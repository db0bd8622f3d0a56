package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
)

// SQLiteStore is a SQLite implementation of the TriageStore interface
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite store, creating the schema and seeding
// the default taxonomy when the database is empty
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS request_types (
			name TEXT PRIMARY KEY,
			description TEXT,
			sub_types TEXT,
			fields TEXT
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create request_types table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS triage_results (
			id TEXT PRIMARY KEY,
			sender TEXT,
			subject TEXT,
			is_duplicate BOOLEAN,
			duplicate_reason TEXT,
			duplicate_confidence REAL,
			matched_id TEXT,
			request_types TEXT,
			extracted_fields TEXT,
			model_used TEXT,
			processed_at TIMESTAMP,
			processing_time_ms REAL,
			error TEXT
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create triage_results table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_processed_at ON triage_results(processed_at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.seedTaxonomy(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// seedTaxonomy inserts the default taxonomy when the table is empty
func (s *SQLiteStore) seedTaxonomy() error {
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
func (s *SQLiteStore) ListRequestTypes(ctx context.Context) ([]core.RequestType, error) {
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
func (s *SQLiteStore) SaveResult(ctx context.Context, result *core.TriageResult) error {
	requestTypes, err := json.Marshal(result.RequestTypes)
	if err != nil {
		return fmt.Errorf("failed to encode request types: %w", err)
	}
	extractedFields, err := json.Marshal(result.ExtractedFields)
	if err != nil {
		return fmt.Errorf("failed to encode extracted fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO triage_results
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
		result.ProcessedAt.Format(time.RFC3339),
		result.ProcessingTimeMs,
		result.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert triage result: %w", err)
	}
	return nil
}

// RecentResults returns up to limit results, newest first
func (s *SQLiteStore) RecentResults(ctx context.Context, limit int) ([]*core.TriageResult, error) {
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
		result, err := scanResult(rows, s.logger)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanResult decodes one triage_results row
func scanResult(rows *sql.Rows, logger *zap.Logger) (*core.TriageResult, error) {
	var result core.TriageResult
	var requestTypes, extractedFields, processedAt string

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
		&processedAt,
		&result.ProcessingTimeMs,
		&result.Error,
	); err != nil {
		return nil, fmt.Errorf("failed to scan triage result: %w", err)
	}

	if err := json.Unmarshal([]byte(requestTypes), &result.RequestTypes); err != nil {
		logger.Warn("Invalid request_types JSON", zap.String("id", result.ID), zap.Error(err))
	}
	if err := json.Unmarshal([]byte(extractedFields), &result.ExtractedFields); err != nil {
		logger.Warn("Invalid extracted_fields JSON", zap.String("id", result.ID), zap.Error(err))
	}
	if t, err := time.Parse(time.RFC3339, processedAt); err == nil {
		result.ProcessedAt = t
	}

	return &result, nil
}
