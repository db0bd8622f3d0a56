package core

import (
	"context"
)

// LLMClient defines the interface for the LLM-backed classification and
// extraction calls
type LLMClient interface {
	// ClassifyEmail identifies the request types present in an email
	ClassifyEmail(ctx context.Context, email *Email, taxonomy []RequestType) ([]RequestTypeResult, error)

	// ExtractFields extracts structured fields for the given request type
	ExtractFields(ctx context.Context, email *Email, requestType, subRequestType string, fields []string) ([]ExtractedField, error)
}

// DuplicateChecker decides whether an email is a duplicate of one seen before
type DuplicateChecker interface {
	CheckDuplicate(ctx context.Context, email *Email) DuplicateVerdict
}

// TriageStore persists the request type taxonomy and triage results
type TriageStore interface {
	// ListRequestTypes returns the configured taxonomy
	ListRequestTypes(ctx context.Context) ([]RequestType, error)

	// SaveResult stores a completed triage result
	SaveResult(ctx context.Context, result *TriageResult) error

	// RecentResults returns up to limit results, newest first
	RecentResults(ctx context.Context, limit int) ([]*TriageResult, error)

	// Close releases any underlying resources
	Close() error
}

// EmailIngest defines the interface for an email ingestion surface
type EmailIngest interface {
	// Start starts the ingestion surface
	Start() error

	// Stop stops the ingestion surface
	Stop() error
}
