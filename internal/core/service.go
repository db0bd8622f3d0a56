package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TriageService orchestrates the triage workflow: duplicate suppression,
// request type classification, field extraction and result persistence.
type TriageService struct {
	llmClient LLMClient
	detector  DuplicateChecker
	store     TriageStore
	trusted   TrustedSenders
	logger    *zap.Logger
	modelName string
}

// TrustedSenders reports whether a sender's mail bypasses duplicate
// suppression (internal senders often send near-identical templated mail)
type TrustedSenders interface {
	IsTrusted(from string) bool
}

// NewTriageService creates a new triage service
func NewTriageService(
	llmClient LLMClient,
	detector DuplicateChecker,
	store TriageStore,
	trusted TrustedSenders,
	logger *zap.Logger,
	modelName string,
) *TriageService {
	return &TriageService{
		llmClient: llmClient,
		detector:  detector,
		store:     store,
		trusted:   trusted,
		logger:    logger,
		modelName: modelName,
	}
}

// ProcessEmail runs an email through the full triage workflow
func (s *TriageService) ProcessEmail(ctx context.Context, email *Email) (*TriageResult, error) {
	start := time.Now()

	result := &TriageResult{
		ID:          uuid.NewString(),
		Sender:      email.From,
		Subject:     email.Subject,
		ModelUsed:   s.modelName,
		ProcessedAt: start,
	}

	// Duplicate suppression, unless the sender is trusted
	if s.trusted != nil && s.trusted.IsTrusted(email.From) {
		s.logger.Info("Skipping duplicate check for trusted sender",
			zap.String("sender", email.From),
			zap.String("action", "trusted_bypass"))
	} else {
		result.Duplicate = s.detector.CheckDuplicate(ctx, email)
		if result.Duplicate.IsDuplicate {
			s.logger.Info("Duplicate email suppressed",
				zap.String("sender", email.From),
				zap.String("matched_id", result.Duplicate.MatchedID),
				zap.Float64("confidence", result.Duplicate.Confidence))
			result.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
			s.persist(ctx, result)
			return result, nil
		}
	}

	// Classify against the configured taxonomy
	taxonomy, err := s.store.ListRequestTypes(ctx)
	if err != nil {
		s.logger.Error("Failed to load request type taxonomy", zap.Error(err))
		result.Error = "failed to load request type taxonomy: " + err.Error()
		result.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
		return result, err
	}

	requestTypes, err := s.llmClient.ClassifyEmail(ctx, email, taxonomy)
	if err != nil {
		s.logger.Error("Classification failed", zap.Error(err), zap.String("sender", email.From))
		result.Error = "classification failed: " + err.Error()
		result.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
		s.persist(ctx, result)
		return result, err
	}
	result.RequestTypes = requestTypes

	// Extract fields for the primary request type
	if primary := result.PrimaryRequestType(); primary != nil {
		fields := fieldsForType(taxonomy, primary.RequestType)
		extracted, err := s.llmClient.ExtractFields(ctx, email, primary.RequestType, primary.SubRequestType, fields)
		if err != nil {
			// Extraction failure degrades the result rather than failing the email
			s.logger.Warn("Field extraction failed",
				zap.Error(err),
				zap.String("request_type", primary.RequestType))
		} else {
			result.ExtractedFields = extracted
		}
	}

	result.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	s.persist(ctx, result)

	s.logger.Info("Email triaged",
		zap.String("sender", email.From),
		zap.Int("request_types", len(result.RequestTypes)),
		zap.Int("extracted_fields", len(result.ExtractedFields)),
		zap.Float64("processing_time_ms", result.ProcessingTimeMs))

	return result, nil
}

// persist stores the result, logging but not propagating storage failures
func (s *TriageService) persist(ctx context.Context, result *TriageResult) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveResult(ctx, result); err != nil {
		s.logger.Error("Failed to persist triage result", zap.Error(err), zap.String("id", result.ID))
	}
}

// fieldsForType looks up the extraction field list for a request type
func fieldsForType(taxonomy []RequestType, name string) []string {
	for _, rt := range taxonomy {
		if rt.Name == name {
			return rt.Fields
		}
	}
	return nil
}
