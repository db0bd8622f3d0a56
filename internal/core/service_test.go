package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLLMClient struct {
	classifications []RequestTypeResult
	classifyErr     error
	extracted       []ExtractedField
	extractErr      error

	classifyCalls int
	extractCalls  int
	lastFields    []string
}

func (s *stubLLMClient) ClassifyEmail(ctx context.Context, email *Email, taxonomy []RequestType) ([]RequestTypeResult, error) {
	s.classifyCalls++
	return s.classifications, s.classifyErr
}

func (s *stubLLMClient) ExtractFields(ctx context.Context, email *Email, requestType, subRequestType string, fields []string) ([]ExtractedField, error) {
	s.extractCalls++
	s.lastFields = fields
	return s.extracted, s.extractErr
}

type stubChecker struct {
	verdict DuplicateVerdict
	calls   int
}

func (s *stubChecker) CheckDuplicate(ctx context.Context, email *Email) DuplicateVerdict {
	s.calls++
	return s.verdict
}

type stubStore struct {
	taxonomy    []RequestType
	taxonomyErr error
	saved       []*TriageResult
	saveErr     error
}

func (s *stubStore) ListRequestTypes(ctx context.Context) ([]RequestType, error) {
	return s.taxonomy, s.taxonomyErr
}

func (s *stubStore) SaveResult(ctx context.Context, result *TriageResult) error {
	s.saved = append(s.saved, result)
	return s.saveErr
}

func (s *stubStore) RecentResults(ctx context.Context, limit int) ([]*TriageResult, error) {
	return s.saved, nil
}

func (s *stubStore) Close() error { return nil }

type stubTrusted struct{ trusted bool }

func (s *stubTrusted) IsTrusted(from string) bool { return s.trusted }

func serviceEmail() *Email {
	return &Email{
		From:    "jane@bank.com",
		To:      []string{"ops@bank.com"},
		Subject: "Fee payment for Project Alpha",
		Body:    "Please settle the ongoing fee of 12000 USD.",
	}
}

func TestProcessEmailFullPipeline(t *testing.T) {
	llm := &stubLLMClient{
		classifications: []RequestTypeResult{
			{RequestType: "Fee Payment", SubRequestType: "Ongoing Fee", Confidence: 0.92, IsPrimary: true},
			{RequestType: "Adjustment", Confidence: 0.3},
		},
		extracted: []ExtractedField{{FieldName: "amount", Value: "12000", Confidence: 0.98}},
	}
	checker := &stubChecker{}
	store := &stubStore{taxonomy: []RequestType{
		{Name: "Fee Payment", Fields: []string{"amount", "deal_name"}},
		{Name: "Adjustment"},
	}}

	svc := NewTriageService(llm, checker, store, &stubTrusted{}, zap.NewNop(), "test-model")
	result, err := svc.ProcessEmail(context.Background(), serviceEmail())

	require.NoError(t, err)
	assert.False(t, result.Duplicate.IsDuplicate)
	assert.Len(t, result.RequestTypes, 2)
	assert.Len(t, result.ExtractedFields, 1)
	assert.Equal(t, "test-model", result.ModelUsed)
	assert.NotEmpty(t, result.ID)

	// Extraction receives the field list of the primary request type
	assert.Equal(t, []string{"amount", "deal_name"}, llm.lastFields)

	require.Len(t, store.saved, 1)
	assert.Equal(t, result, store.saved[0])
}

func TestProcessEmailDuplicateSkipsClassification(t *testing.T) {
	llm := &stubLLMClient{}
	checker := &stubChecker{verdict: DuplicateVerdict{
		IsDuplicate: true,
		Confidence:  0.95,
		MatchedID:   "abc",
	}}
	store := &stubStore{}

	svc := NewTriageService(llm, checker, store, &stubTrusted{}, zap.NewNop(), "test-model")
	result, err := svc.ProcessEmail(context.Background(), serviceEmail())

	require.NoError(t, err)
	assert.True(t, result.Duplicate.IsDuplicate)
	assert.Equal(t, 0, llm.classifyCalls)
	assert.Equal(t, 0, llm.extractCalls)

	// Suppressed duplicates are still recorded
	require.Len(t, store.saved, 1)
}

func TestProcessEmailTrustedSenderBypassesDuplicateCheck(t *testing.T) {
	llm := &stubLLMClient{
		classifications: []RequestTypeResult{{RequestType: "Adjustment", IsPrimary: true}},
	}
	checker := &stubChecker{verdict: DuplicateVerdict{IsDuplicate: true}}
	store := &stubStore{taxonomy: []RequestType{{Name: "Adjustment"}}}

	svc := NewTriageService(llm, checker, store, &stubTrusted{trusted: true}, zap.NewNop(), "test-model")
	result, err := svc.ProcessEmail(context.Background(), serviceEmail())

	require.NoError(t, err)
	assert.Equal(t, 0, checker.calls)
	assert.False(t, result.Duplicate.IsDuplicate)
	assert.Equal(t, 1, llm.classifyCalls)
}

func TestProcessEmailClassificationFailure(t *testing.T) {
	llm := &stubLLMClient{classifyErr: errors.New("model unavailable")}
	store := &stubStore{taxonomy: []RequestType{{Name: "Adjustment"}}}

	svc := NewTriageService(llm, &stubChecker{}, store, &stubTrusted{}, zap.NewNop(), "test-model")
	result, err := svc.ProcessEmail(context.Background(), serviceEmail())

	assert.Error(t, err)
	assert.Contains(t, result.Error, "classification failed")
	assert.Empty(t, result.RequestTypes)

	// Failed attempts are persisted for the audit trail
	require.Len(t, store.saved, 1)
}

func TestProcessEmailExtractionFailureDegrades(t *testing.T) {
	llm := &stubLLMClient{
		classifications: []RequestTypeResult{{RequestType: "Adjustment", IsPrimary: true}},
		extractErr:      errors.New("timeout"),
	}
	store := &stubStore{taxonomy: []RequestType{{Name: "Adjustment"}}}

	svc := NewTriageService(llm, &stubChecker{}, store, &stubTrusted{}, zap.NewNop(), "test-model")
	result, err := svc.ProcessEmail(context.Background(), serviceEmail())

	// Extraction failure never fails the email
	require.NoError(t, err)
	assert.Len(t, result.RequestTypes, 1)
	assert.Empty(t, result.ExtractedFields)
	assert.Empty(t, result.Error)
}

func TestProcessEmailTaxonomyFailure(t *testing.T) {
	store := &stubStore{taxonomyErr: errors.New("db gone")}

	svc := NewTriageService(&stubLLMClient{}, &stubChecker{}, store, &stubTrusted{}, zap.NewNop(), "test-model")
	result, err := svc.ProcessEmail(context.Background(), serviceEmail())

	assert.Error(t, err)
	assert.Contains(t, result.Error, "taxonomy")
}

func TestPrimaryRequestType(t *testing.T) {
	r := &TriageResult{RequestTypes: []RequestTypeResult{
		{RequestType: "A"},
		{RequestType: "B", IsPrimary: true},
	}}
	require.NotNil(t, r.PrimaryRequestType())
	assert.Equal(t, "B", r.PrimaryRequestType().RequestType)

	// Without an explicit primary the first result wins
	r = &TriageResult{RequestTypes: []RequestTypeResult{{RequestType: "A"}}}
	assert.Equal(t, "A", r.PrimaryRequestType().RequestType)

	assert.Nil(t, (&TriageResult{}).PrimaryRequestType())
}

func TestEmailRecipient(t *testing.T) {
	e := &Email{To: []string{"a@x.com", "b@x.com"}}
	assert.Equal(t, "a@x.com, b@x.com", e.Recipient())

	assert.Equal(t, "", (&Email{}).Recipient())
}
