package prompts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/llm-email-triage/internal/core"
)

func testEmail() *core.Email {
	return &core.Email{
		From:       "jane@bank.com",
		To:         []string{"ops@bank.com", "desk@bank.com"},
		Subject:    "Wire transfer request",
		ReceivedAt: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildClassification(t *testing.T) {
	taxonomy := []core.RequestType{
		{Name: "Money Movement - Outbound", Description: "Outgoing transfers", SubTypes: []string{"Timebound", "Foreign Currency"}},
		{Name: "Fee Payment", Description: "Fee settlements"},
	}

	system, user := BuildClassification(testEmail(), taxonomy, "body text")

	assert.Contains(t, system, "Money Movement - Outbound: Outgoing transfers")
	assert.Contains(t, system, "sub-types: Timebound, Foreign Currency")
	assert.Contains(t, system, "Fee Payment: Fee settlements")
	assert.Contains(t, user, "jane@bank.com")
	assert.Contains(t, user, "ops@bank.com, desk@bank.com")
	assert.Contains(t, user, "Wire transfer request")
	assert.Contains(t, user, "body text")
}

func TestBuildExtraction(t *testing.T) {
	system, user := BuildExtraction(testEmail(), "Fee Payment", "Ongoing Fee", []string{"amount", "deal_name"}, "body text")

	assert.Contains(t, system, "Fee Payment - Ongoing Fee")
	assert.Contains(t, system, "- amount\n- deal_name")
	assert.Contains(t, user, "body text")
}

func TestBuildExtractionNoFields(t *testing.T) {
	system, _ := BuildExtraction(testEmail(), "Adjustment", "", nil, "body")

	assert.Contains(t, system, "any fields relevant to the request")
}

func TestParseRequestTypesCleanJSON(t *testing.T) {
	response := `[{"request_type":"Fee Payment","sub_request_type":"Ongoing Fee","confidence":0.92,"reasoning":"fee keywords","is_primary":true}]`

	results, err := ParseRequestTypes(response)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Fee Payment", results[0].RequestType)
	assert.Equal(t, "Ongoing Fee", results[0].SubRequestType)
	assert.Equal(t, 0.92, results[0].Confidence)
	assert.True(t, results[0].IsPrimary)
}

func TestParseRequestTypesSalvagesProse(t *testing.T) {
	response := "Here is my analysis:\n" +
		`[{"request_type":"Adjustment","confidence":0.8,"is_primary":true}]` +
		"\nLet me know if you need more."

	results, err := ParseRequestTypes(response)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Adjustment", results[0].RequestType)
}

func TestParseRequestTypesInvalid(t *testing.T) {
	_, err := ParseRequestTypes("the model refused to answer")
	assert.Error(t, err)

	_, err = ParseRequestTypes("[{broken json]")
	assert.Error(t, err)
}

func TestParseExtractedFieldsStringAndNumericValues(t *testing.T) {
	response := `[
		{"field_name":"amount","value":50000,"confidence":0.98,"source":"email_body"},
		{"field_name":"deal_name","value":"Project Alpha","confidence":0.9,"source":"subject"}
	]`

	fields, err := ParseExtractedFields(response)

	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "50000", fields[0].Value)
	assert.Equal(t, "Project Alpha", fields[1].Value)
	assert.Equal(t, "email_body", fields[0].Source)
}

func TestParseExtractedFieldsSalvagesProse(t *testing.T) {
	response := "Extracted fields follow: [{\"field_name\":\"amount\",\"value\":\"100\",\"confidence\":0.5,\"source\":\"body\"}] done"

	fields, err := ParseExtractedFields(response)

	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "amount", fields[0].FieldName)
}
