// Package prompts builds the LLM prompts shared by all provider adapters
// and parses their JSON responses.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikey/llm-email-triage/internal/core"
)

// ClassificationSystemPrompt instructs the model to identify request types
const ClassificationSystemPrompt = `You are an AI assistant specializing in classifying banking service emails.

TASK:
Analyze the provided email to identify all request types and sub-request types based on the sender's intent.
Determine which request is the primary intent if multiple are present.

AVAILABLE REQUEST TYPES:
%s

YOUR RESPONSE MUST BE A VALID JSON ARRAY of objects with this structure:
[
  {
    "request_type": "Main request type",
    "sub_request_type": "Sub-request type",
    "confidence": 0.95,
    "reasoning": "Explanation for why this classification was chosen",
    "is_primary": true
  }
]

RULES:
- The primary request should represent the sender's main intent
- Provide confidence scores between 0 and 1 (higher = more confident)
- Only one request type should be marked as primary (is_primary: true)
- Match request types exactly as provided in the available types
- Respond only with the JSON array and nothing else`

// ExtractionSystemPrompt instructs the model to mine structured fields
const ExtractionSystemPrompt = `You are an AI assistant specializing in extracting data from banking service emails.

TASK:
Extract relevant fields based on the identified request type: %s - %s

FIELDS TO EXTRACT:
%s

YOUR RESPONSE MUST BE A VALID JSON ARRAY of objects with this structure:
[
  {
    "field_name": "amount",
    "value": "50000",
    "confidence": 0.98,
    "source": "email_body"
  }
]

Respond only with the JSON array and nothing else`

// emailPrompt lays out the email itself for the model
const emailPrompt = `EMAIL METADATA:
- Sender: %s
- Recipients: %s
- Subject: %s
- Received: %s

EMAIL CONTENT:
%s`

// BuildClassification returns the system and user prompts for request type
// identification. body should already be truncated/sanitized by the caller.
func BuildClassification(email *core.Email, taxonomy []core.RequestType, body string) (string, string) {
	var b strings.Builder
	for _, rt := range taxonomy {
		fmt.Fprintf(&b, "- %s: %s", rt.Name, rt.Description)
		if len(rt.SubTypes) > 0 {
			fmt.Fprintf(&b, " (sub-types: %s)", strings.Join(rt.SubTypes, ", "))
		}
		b.WriteString("\n")
	}

	system := fmt.Sprintf(ClassificationSystemPrompt, b.String())
	user := fmt.Sprintf(emailPrompt, email.From, email.Recipient(), email.Subject,
		email.ReceivedAt.Format("2006-01-02 15:04:05"), body)
	return system, user
}

// BuildExtraction returns the system and user prompts for field extraction
func BuildExtraction(email *core.Email, requestType, subRequestType string, fields []string, body string) (string, string) {
	fieldList := "- any fields relevant to the request"
	if len(fields) > 0 {
		fieldList = "- " + strings.Join(fields, "\n- ")
	}

	system := fmt.Sprintf(ExtractionSystemPrompt, requestType, subRequestType, fieldList)
	user := fmt.Sprintf(emailPrompt, email.From, email.Recipient(), email.Subject,
		email.ReceivedAt.Format("2006-01-02 15:04:05"), body)
	return system, user
}

// ParseRequestTypes decodes a classification response, salvaging the JSON
// array from surrounding prose if necessary
func ParseRequestTypes(response string) ([]core.RequestTypeResult, error) {
	var results []core.RequestTypeResult
	if err := json.Unmarshal([]byte(response), &results); err != nil {
		salvaged, ok := salvageJSONArray(response)
		if !ok {
			return nil, fmt.Errorf("failed to extract JSON from LLM response: %w", err)
		}
		if err := json.Unmarshal([]byte(salvaged), &results); err != nil {
			return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
		}
	}
	return results, nil
}

// ParseExtractedFields decodes an extraction response. Field values may
// arrive as numbers or strings; both are normalized to strings.
func ParseExtractedFields(response string) ([]core.ExtractedField, error) {
	type rawField struct {
		FieldName  string          `json:"field_name"`
		Value      json.RawMessage `json:"value"`
		Confidence float64         `json:"confidence"`
		Source     string          `json:"source"`
	}

	decode := func(text string) ([]rawField, error) {
		var raw []rawField
		err := json.Unmarshal([]byte(text), &raw)
		return raw, err
	}

	raw, err := decode(response)
	if err != nil {
		salvaged, ok := salvageJSONArray(response)
		if !ok {
			return nil, fmt.Errorf("failed to extract JSON from LLM response: %w", err)
		}
		if raw, err = decode(salvaged); err != nil {
			return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
		}
	}

	fields := make([]core.ExtractedField, 0, len(raw))
	for _, f := range raw {
		value := strings.Trim(string(f.Value), `"`)
		fields = append(fields, core.ExtractedField{
			FieldName:  f.FieldName,
			Value:      value,
			Confidence: f.Confidence,
			Source:     f.Source,
		})
	}
	return fields, nil
}

// salvageJSONArray pulls the outermost [...] span out of a response that
// wrapped its JSON in prose
func salvageJSONArray(text string) (string, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
