package core

import (
	"time"
)

// Email represents an inbound email message submitted for triage.
// Optional correlation fields (MessageID, References, InReplyTo, ThreadID,
// IPAddress, Metadata) may be empty; a zero ReceivedAt means unknown.
type Email struct {
	From       string
	To         []string
	Subject    string
	Body       string
	ReceivedAt time.Time
	MessageID  string
	References []string
	InReplyTo  string
	ThreadID   string
	IPAddress  string
	Metadata   map[string]string
	Headers    map[string][]string
}

// Recipient returns the recipients as a single comma-separated string
func (e *Email) Recipient() string {
	out := ""
	for i, to := range e.To {
		if i > 0 {
			out += ", "
		}
		out += to
	}
	return out
}

// RequestType is one entry in the service request taxonomy
type RequestType struct {
	Name        string
	Description string
	SubTypes    []string
	Fields      []string
}

// RequestTypeResult is a single classification produced by the LLM
type RequestTypeResult struct {
	RequestType    string  `json:"request_type"`
	SubRequestType string  `json:"sub_request_type"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
	IsPrimary      bool    `json:"is_primary"`
}

// ExtractedField is a structured field mined from the email for the
// primary request type
type ExtractedField struct {
	FieldName  string  `json:"field_name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// DuplicateVerdict is the outcome of the duplicate check for an email
type DuplicateVerdict struct {
	IsDuplicate bool    `json:"is_duplicate"`
	Reason      string  `json:"reason,omitempty"`
	Confidence  float64 `json:"confidence"`
	MatchedID   string  `json:"matched_id,omitempty"`
}

// TriageResult is the full outcome of processing one email
type TriageResult struct {
	ID               string              `json:"id"`
	Sender           string              `json:"sender"`
	Subject          string              `json:"subject"`
	Duplicate        DuplicateVerdict    `json:"duplicate"`
	RequestTypes     []RequestTypeResult `json:"request_types"`
	ExtractedFields  []ExtractedField    `json:"extracted_fields"`
	ModelUsed        string              `json:"model_used,omitempty"`
	ProcessedAt      time.Time           `json:"processed_at"`
	ProcessingTimeMs float64             `json:"processing_time_ms"`
	Error            string              `json:"error,omitempty"`
}

// PrimaryRequestType returns the primary classification, falling back to the
// first result when none is marked primary
func (r *TriageResult) PrimaryRequestType() *RequestTypeResult {
	for i := range r.RequestTypes {
		if r.RequestTypes[i].IsPrimary {
			return &r.RequestTypes[i]
		}
	}
	if len(r.RequestTypes) > 0 {
		return &r.RequestTypes[0]
	}
	return nil
}
