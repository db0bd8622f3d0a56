// Package dedup implements time-aware duplicate detection for inbound
// emails. A bounded LRU cache of previously seen messages is scanned on
// every check; exact Message-ID matches, metadata similarity and semantic
// embedding similarity are fused into a single weighted score with a linear
// time decay.
package dedup

import (
	"time"
)

// Record is one retained email in the duplicate cache
type Record struct {
	ID                 string            `json:"id"`
	ContentEmbedding   []float64         `json:"content_embedding,omitempty"`
	SubjectEmbedding   []float64         `json:"subject_embedding,omitempty"`
	NormalizedContent  string            `json:"normalized_content"`
	NormalizedSubject  string            `json:"normalized_subject"`
	Sender             string            `json:"sender"`
	Recipient          string            `json:"recipient"`
	Subject            string            `json:"subject"`
	MessageID          string            `json:"message_id,omitempty"`
	ThreadID           string            `json:"thread_id,omitempty"`
	IPAddress          string            `json:"ip_address,omitempty"`
	AdditionalMetadata map[string]string `json:"additional_metadata,omitempty"`
	ReceivedAt         time.Time         `json:"received_date"`
	ExpiresAt          time.Time         `json:"expiry"`
}

// candidate is a scored cache record retained for ranking and reason text
type candidate struct {
	record      *Record
	score       float64
	metadataSim float64
	contentSim  float64
	subjectSim  float64
	timeFactor  float64
}
