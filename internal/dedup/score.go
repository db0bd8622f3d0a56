package dedup

import (
	"math"
)

// Metadata signal weights. Each contributes only when both sides provide the
// corresponding field, so the normalizing denominator is data-dependent.
const (
	senderWeight    = 0.4
	recipientWeight = 0.2
	ipWeight        = 0.1
	threadWeight    = 0.3
	metaWeight      = 0.1

	// minWeight guards the normalization against division by zero when no
	// signal pair is available
	minWeight = 0.001
)

// cosineSimilarity returns the cosine of the angle between two vectors.
// Nil, mismatched or zero-norm vectors score 0.0 rather than erroring.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// metadataSignals is one side of a metadata comparison
type metadataSignals struct {
	sender    string
	recipient string
	ip        string
	threadID  string
	extra     map[string]string
}

// metadataSimilarity scores two emails' metadata in [0,1]. It is a weighted
// union of independently available signals: exact sender match (half credit
// for a bare domain match), recipient set overlap, IP equality, thread
// equality and custom metadata key agreement. The score is normalized by the
// sum of weights whose both-sides precondition was met.
func metadataSimilarity(a, b metadataSignals) float64 {
	score := 0.0
	totalWeight := 0.0

	// Sender match (high weight)
	if a.sender != "" && b.sender != "" {
		if normalizeAddress(a.sender) == normalizeAddress(b.sender) {
			score += senderWeight
		} else if d := addressDomain(a.sender); d != "" && d == addressDomain(b.sender) {
			score += senderWeight * 0.5
		}
		totalWeight += senderWeight
	}

	// Recipient set overlap
	if a.recipient != "" && b.recipient != "" {
		setA := recipientSet(a.recipient)
		setB := recipientSet(b.recipient)
		if len(setA) > 0 && len(setB) > 0 {
			overlap := 0
			for r := range setA {
				if _, ok := setB[r]; ok {
					overlap++
				}
			}
			union := len(setA) + len(setB) - overlap
			if union > 0 {
				score += recipientWeight * float64(overlap) / float64(union)
			}
			totalWeight += recipientWeight
		}
	}

	// IP address match
	if a.ip != "" && b.ip != "" {
		if a.ip == b.ip {
			score += ipWeight
		}
		totalWeight += ipWeight
	}

	// Thread ID match
	if a.threadID != "" && b.threadID != "" {
		if a.threadID == b.threadID {
			score += threadWeight
		}
		totalWeight += threadWeight
	}

	// Custom metadata: agreement ratio over the keys present on both sides
	if len(a.extra) > 0 && len(b.extra) > 0 {
		matches, common := 0, 0
		for k, v := range a.extra {
			if other, ok := b.extra[k]; ok {
				common++
				if v == other {
					matches++
				}
			}
		}
		if common > 0 {
			score += metaWeight * float64(matches) / float64(common)
			totalWeight += metaWeight
		}
	}

	return score / math.Max(totalWeight, minWeight)
}
