package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/embedding"
)

// candidateFloor is the minimum final score for a cache record to be
// considered a potential duplicate at all
const candidateFloor = 0.5

// Config holds the detector tuning parameters. A Config is set once at
// construction and only replaced through LoadState.
type Config struct {
	CacheDuration     time.Duration
	CacheCapacity     int
	SemanticThreshold float64
	MetadataWeight    float64
	SubjectWeight     float64
	ContentWeight     float64
	TimeWindow        time.Duration
}

// DefaultConfig returns the stock tuning parameters
func DefaultConfig() Config {
	return Config{
		CacheDuration:     14 * 24 * time.Hour,
		CacheCapacity:     10000,
		SemanticThreshold: 0.85,
		MetadataWeight:    0.6,
		SubjectWeight:     0.3,
		ContentWeight:     0.7,
		TimeWindow:        72 * time.Hour,
	}
}

// Stats is a snapshot of the detector state for observability
type Stats struct {
	CacheSize         int     `json:"cache_size"`
	SemanticThreshold float64 `json:"semantic_threshold"`
	MetadataWeight    float64 `json:"metadata_weight"`
	SubjectWeight     float64 `json:"subject_weight"`
	ContentWeight     float64 `json:"content_weight"`
	TimeWindowHours   float64 `json:"time_window_hours"`
}

// Detector fuses exact Message-ID matching, metadata similarity and
// semantic embedding similarity into a single duplicate decision over a
// bounded, time-aware cache of previously seen emails.
//
// A mutex serializes CheckDuplicate so the exact-match and scoring passes
// always see a consistent cache snapshot under concurrent ingestion.
type Detector struct {
	mu       sync.Mutex
	cfg      Config
	cache    *LRUCache
	provider embedding.Provider
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a duplicate detector with the given tuning parameters and
// embedding provider
func New(cfg Config, provider embedding.Provider, logger *zap.Logger) *Detector {
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = DefaultConfig().CacheCapacity
	}
	if cfg.CacheDuration <= 0 {
		cfg.CacheDuration = DefaultConfig().CacheDuration
	}
	if cfg.TimeWindow <= 0 {
		cfg.TimeWindow = DefaultConfig().TimeWindow
	}

	logger.Info("Initialized duplicate detector",
		zap.Duration("cache_duration", cfg.CacheDuration),
		zap.Int("cache_capacity", cfg.CacheCapacity),
		zap.Float64("semantic_threshold", cfg.SemanticThreshold),
		zap.Float64("metadata_weight", cfg.MetadataWeight),
		zap.Float64("content_weight", cfg.ContentWeight))

	return &Detector{
		cfg:      cfg,
		cache:    NewLRUCache(cfg.CacheCapacity, logger),
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckDuplicate decides whether email duplicates a previously seen message.
// Non-duplicates and medium-confidence duplicates are inserted into the
// cache; exact Message-ID resends and high-confidence duplicates are not.
func (d *Detector) CheckDuplicate(ctx context.Context, email *core.Email) core.DuplicateVerdict {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()

	// Eagerly sweep expired records so they never participate in scoring
	if swept := d.sweepExpired(now); swept > 0 {
		d.logger.Debug("Swept expired cache entries", zap.Int("count", swept))
	}

	receivedAt := email.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = now
	}

	normalizedContent := NormalizeContent(email.Body)
	normalizedSubject := NormalizeSubject(email.Subject)

	contentEmbedding := d.provider.Embed(ctx, normalizedContent)
	subjectEmbedding := d.provider.Embed(ctx, normalizedSubject)

	threadID := deriveThreadID(email)
	emailID := deriveEmailID(email.MessageID)

	// Exact Message-ID resend: report without touching the cache
	if email.MessageID != "" {
		for _, key := range d.cache.Keys() {
			entry, ok := d.cache.Peek(key)
			if !ok || entry.MessageID != email.MessageID {
				continue
			}
			d.logger.Info("Exact message ID match",
				zap.String("message_id", email.MessageID),
				zap.String("matched_id", entry.ID))
			return core.DuplicateVerdict{
				IsDuplicate: true,
				Reason:      fmt.Sprintf("Duplicate message ID from %s (%s)", entry.Sender, entry.ReceivedAt.Format(time.RFC3339)),
				Confidence:  1.0,
				MatchedID:   entry.ID,
			}
		}
	}

	// Score every live record within the time window
	var candidates []candidate
	for _, key := range d.cache.Keys() {
		entry, ok := d.cache.Peek(key)
		if !ok {
			continue
		}

		var timeDiff time.Duration
		timeKnown := !entry.ReceivedAt.IsZero()
		if timeKnown {
			if timeDiff = receivedAt.Sub(entry.ReceivedAt); timeDiff < 0 {
				timeDiff = -timeDiff
			}
			if timeDiff > d.cfg.TimeWindow {
				continue
			}
		}

		metadataSim := metadataSimilarity(
			metadataSignals{
				sender:    email.From,
				recipient: email.Recipient(),
				ip:        email.IPAddress,
				threadID:  threadID,
				extra:     email.Metadata,
			},
			metadataSignals{
				sender:    entry.Sender,
				recipient: entry.Recipient,
				ip:        entry.IPAddress,
				threadID:  entry.ThreadID,
				extra:     entry.AdditionalMetadata,
			},
		)

		contentSim := cosineSimilarity(contentEmbedding, entry.ContentEmbedding)
		subjectSim := cosineSimilarity(subjectEmbedding, entry.SubjectEmbedding)

		combinedContentSim := (d.cfg.ContentWeight*contentSim + d.cfg.SubjectWeight*subjectSim) /
			(d.cfg.ContentWeight + d.cfg.SubjectWeight)

		overallScore := d.cfg.MetadataWeight*metadataSim + (1-d.cfg.MetadataWeight)*combinedContentSim

		// Emails closer in time are more likely to be duplicates; decay
		// linearly from 1.0 down to 0.7 across the window
		timeFactor := 1.0
		if timeKnown {
			maxHours := d.cfg.TimeWindow.Hours()
			hoursDiff := timeDiff.Hours()
			if hoursDiff > maxHours {
				hoursDiff = maxHours
			}
			timeFactor = 1.0 - 0.3*hoursDiff/maxHours
		}

		finalScore := overallScore * timeFactor
		if finalScore >= candidateFloor {
			candidates = append(candidates, candidate{
				record:      entry,
				score:       finalScore,
				metadataSim: metadataSim,
				contentSim:  contentSim,
				subjectSim:  subjectSim,
				timeFactor:  timeFactor,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > 0 {
		best := candidates[0]
		d.logger.Debug("Best duplicate candidate",
			zap.String("matched_id", best.record.ID),
			zap.Float64("score", best.score),
			zap.Float64("metadata_sim", best.metadataSim),
			zap.Float64("content_sim", best.contentSim),
			zap.Float64("subject_sim", best.subjectSim))

		// High confidence: the email is already represented by the match
		if best.score >= d.cfg.SemanticThreshold {
			return core.DuplicateVerdict{
				IsDuplicate: true,
				Reason:      duplicateReason(best),
				Confidence:  best.score,
				MatchedID:   best.record.ID,
			}
		}

		// Medium confidence: report as duplicate but retain it, since it
		// could itself become a reference point for later comparisons
		reason := fmt.Sprintf("Likely duplicate of email from %s", best.record.Sender)
		if !best.record.ReceivedAt.IsZero() {
			reason += fmt.Sprintf(" (received: %s)", best.record.ReceivedAt.Format(time.RFC3339))
		}
		d.insert(emailID, email, threadID, normalizedContent, normalizedSubject,
			contentEmbedding, subjectEmbedding, receivedAt, now)
		return core.DuplicateVerdict{
			IsDuplicate: true,
			Reason:      reason,
			Confidence:  best.score,
			MatchedID:   best.record.ID,
		}
	}

	// Not a duplicate: retain for future comparisons
	d.insert(emailID, email, threadID, normalizedContent, normalizedSubject,
		contentEmbedding, subjectEmbedding, receivedAt, now)
	d.logger.Debug("Email added to duplicate cache",
		zap.String("id", emailID),
		zap.Int("cache_size", d.cache.Len()))

	return core.DuplicateVerdict{IsDuplicate: false, Confidence: 0.0}
}

// Stats returns a snapshot of the detector state
func (d *Detector) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Stats{
		CacheSize:         d.cache.Len(),
		SemanticThreshold: d.cfg.SemanticThreshold,
		MetadataWeight:    d.cfg.MetadataWeight,
		SubjectWeight:     d.cfg.SubjectWeight,
		ContentWeight:     d.cfg.ContentWeight,
		TimeWindowHours:   d.cfg.TimeWindow.Hours(),
	}
}

// sweepExpired removes every record whose expiry has passed. Keys are
// collected first so removal never invalidates the iteration.
func (d *Detector) sweepExpired(now time.Time) int {
	var expired []string
	for _, key := range d.cache.Keys() {
		if entry, ok := d.cache.Peek(key); ok && entry.ExpiresAt.Before(now) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		d.cache.Remove(key)
	}
	return len(expired)
}

// insert stores the email in the cache under id. Expiry is anchored to the
// insertion time, not the received timestamp.
func (d *Detector) insert(
	id string,
	email *core.Email,
	threadID, normalizedContent, normalizedSubject string,
	contentEmbedding, subjectEmbedding []float64,
	receivedAt, now time.Time,
) {
	d.cache.Put(id, &Record{
		ID:                 id,
		ContentEmbedding:   contentEmbedding,
		SubjectEmbedding:   subjectEmbedding,
		NormalizedContent:  normalizedContent,
		NormalizedSubject:  normalizedSubject,
		Sender:             email.From,
		Recipient:          email.Recipient(),
		Subject:            email.Subject,
		MessageID:          email.MessageID,
		ThreadID:           threadID,
		IPAddress:          email.IPAddress,
		AdditionalMetadata: email.Metadata,
		ReceivedAt:         receivedAt,
		ExpiresAt:          now.Add(d.cfg.CacheDuration),
	})
}

// deriveThreadID resolves the thread correlation key: an explicit thread id,
// else the first References entry, else In-Reply-To
func deriveThreadID(email *core.Email) string {
	if email.ThreadID != "" {
		return email.ThreadID
	}
	if len(email.References) > 0 {
		return email.References[0]
	}
	return email.InReplyTo
}

// deriveEmailID builds the cache key: a hash of the Message-ID when present,
// else a fresh random identifier
func deriveEmailID(messageID string) string {
	if messageID == "" {
		return uuid.NewString()
	}
	sum := sha256.Sum256([]byte(messageID))
	return hex.EncodeToString(sum[:])
}

// duplicateReason describes a high-confidence match, citing which signal
// categories exceeded 0.8
func duplicateReason(best candidate) string {
	reason := fmt.Sprintf("Duplicate email from %s", best.record.Sender)
	if !best.record.ReceivedAt.IsZero() {
		reason += fmt.Sprintf(" (received: %s)", best.record.ReceivedAt.Format("2006-01-02 15:04"))
	}
	if best.record.Subject != "" {
		reason += fmt.Sprintf(" with subject %q", best.record.Subject)
	}

	var details []string
	if best.metadataSim > 0.8 {
		details = append(details, "matching metadata")
	}
	if best.contentSim > 0.8 {
		details = append(details, "similar content")
	}
	if best.subjectSim > 0.8 {
		details = append(details, "similar subject")
	}
	if len(details) > 0 {
		reason += fmt.Sprintf(" (%s)", strings.Join(details, ", "))
	}
	return reason
}
