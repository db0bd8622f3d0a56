package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/embedding"
)

var testBase = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

func newTestDetector(t *testing.T, cfg Config) *Detector {
	t.Helper()
	d := New(cfg, embedding.NewHashedProvider(0, nil), zap.NewNop())
	d.now = func() time.Time { return testBase }
	return d
}

func wireTransferEmail() *core.Email {
	return &core.Email{
		From:       "jane@bank.com",
		To:         []string{"ops@bank.com"},
		Subject:    "Wire transfer request",
		Body:       "Please process a wire transfer of 50000 USD to account 12345 by Friday.",
		ReceivedAt: testBase,
		MessageID:  "<msg-1@bank.com>",
		ThreadID:   "<thread-1@bank.com>",
		IPAddress:  "10.0.0.1",
	}
}

func TestCheckDuplicateEmptyCache(t *testing.T) {
	d := newTestDetector(t, DefaultConfig())

	verdict := d.CheckDuplicate(context.Background(), wireTransferEmail())

	assert.False(t, verdict.IsDuplicate)
	assert.Equal(t, 0.0, verdict.Confidence)
	assert.Equal(t, 1, d.Stats().CacheSize)
}

func TestCheckDuplicateExactMessageID(t *testing.T) {
	d := newTestDetector(t, DefaultConfig())
	ctx := context.Background()

	first := wireTransferEmail()
	d.CheckDuplicate(ctx, first)

	resend := wireTransferEmail()
	resend.ReceivedAt = testBase.Add(2 * time.Hour)
	verdict := d.CheckDuplicate(ctx, resend)

	assert.True(t, verdict.IsDuplicate)
	assert.Equal(t, 1.0, verdict.Confidence)
	assert.Contains(t, verdict.Reason, "jane@bank.com")
	assert.NotEmpty(t, verdict.MatchedID)

	// An exact resend must not grow or mutate the cache
	assert.Equal(t, 1, d.Stats().CacheSize)
}

func TestCheckDuplicateHighConfidenceSameThread(t *testing.T) {
	d := newTestDetector(t, DefaultConfig())
	ctx := context.Background()

	first := wireTransferEmail()
	d.CheckDuplicate(ctx, first)

	// Same thread, sender and content, but a fresh Message-ID an hour later
	second := wireTransferEmail()
	second.MessageID = "<msg-2@bank.com>"
	second.Subject = "Re: Wire transfer request"
	second.ReceivedAt = testBase.Add(1 * time.Hour)
	verdict := d.CheckDuplicate(ctx, second)

	require.True(t, verdict.IsDuplicate)
	assert.GreaterOrEqual(t, verdict.Confidence, 0.85)
	assert.Less(t, verdict.Confidence, 1.0)
	assert.Contains(t, verdict.Reason, "matching metadata")

	// High-confidence duplicates are not retained
	assert.Equal(t, 1, d.Stats().CacheSize)
}

func TestCheckDuplicateMediumConfidenceRetained(t *testing.T) {
	d := newTestDetector(t, DefaultConfig())
	ctx := context.Background()

	first := wireTransferEmail()
	first.ThreadID = ""
	first.IPAddress = ""
	d.CheckDuplicate(ctx, first)

	// Same sender and recipients but unrelated content: metadata alone puts
	// the score in the medium band
	second := &core.Email{
		From:       "jane@bank.com",
		To:         []string{"ops@bank.com"},
		Subject:    "Quarterly statement delivery",
		Body:       "Attached is the quarterly statement for portfolio review purposes only.",
		ReceivedAt: testBase,
		MessageID:  "<msg-2@bank.com>",
	}
	verdict := d.CheckDuplicate(ctx, second)

	require.True(t, verdict.IsDuplicate)
	assert.GreaterOrEqual(t, verdict.Confidence, 0.5)
	assert.Less(t, verdict.Confidence, 0.85)
	assert.Contains(t, verdict.Reason, "Likely duplicate")

	// Medium-confidence duplicates are retained as future reference points
	assert.Equal(t, 2, d.Stats().CacheSize)
}

func TestCheckDuplicateUnrelatedEmail(t *testing.T) {
	d := newTestDetector(t, DefaultConfig())
	ctx := context.Background()

	d.CheckDuplicate(ctx, wireTransferEmail())

	other := &core.Email{
		From:       "vendor@supplier.net",
		To:         []string{"billing@other.org"},
		Subject:    "Invoice 9912 overdue",
		Body:       "Your invoice remains unpaid after sixty days, late fees now apply.",
		ReceivedAt: testBase,
		MessageID:  "<msg-3@supplier.net>",
	}
	verdict := d.CheckDuplicate(ctx, other)

	assert.False(t, verdict.IsDuplicate)
	assert.Equal(t, 2, d.Stats().CacheSize)
}

func TestCheckDuplicateOutsideTimeWindow(t *testing.T) {
	d := newTestDetector(t, DefaultConfig())
	ctx := context.Background()

	d.CheckDuplicate(ctx, wireTransferEmail())

	// Identical email far outside the comparison window is not scored
	late := wireTransferEmail()
	late.MessageID = "<msg-2@bank.com>"
	late.ReceivedAt = testBase.Add(100 * time.Hour)
	verdict := d.CheckDuplicate(ctx, late)

	assert.False(t, verdict.IsDuplicate)
	assert.Equal(t, 2, d.Stats().CacheSize)
}

func TestCheckDuplicateTimeDecay(t *testing.T) {
	d := newTestDetector(t, DefaultConfig())
	ctx := context.Background()

	d.CheckDuplicate(ctx, wireTransferEmail())

	// At the far edge of the window the decay drags a perfect match down by
	// almost 30 percent but it still clears the high-confidence threshold
	edge := wireTransferEmail()
	edge.MessageID = "<msg-2@bank.com>"
	edge.ReceivedAt = testBase.Add(71 * time.Hour)
	verdict := d.CheckDuplicate(ctx, edge)

	require.True(t, verdict.IsDuplicate)
	assert.Less(t, verdict.Confidence, 0.75)
	assert.GreaterOrEqual(t, verdict.Confidence, 0.5)
}

func TestCheckDuplicateExpirySweep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheDuration = 24 * time.Hour
	d := newTestDetector(t, cfg)
	ctx := context.Background()

	d.CheckDuplicate(ctx, wireTransferEmail())
	require.Equal(t, 1, d.Stats().CacheSize)

	// Two days later the original has expired, so even an exact resend is
	// treated as new mail
	d.now = func() time.Time { return testBase.Add(48 * time.Hour) }
	resend := wireTransferEmail()
	resend.ReceivedAt = testBase.Add(48 * time.Hour)
	verdict := d.CheckDuplicate(ctx, resend)

	assert.False(t, verdict.IsDuplicate)
	assert.Equal(t, 1, d.Stats().CacheSize)
}

func TestCheckDuplicateZeroReceivedAtFallsBackToNow(t *testing.T) {
	d := newTestDetector(t, DefaultConfig())
	ctx := context.Background()

	noDate := wireTransferEmail()
	noDate.ReceivedAt = time.Time{}
	d.CheckDuplicate(ctx, noDate)

	// Both emails land on the injected clock, so the pair scores as a
	// high-confidence duplicate
	second := wireTransferEmail()
	second.MessageID = "<msg-2@bank.com>"
	verdict := d.CheckDuplicate(ctx, second)

	assert.True(t, verdict.IsDuplicate)
	assert.GreaterOrEqual(t, verdict.Confidence, 0.85)
}

func TestCheckDuplicateCapacityEviction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheCapacity = 2
	d := newTestDetector(t, cfg)
	ctx := context.Background()

	emails := []*core.Email{
		{
			From:    "a@one.com",
			To:      []string{"ops@one.com"},
			Subject: "Adjustment on facility",
			Body:    "Requesting an adjustment to the principal balance on facility alpha.",
		},
		{
			From:    "b@two.com",
			To:      []string{"billing@two.com"},
			Subject: "Fee payment confirmation",
			Body:    "Confirming that the ongoing fee has been settled in full today.",
		},
		{
			From:    "c@three.com",
			To:      []string{"desk@three.com"},
			Subject: "Closing notice for loan",
			Body:    "Please record the cashless roll executed under the closing notice.",
		},
	}
	for i, email := range emails {
		email.ReceivedAt = testBase.Add(time.Duration(i) * time.Minute)
		email.MessageID = "<" + email.From + ">"
		d.CheckDuplicate(ctx, email)
	}

	assert.Equal(t, 2, d.Stats().CacheSize)
}

func TestDeriveThreadID(t *testing.T) {
	assert.Equal(t, "<t1>", deriveThreadID(&core.Email{ThreadID: "<t1>", References: []string{"<r1>"}}))
	assert.Equal(t, "<r1>", deriveThreadID(&core.Email{References: []string{"<r1>", "<r2>"}, InReplyTo: "<p1>"}))
	assert.Equal(t, "<p1>", deriveThreadID(&core.Email{InReplyTo: "<p1>"}))
	assert.Equal(t, "", deriveThreadID(&core.Email{}))
}

func TestDeriveEmailID(t *testing.T) {
	// Hashing the Message-ID is deterministic
	assert.Equal(t, deriveEmailID("<msg-1>"), deriveEmailID("<msg-1>"))
	assert.NotEqual(t, deriveEmailID("<msg-1>"), deriveEmailID("<msg-2>"))

	// Without a Message-ID each email gets a fresh identifier
	assert.NotEqual(t, deriveEmailID(""), deriveEmailID(""))
}

func TestStatsReflectsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SemanticThreshold = 0.9
	cfg.TimeWindow = 48 * time.Hour
	d := newTestDetector(t, cfg)

	stats := d.Stats()
	assert.Equal(t, 0, stats.CacheSize)
	assert.Equal(t, 0.9, stats.SemanticThreshold)
	assert.Equal(t, 48.0, stats.TimeWindowHours)
}
