package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeContentStripsQuotesAndSignature(t *testing.T) {
	body := "Please process the wire transfer.\n" +
		"> On Monday, ops wrote:\n" +
		"> Original request below\n" +
		"--\nJane Doe\nSenior Analyst"

	got := NormalizeContent(body)

	assert.Equal(t, "Please process the wire transfer. On Monday, ops wrote: Original request below", got)
}

func TestNormalizeContentStripsMobileFooter(t *testing.T) {
	got := NormalizeContent("Approve the fee payment.\nSent from my iPhone")
	assert.Equal(t, "Approve the fee payment.", got)
}

func TestNormalizeContentCollapsesWhitespace(t *testing.T) {
	got := NormalizeContent("  several\t\twords \n\n spread   out  ")
	assert.Equal(t, "several words spread out", got)
}

func TestNormalizeContentIdempotent(t *testing.T) {
	body := "> quoted\nActual request text\n--\nsignature"
	once := NormalizeContent(body)
	assert.Equal(t, once, NormalizeContent(once))
}

func TestNormalizeContentEmpty(t *testing.T) {
	assert.Equal(t, "", NormalizeContent(""))
}

func TestNormalizeSubject(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Re: Wire transfer request", "Wire transfer request"},
		{"FWD: Wire transfer request", "Wire transfer request"},
		{"fw:   Wire transfer request", "Wire transfer request"},
		{"Wire   transfer\trequest", "Wire transfer request"},
		{"", ""},
		// Only the leading prefix is stripped
		{"Re: Fwd: Wire transfer", "Fwd: Wire transfer"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSubject(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "jane@bank.com", normalizeAddress("Jane Doe <Jane@Bank.com>"))
	assert.Equal(t, "jane@bank.com", normalizeAddress("  JANE@BANK.COM  "))
	assert.Equal(t, "", normalizeAddress(""))
}

func TestAddressDomain(t *testing.T) {
	assert.Equal(t, "bank.com", addressDomain("Jane <jane@bank.com>"))
	assert.Equal(t, "", addressDomain("not-an-address"))
}

func TestRecipientSet(t *testing.T) {
	set := recipientSet("Ops <ops@bank.com>, jane@bank.com , ops@bank.com")

	assert.Len(t, set, 2)
	assert.Contains(t, set, "ops@bank.com")
	assert.Contains(t, set, "jane@bank.com")
}

func TestParseTimestamp(t *testing.T) {
	fallback := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	got := ParseTimestamp("2026-08-24T10:30:00Z", fallback)
	assert.Equal(t, time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC), got)

	// Zone-less timestamps are interpreted as UTC
	got = ParseTimestamp("2026-08-24 10:30:00", fallback)
	assert.Equal(t, time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC), got.UTC())

	assert.Equal(t, fallback, ParseTimestamp("", fallback))
	assert.Equal(t, fallback, ParseTimestamp("not a date", fallback))
}
