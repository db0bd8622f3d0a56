package dedup

import (
	"regexp"
	"strings"
	"time"
)

var (
	quoteMarkers   = regexp.MustCompile(`(?m)^>+\s*`)
	signatureBlock = regexp.MustCompile(`(?s)--+\s*\n.*`)
	sentFromFooter = regexp.MustCompile(`(?mi)^sent\s+from\s+my\s+.*$`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	replyPrefix    = regexp.MustCompile(`(?i)^(re|fwd|fw):\s*`)
	displayName    = regexp.MustCompile(`<(.+@.+)>`)
)

// NormalizeContent prepares email body text for semantic comparison:
// strips quote markers, trailing signature blocks and "sent from my ..."
// footers, then collapses whitespace. Idempotent.
func NormalizeContent(content string) string {
	if content == "" {
		return ""
	}

	content = quoteMarkers.ReplaceAllString(content, "")
	content = signatureBlock.ReplaceAllString(content, "")
	content = sentFromFooter.ReplaceAllString(content, "")
	content = whitespaceRun.ReplaceAllString(content, " ")

	return strings.TrimSpace(content)
}

// NormalizeSubject strips a single leading re:/fwd:/fw: prefix and
// collapses whitespace
func NormalizeSubject(subject string) string {
	if subject == "" {
		return ""
	}

	subject = replyPrefix.ReplaceAllString(subject, "")
	subject = whitespaceRun.ReplaceAllString(subject, " ")

	return strings.TrimSpace(subject)
}

// normalizeAddress lowercases and trims an email address, extracting the
// bare address from "Display Name <addr>" form first
func normalizeAddress(addr string) string {
	if addr == "" {
		return ""
	}
	if m := displayName.FindStringSubmatch(addr); m != nil {
		addr = m[1]
	}
	return strings.ToLower(strings.TrimSpace(addr))
}

// addressDomain extracts the domain part of an email address
func addressDomain(addr string) string {
	addr = normalizeAddress(addr)
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return addr[i+1:]
	}
	return ""
}

// recipientSet parses a comma-separated recipient list into a normalized,
// deduplicated set
func recipientSet(recipients string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range strings.Split(recipients, ",") {
		if r = strings.TrimSpace(r); r != "" {
			set[normalizeAddress(r)] = struct{}{}
		}
	}
	return set
}

// timestampLayouts are tried in order when parsing received timestamps;
// zone-less forms are interpreted as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO-8601-ish timestamp string. Unparseable or
// empty input returns the fallback; it never fails.
func ParseTimestamp(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t
		}
	}
	return fallback
}
