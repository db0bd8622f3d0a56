package ingest

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/dedup"
)

// ParseMessage parses an RFC 822 message into the triage input record,
// harvesting the correlation headers the duplicate detector scores on
func ParseMessage(r io.Reader) (*core.Email, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, err
	}

	decoder := new(mime.WordDecoder)
	decodeHeader := func(value string) string {
		if decoded, err := decoder.DecodeHeader(value); err == nil {
			return decoded
		}
		return value
	}

	email := &core.Email{
		From:      decodeHeader(msg.Header.Get("From")),
		Subject:   decodeHeader(msg.Header.Get("Subject")),
		MessageID: strings.TrimSpace(msg.Header.Get("Message-Id")),
		InReplyTo: strings.TrimSpace(msg.Header.Get("In-Reply-To")),
		ThreadID:  strings.TrimSpace(msg.Header.Get("X-Thread-Id")),
		IPAddress: originatingIP(msg.Header),
		Headers:   map[string][]string(msg.Header),
	}

	for _, to := range strings.Split(msg.Header.Get("To"), ",") {
		if to = strings.TrimSpace(to); to != "" {
			email.To = append(email.To, decodeHeader(to))
		}
	}

	// References is a whitespace-separated list of message IDs
	if refs := strings.Fields(msg.Header.Get("References")); len(refs) > 0 {
		email.References = refs
	}

	if date := msg.Header.Get("Date"); date != "" {
		if t, err := mail.ParseDate(date); err == nil {
			email.ReceivedAt = t
		} else {
			email.ReceivedAt = dedup.ParseTimestamp(date, email.ReceivedAt)
		}
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, err
	}
	email.Body = body

	return email, nil
}

// originatingIP pulls the client IP from the X-Originating-IP header when
// present, stripping the conventional brackets
func originatingIP(header mail.Header) string {
	ip := strings.TrimSpace(header.Get("X-Originating-Ip"))
	ip = strings.TrimPrefix(ip, "[")
	ip = strings.TrimSuffix(ip, "]")
	return ip
}

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages it concatenates the text/plain parts; non-UTF-8
// charsets are decoded when the encoding is known.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return readPart(msg.Body, params["charset"])
	}

	boundary, ok := params["boundary"]
	if !ok {
		return readPart(msg.Body, params["charset"])
	}

	mr := multipart.NewReader(msg.Body, boundary)
	var textContent bytes.Buffer

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Return whatever text was collected before the malformed part
			return textContent.String(), nil
		}

		partType, partParams, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			partType = "text/plain"
		}
		if !strings.HasPrefix(partType, "text/plain") {
			continue
		}

		text, err := readPart(part, partParams["charset"])
		if err != nil {
			continue
		}
		if textContent.Len() > 0 {
			textContent.WriteString("\n")
		}
		textContent.WriteString(text)
	}

	return textContent.String(), nil
}

// readPart reads a body or part, decoding the given charset to UTF-8 when
// it names a known encoding
func readPart(r io.Reader, charset string) (string, error) {
	if charset != "" && !strings.EqualFold(charset, "utf-8") && !strings.EqualFold(charset, "us-ascii") {
		if enc, err := htmlindex.Get(charset); err == nil {
			r = transform.NewReader(r, enc.NewDecoder())
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
