package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
)

// HeaderNames are the annotation headers stamped onto re-injected mail
type HeaderNames struct {
	Duplicate   string
	Confidence  string
	RequestType string
}

// SMTPIngest accepts mail over SMTP (Postfix content-filter style) and runs
// every message through the triage service. When a re-injection address is
// configured, processed mail is stamped with the triage headers and forwarded
// back to the MTA; otherwise the verdict is record-only.
type SMTPIngest struct {
	service         *core.TriageService
	logger          *zap.Logger
	listenAddr      string
	server          *smtp.Server
	blockDuplicates bool
	reinjectAddr    string
	headers         HeaderNames
}

// NewSMTPIngest creates a new SMTP ingestion surface
func NewSMTPIngest(
	service *core.TriageService,
	logger *zap.Logger,
	listenAddr string,
	blockDuplicates bool,
	reinjectAddr string,
	headers HeaderNames,
) *SMTPIngest {
	return &SMTPIngest{
		service:         service,
		logger:          logger,
		listenAddr:      listenAddr,
		blockDuplicates: blockDuplicates,
		reinjectAddr:    reinjectAddr,
		headers:         headers,
	}
}

// Start starts the SMTP server
func (f *SMTPIngest) Start() error {
	f.server = smtp.NewServer(&smtpBackend{ingest: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP ingest starting",
		zap.String("address", f.listenAddr),
		zap.String("reinject_address", f.reinjectAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP server
func (f *SMTPIngest) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// reinject forwards the annotated message to the configured MTA address
func (f *SMTPIngest) reinject(sender string, recipients []string, data []byte) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", f.reinjectAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to MTA: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		accepted = true
	}
	if !accepted {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The message is already accepted at this point
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// annotate prepends the triage headers to the raw message. Prepending keeps
// the original header block and MIME structure byte-for-byte intact.
func (f *SMTPIngest) annotate(raw []byte, result *core.TriageResult) []byte {
	var out bytes.Buffer

	fmt.Fprintf(&out, "%s: %t\r\n", f.headers.Duplicate, result.Duplicate.IsDuplicate)
	fmt.Fprintf(&out, "%s: %.4f\r\n", f.headers.Confidence, result.Duplicate.Confidence)
	if primary := result.PrimaryRequestType(); primary != nil {
		fmt.Fprintf(&out, "%s: %s\r\n", f.headers.RequestType, primary.RequestType)
	}

	out.Write(raw)
	return out.Bytes()
}

// smtpBackend creates a session per connection
type smtpBackend struct {
	ingest *SMTPIngest
}

func (b *smtpBackend) NewSession(conn *smtp.Conn) (smtp.Session, error) {
	remoteIP := ""
	if addr := conn.Conn().RemoteAddr(); addr != nil {
		if host, _, err := net.SplitHostPort(addr.String()); err == nil {
			remoteIP = host
		}
	}
	return &smtpSession{ingest: b.ingest, remoteIP: remoteIP}, nil
}

// smtpSession handles one SMTP transaction
type smtpSession struct {
	ingest   *SMTPIngest
	remoteIP string
	from     string
	to       []string
}

func (s *smtpSession) Mail(from string, opts *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *smtpSession) Rcpt(to string, opts *smtp.RcptOptions) error {
	s.to = append(s.to, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	email, err := ParseMessage(bytes.NewReader(data))
	if err != nil {
		s.ingest.logger.Error("Failed to parse message", zap.Error(err), zap.String("from", s.from))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Malformed message",
		}
	}

	// Prefer the envelope addresses; header values can lag forwarding
	if email.From == "" {
		email.From = s.from
	}
	if len(email.To) == 0 {
		email.To = s.to
	}
	if email.IPAddress == "" {
		email.IPAddress = s.remoteIP
	}

	result, err := s.ingest.service.ProcessEmail(context.Background(), email)
	if err != nil {
		// Triage errors are logged but never bounce mail; the result carries
		// the error detail for later inspection
		s.ingest.logger.Error("Triage failed", zap.Error(err), zap.String("from", email.From))
	}

	if result.Duplicate.IsDuplicate && s.ingest.blockDuplicates {
		s.ingest.logger.Info("Rejecting duplicate submission",
			zap.String("from", email.From),
			zap.String("matched_id", result.Duplicate.MatchedID))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Duplicate submission: " + result.Duplicate.Reason,
		}
	}

	if s.ingest.reinjectAddr != "" {
		annotated := s.ingest.annotate(data, result)
		if err := s.ingest.reinject(s.from, s.to, annotated); err != nil {
			s.ingest.logger.Error("Failed to re-inject message",
				zap.Error(err),
				zap.String("from", email.From))
			return &smtp.SMTPError{
				Code:         451,
				EnhancedCode: smtp.EnhancedCode{4, 3, 0},
				Message:      "Temporary delivery failure",
			}
		}
	}

	return nil
}

func (s *smtpSession) Reset() {
	s.from = ""
	s.to = nil
}

func (s *smtpSession) Logout() error {
	return nil
}
