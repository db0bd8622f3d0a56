package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/adapters/ingest"
	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
)

// IngestFactory creates email ingestion surfaces
type IngestFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewIngestFactory creates a new ingest factory
func NewIngestFactory(cfg *config.Config, logger *zap.Logger) *IngestFactory {
	return &IngestFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateIngest creates the SMTP ingestion surface
func (f *IngestFactory) CreateIngest(service *core.TriageService) (core.EmailIngest, error) {
	return ingest.NewSMTPIngest(
		service,
		f.logger,
		f.cfg.GetString("server.listen_address"),
		f.cfg.GetBool("server.block_duplicates"),
		f.cfg.GetString("server.reinject_address"),
		ingest.HeaderNames{
			Duplicate:   f.cfg.GetString("server.headers.duplicate"),
			Confidence:  f.cfg.GetString("server.headers.confidence"),
			RequestType: f.cfg.GetString("server.headers.request_type"),
		},
	), nil
}
