package factory

import (
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/dedup"
	"github.com/mikey/llm-email-triage/internal/embedding"
)

// DetectorFactory creates duplicate detectors
type DetectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewDetectorFactory creates a new detector factory
func NewDetectorFactory(cfg *config.Config, logger *zap.Logger) *DetectorFactory {
	return &DetectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDetector creates a duplicate detector from the configuration,
// restoring a previous snapshot when a state file is configured
func (f *DetectorFactory) CreateDetector(provider embedding.Provider) (*dedup.Detector, error) {
	dedupCfg := f.cfg.GetDedup()

	detector := dedup.New(dedup.Config{
		CacheDuration:     time.Duration(dedupCfg.CacheDurationDays) * 24 * time.Hour,
		CacheCapacity:     dedupCfg.CacheCapacity,
		SemanticThreshold: dedupCfg.SemanticThreshold,
		MetadataWeight:    dedupCfg.MetadataWeight,
		SubjectWeight:     dedupCfg.SubjectWeight,
		ContentWeight:     dedupCfg.ContentWeight,
		TimeWindow:        time.Duration(dedupCfg.TimeWindowHours) * time.Hour,
	}, provider, f.logger)

	if dedupCfg.StateFile != "" {
		if err := detector.LoadState(dedupCfg.StateFile); err != nil {
			// A cold start with an empty cache beats refusing to boot
			f.logger.Warn("Failed to restore detector state, starting cold",
				zap.String("path", dedupCfg.StateFile),
				zap.Error(err))
		}
	}

	return detector, nil
}

// StateFile returns the configured detector state file path, if any
func (f *DetectorFactory) StateFile() string {
	return f.cfg.GetDedup().StateFile
}
