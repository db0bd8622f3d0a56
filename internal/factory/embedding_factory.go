package factory

import (
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/embedding"
)

// EmbeddingFactory creates embedding providers
type EmbeddingFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewEmbeddingFactory creates a new embedding factory
func NewEmbeddingFactory(cfg *config.Config, logger *zap.Logger) *EmbeddingFactory {
	return &EmbeddingFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateProvider creates an embedding provider based on the configuration.
// The real provider requires an API key; without one the deterministic
// hashed provider is constructed instead, so callers never branch on
// provider availability.
func (f *EmbeddingFactory) CreateProvider() embedding.Provider {
	embCfg := f.cfg.GetEmbedding()

	if embCfg.Provider == "openai" {
		apiKey := f.cfg.GetOpenAI().APIKey
		if apiKey != "" {
			client := openai.NewClient(apiKey)
			f.logger.Info("Using OpenAI embedding provider",
				zap.String("model", embCfg.Model),
				zap.Int("dimension", embCfg.Dimension))
			return embedding.NewOpenAIProvider(client, embCfg.Model, embCfg.Dimension, embCfg.Timeout, f.logger)
		}
		f.logger.Warn("OpenAI embedding provider requested but no API key configured, using hashed fallback")
	}

	return embedding.NewHashedProvider(embCfg.Dimension, f.logger)
}
