package embedding

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIProvider generates embeddings via the OpenAI embeddings API. Backend
// errors and timeouts fall back to a hashed provider of the same dimension,
// so the detector always compares vectors of identical length.
type OpenAIProvider struct {
	client   *openai.Client
	model    openai.EmbeddingModel
	dim      int
	timeout  time.Duration
	fallback *HashedProvider
	logger   *zap.Logger
}

// NewOpenAIProvider creates a new OpenAI embedding provider
func NewOpenAIProvider(
	client *openai.Client,
	model string,
	dim int,
	timeout time.Duration,
	logger *zap.Logger,
) *OpenAIProvider {
	if dim <= 0 {
		dim = DefaultDimension
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &OpenAIProvider{
		client:   client,
		model:    openai.EmbeddingModel(model),
		dim:      dim,
		timeout:  timeout,
		fallback: NewHashedProvider(dim, logger),
		logger:   logger,
	}
}

// Dimension returns the fixed output dimension
func (p *OpenAIProvider) Dimension() int {
	return p.dim
}

// Embed returns the embedding for text, falling back to the hashed provider
// when the backend is unavailable
func (p *OpenAIProvider) Embed(ctx context.Context, text string) []float64 {
	if text == "" {
		return make([]float64, p.dim)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      p.model,
		Dimensions: p.dim,
	})
	if err != nil || len(resp.Data) == 0 {
		if p.logger != nil {
			p.logger.Warn("Embedding backend unavailable, using hashed fallback", zap.Error(err))
		}
		return p.fallback.Embed(ctx, text)
	}

	got := resp.Data[0].Embedding
	if len(got) != p.dim {
		// Model ignored the dimension hint; the detector requires a fixed D
		if p.logger != nil {
			p.logger.Warn("Embedding dimension mismatch, using hashed fallback",
				zap.Int("want", p.dim), zap.Int("got", len(got)))
		}
		return p.fallback.Embed(ctx, text)
	}

	out := make([]float64, p.dim)
	for i, v := range got {
		out[i] = float64(v)
	}
	return out
}
