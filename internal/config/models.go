package config

import "time"

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// EmbeddingConfig represents the configuration for the embedding provider
type EmbeddingConfig struct {
	Provider  string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// DedupConfig represents the tuning parameters of the duplicate detector
type DedupConfig struct {
	CacheDurationDays int
	CacheCapacity     int
	SemanticThreshold float64
	MetadataWeight    float64
	SubjectWeight     float64
	ContentWeight     float64
	TimeWindowHours   int
	StateFile         string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetEmbedding returns the embedding provider configuration
func (c *Config) GetEmbedding() EmbeddingConfig {
	timeout, err := c.GetDuration("embedding.timeout")
	if err != nil {
		timeout = 10 * time.Second
	}
	return EmbeddingConfig{
		Provider:  c.GetString("embedding.provider"),
		Model:     c.GetString("embedding.model"),
		Dimension: c.GetInt("embedding.dimension"),
		Timeout:   timeout,
	}
}

// GetDedup returns the duplicate detector configuration
func (c *Config) GetDedup() DedupConfig {
	return DedupConfig{
		CacheDurationDays: c.GetInt("dedup.cache_duration_days"),
		CacheCapacity:     c.GetInt("dedup.cache_capacity"),
		SemanticThreshold: c.GetFloat64("dedup.semantic_threshold"),
		MetadataWeight:    c.GetFloat64("dedup.metadata_weight"),
		SubjectWeight:     c.GetFloat64("dedup.subject_weight"),
		ContentWeight:     c.GetFloat64("dedup.content_weight"),
		TimeWindowHours:   c.GetInt("dedup.time_window_hours"),
		StateFile:         c.GetString("dedup.state_file"),
	}
}
