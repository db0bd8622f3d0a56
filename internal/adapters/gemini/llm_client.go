package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/prompts"
	"github.com/mikey/llm-email-triage/internal/utils"
)

// GeminiClient is an implementation of the LLMClient interface using Google Gemini
type GeminiClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ClassifyEmail identifies the request types present in an email
func (c *GeminiClient) ClassifyEmail(ctx context.Context, email *core.Email, taxonomy []core.RequestType) ([]core.RequestTypeResult, error) {
	body := c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	system, user := prompts.BuildClassification(email, taxonomy, body)

	response, err := c.generate(ctx, system+"\n\n"+user)
	if err != nil {
		return nil, err
	}

	return prompts.ParseRequestTypes(response)
}

// ExtractFields extracts structured fields for the given request type
func (c *GeminiClient) ExtractFields(ctx context.Context, email *core.Email, requestType, subRequestType string, fields []string) ([]core.ExtractedField, error) {
	body := c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	system, user := prompts.BuildExtraction(email, requestType, subRequestType, fields, body)

	response, err := c.generate(ctx, system+"\n\n"+user)
	if err != nil {
		return nil, err
	}

	return prompts.ParseExtractedFields(response)
}

// generate runs one content generation and returns the response text
func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	c.logger.Debug("Gemini generation finished", zap.String("model", c.modelName))

	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}
