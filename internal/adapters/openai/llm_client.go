package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/prompts"
	"github.com/mikey/llm-email-triage/internal/utils"
)

// OpenAIClient is an implementation of the LLMClient interface using OpenAI
type OpenAIClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// ClassifyEmail identifies the request types present in an email
func (c *OpenAIClient) ClassifyEmail(ctx context.Context, email *core.Email, taxonomy []core.RequestType) ([]core.RequestTypeResult, error) {
	body := c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	system, user := prompts.BuildClassification(email, taxonomy, body)

	response, err := c.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	return prompts.ParseRequestTypes(response)
}

// ExtractFields extracts structured fields for the given request type
func (c *OpenAIClient) ExtractFields(ctx context.Context, email *core.Email, requestType, subRequestType string, fields []string) ([]core.ExtractedField, error) {
	body := c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	system, user := prompts.BuildExtraction(email, requestType, subRequestType, fields, body)

	response, err := c.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	return prompts.ParseExtractedFields(response)
}

// complete runs one chat completion and returns the response text
func (c *OpenAIClient) complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	c.logger.Debug("OpenAI completion finished",
		zap.String("model", c.modelName),
		zap.String("processing_id", resp.ID))

	return resp.Choices[0].Message.Content, nil
}
