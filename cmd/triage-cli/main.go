package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/adapters/ingest"
	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/dedup"
	"github.com/mikey/llm-email-triage/internal/factory"
	"github.com/mikey/llm-email-triage/internal/logging"
	"github.com/mikey/llm-email-triage/internal/trusted"
)

var (
	// LLM provider flags
	provider    = flag.String("provider", "bedrock", "LLM provider (bedrock, gemini, openai)")
	maxTokens   = flag.Int("max-tokens", 1500, "Maximum tokens for LLM response")
	temperature = flag.Float64("temperature", 0.1, "Temperature for LLM generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for LLM generation")
	maxBodySize = flag.Int("max-body-size", 8192, "Maximum email body size to send to LLM")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4", "OpenAI model name")

	// Duplicate detection flags
	semanticThreshold = flag.Float64("semantic-threshold", 0.85, "High-confidence duplicate score cutoff")
	metadataWeight    = flag.Float64("metadata-weight", 0.6, "Weight of metadata vs content similarity")
	subjectWeight     = flag.Float64("subject-weight", 0.3, "Weight of subject within content similarity")
	contentWeight     = flag.Float64("content-weight", 0.7, "Weight of body within content similarity")
	timeWindowHours   = flag.Int("time-window-hours", 72, "Duplicate comparison time window in hours")
	cacheCapacity     = flag.Int("cache-capacity", 10000, "Maximum retained emails in the duplicate cache")
	cacheDurationDays = flag.Int("cache-duration-days", 14, "Days to retain emails in the duplicate cache")
	stateFile         = flag.String("state", "", "Detector state file to load before and save after the run")
	dedupOnly         = flag.Bool("dedup-only", false, "Only run duplicate detection, skip classification")

	// Triage flags
	trustedDomains = flag.String("trusted-domains", "", "Comma-separated sender domains that bypass duplicate suppression")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	// Parse the input message
	input := os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer f.Close()
		input = f
	}

	email, err := ingest.ParseMessage(input)
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	// Wire up the pipeline
	textProcessor := factory.NewTextProcessorFactory(logger).CreateTextProcessor()

	embeddingProvider := factory.NewEmbeddingFactory(cfg, logger).CreateProvider()

	detectorFactory := factory.NewDetectorFactory(cfg, logger)
	detector, err := detectorFactory.CreateDetector(embeddingProvider)
	if err != nil {
		logger.Fatal("Failed to create duplicate detector", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *dedupOnly {
		verdict := detector.CheckDuplicate(ctx, email)
		saveStateIfRequested(detector, logger)
		printJSON(logger, verdict)
		return
	}

	llmFactory := factory.NewLLMFactory(cfg, logger, textProcessor)
	llmClient, err := llmFactory.CreateLLMClient()
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	storeFactory := factory.NewStoreFactory(cfg, logger)
	triageStore, err := storeFactory.CreateStore()
	if err != nil {
		logger.Fatal("Failed to create triage store", zap.Error(err))
	}
	defer triageStore.Close()

	var domains []string
	if *trustedDomains != "" {
		for _, d := range strings.Split(*trustedDomains, ",") {
			domains = append(domains, strings.TrimSpace(d))
		}
	}

	service := core.NewTriageService(
		llmClient,
		detector,
		triageStore,
		trusted.NewChecker(domains, logger),
		logger,
		llmFactory.ModelName(),
	)

	result, err := service.ProcessEmail(ctx, email)
	if err != nil {
		logger.Error("Triage completed with errors", zap.Error(err))
	}

	saveStateIfRequested(detector, logger)
	printJSON(logger, result)
}

// saveStateIfRequested snapshots the detector cache when -state was given
func saveStateIfRequested(detector *dedup.Detector, logger *zap.Logger) {
	if *stateFile == "" {
		return
	}
	if err := detector.SaveState(*stateFile); err != nil {
		logger.Error("Failed to save detector state", zap.Error(err))
	}
}

// printJSON writes v to stdout as indented JSON
func printJSON(logger *zap.Logger, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode result", zap.Error(err))
	}
	fmt.Println(string(data))
}

// createConfigFromFlags builds a configuration from the command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", *provider)

	v.Set("bedrock.region", *bedrockRegion)
	v.Set("bedrock.model_id", *bedrockModelID)
	v.Set("bedrock.max_tokens", *maxTokens)
	v.Set("bedrock.temperature", *temperature)
	v.Set("bedrock.top_p", *topP)
	v.Set("bedrock.max_body_size", *maxBodySize)

	v.Set("gemini.api_key", *geminiAPIKey)
	v.Set("gemini.model_name", *geminiModelName)
	v.Set("gemini.max_tokens", *maxTokens)
	v.Set("gemini.temperature", *temperature)
	v.Set("gemini.top_p", *topP)
	v.Set("gemini.max_body_size", *maxBodySize)

	v.Set("openai.api_key", *openaiAPIKey)
	v.Set("openai.model_name", *openaiModelName)
	v.Set("openai.max_tokens", *maxTokens)
	v.Set("openai.temperature", *temperature)
	v.Set("openai.top_p", *topP)
	v.Set("openai.max_body_size", *maxBodySize)

	v.Set("dedup.semantic_threshold", *semanticThreshold)
	v.Set("dedup.metadata_weight", *metadataWeight)
	v.Set("dedup.subject_weight", *subjectWeight)
	v.Set("dedup.content_weight", *contentWeight)
	v.Set("dedup.time_window_hours", *timeWindowHours)
	v.Set("dedup.cache_capacity", *cacheCapacity)
	v.Set("dedup.cache_duration_days", *cacheDurationDays)
	v.Set("dedup.state_file", *stateFile)

	return config.NewFromViper(v)
}
