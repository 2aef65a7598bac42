package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"patient-intake-server/internal/apperrors"
	"patient-intake-server/internal/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const systemPrompt = `You are a triage assistant at a clinic front desk.
Classify the patient's symptom description and answer with a single JSON object and nothing else:
{
  "specialty": one of "general_medicine","cardiology","neurology","dermatology","orthopedics","pediatrics","psychiatry","ophthalmology","ent","pulmonology",
  "possibleConditions": [{"name": string, "probability": number between 0 and 1}],
  "recommendedActions": [string],
  "severity": one of "mild","moderate","severe",
  "triageRecommendation": one of "standard","priority","immediate"
}
Probabilities are independent likelihoods; they do not need to sum to 1. List at most 4 conditions.`

// completeFunc sends one system+user prompt pair and returns the text answer.
type completeFunc func(ctx context.Context, system, prompt string) (string, error)

// LLMAnalyzer asks an Anthropic model to classify the description. Results
// are not deterministic across calls.
type LLMAnalyzer struct {
	complete completeFunc
	logger   *zap.Logger
}

// NewLLMAnalyzer creates an analyzer backed by the Anthropic messages API.
func NewLLMAnalyzer(apiKey, model string, logger *zap.Logger) *LLMAnalyzer {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	logger = logger.Named("analysis")

	complete := func(ctx context.Context, system, prompt string) (string, error) {
		message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: 1024,
			System: []anthropic.TextBlockParam{
				{Text: system},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("anthropic API error: %w", err)
		}
		for _, block := range message.Content {
			if block.Type == "text" {
				logger.Debug("analysis response",
					zap.Int("size", len(block.Text)),
					zap.Int64("tokens_in", message.Usage.InputTokens),
					zap.Int64("tokens_out", message.Usage.OutputTokens))
				return block.Text, nil
			}
		}
		return "", fmt.Errorf("no text content in anthropic response")
	}

	return &LLMAnalyzer{complete: complete, logger: logger}
}

// Analyze sends the description to the model and decodes its JSON answer.
func (a *LLMAnalyzer) Analyze(ctx context.Context, description string) (*models.Analysis, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.Validation("symptom description is required", "description")
	}

	text, err := a.complete(ctx, systemPrompt, "Symptom description:\n"+description)
	if err != nil {
		a.logger.Error("analysis request failed", zap.Error(err))
		return nil, apperrors.Store("analyze symptoms", err)
	}

	result, err := parseAnalysis(text)
	if err != nil {
		a.logger.Warn("analysis response rejected", zap.Error(err), zap.String("response", text))
		return nil, apperrors.Store("analyze symptoms", err)
	}
	return result, nil
}

// parseAnalysis extracts the first JSON object in text, tolerating code fences
// or prose around it, and validates it against the enumerations.
func parseAnalysis(text string) (*models.Analysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in analysis response")
	}

	var result models.Analysis
	if err := json.Unmarshal([]byte(text[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis response: %w", err)
	}
	if result.RecommendedActions == nil {
		result.RecommendedActions = []string{}
	}
	return &result, nil
}
