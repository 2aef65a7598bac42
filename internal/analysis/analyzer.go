package analysis

import (
	"context"
	"fmt"

	"patient-intake-server/internal/config"
	"patient-intake-server/internal/models"

	"go.uber.org/zap"
)

// Analyzer turns a symptom description into a structured Analysis.
type Analyzer interface {
	Analyze(ctx context.Context, description string) (*models.Analysis, error)
}

// New picks the analyzer named by cfg.Provider.
func New(cfg config.AnalysisConfig, logger *zap.Logger) (Analyzer, error) {
	switch cfg.Provider {
	case "", "mock":
		return NewMockAnalyzer(), nil
	case "anthropic":
		return NewLLMAnalyzer(cfg.AnthropicAPIKey, cfg.Model, logger), nil
	default:
		return nil, fmt.Errorf("unknown analysis provider %q", cfg.Provider)
	}
}
