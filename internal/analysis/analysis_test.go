package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"patient-intake-server/internal/apperrors"
	"patient-intake-server/internal/config"
	"patient-intake-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMockAnalyzerCannedResult(t *testing.T) {
	m := NewMockAnalyzer()

	result, err := m.Analyze(context.Background(), "I've had a sore throat and runny nose since Monday")
	require.NoError(t, err)
	require.NoError(t, result.Validate())

	assert.Equal(t, models.SpecialtyGeneralMedicine, result.Specialty)
	assert.Contains(t, []models.Severity{models.SeverityMild, models.SeverityModerate, models.SeveritySevere}, result.Severity)
	assert.NotEmpty(t, result.TriageRecommendation)
	require.Len(t, result.PossibleConditions, 2)
	assert.Equal(t, "Common Cold", result.PossibleConditions[0].Name)

	// Callers may mutate what they get back without affecting later calls.
	result.PossibleConditions[0].Name = "changed"
	again, err := m.Analyze(context.Background(), "another description entirely")
	require.NoError(t, err)
	assert.Equal(t, "Common Cold", again.PossibleConditions[0].Name)
}

func TestMockAnalyzerRejectsBlank(t *testing.T) {
	_, err := NewMockAnalyzer().Analyze(context.Background(), "   ")
	assert.True(t, apperrors.IsValidation(err))
}

func TestParseAnalysis(t *testing.T) {
	text := "Here you go:\n```json\n" + `{
  "specialty": "neurology",
  "possibleConditions": [{"name": "Migraine", "probability": 0.8}, {"name": "Tension headache", "probability": 0.5}],
  "recommendedActions": ["Dark quiet room", "Neurology consult if recurring"],
  "severity": "moderate",
  "triageRecommendation": "priority"
}` + "\n```"

	result, err := parseAnalysis(text)
	require.NoError(t, err)
	assert.Equal(t, models.SpecialtyNeurology, result.Specialty)
	assert.Equal(t, models.SeverityModerate, result.Severity)
	assert.Len(t, result.PossibleConditions, 2)
	assert.Equal(t, "priority", result.TriageRecommendation)
}

func TestParseAnalysisRejectsShapeDrift(t *testing.T) {
	tests := map[string]string{
		"no json":           "I cannot help with that.",
		"broken json":       `{"specialty": "neurology",`,
		"unknown specialty": `{"specialty":"dentistry","severity":"mild","triageRecommendation":"standard"}`,
		"unknown severity":  `{"specialty":"ent","severity":"awful","triageRecommendation":"standard"}`,
		"probability range": `{"specialty":"ent","severity":"mild","triageRecommendation":"standard","possibleConditions":[{"name":"x","probability":7}]}`,
		"missing triage":    `{"specialty":"ent","severity":"mild"}`,
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseAnalysis(text)
			assert.Error(t, err)
		})
	}
}

func TestLLMAnalyzerWrapsFailures(t *testing.T) {
	var prompts []string
	a := &LLMAnalyzer{
		logger: zap.NewNop(),
		complete: func(ctx context.Context, system, prompt string) (string, error) {
			prompts = append(prompts, prompt)
			if strings.Contains(prompt, "offline") {
				return "", errors.New("connection reset")
			}
			return `{"specialty":"dermatology","possibleConditions":[{"name":"Eczema","probability":0.7}],"recommendedActions":[],"severity":"mild","triageRecommendation":"standard"}`, nil
		},
	}

	result, err := a.Analyze(context.Background(), "itchy red rash on both forearms")
	require.NoError(t, err)
	assert.Equal(t, models.SpecialtyDermatology, result.Specialty)

	_, err = a.Analyze(context.Background(), "offline model please")
	assert.True(t, apperrors.IsStore(err))

	_, err = a.Analyze(context.Background(), "")
	assert.True(t, apperrors.IsValidation(err))
	assert.Len(t, prompts, 2, "blank input must not reach the model")
}

func TestNewSelectsProvider(t *testing.T) {
	a, err := New(config.AnalysisConfig{Provider: "mock"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MockAnalyzer{}, a)

	a, err = New(config.AnalysisConfig{Provider: "anthropic", AnthropicAPIKey: "k", Model: "m"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LLMAnalyzer{}, a)

	_, err = New(config.AnalysisConfig{Provider: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}
