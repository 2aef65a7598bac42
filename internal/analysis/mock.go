// Package analysis classifies free-text symptom descriptions. The default
// analyzer is a canned mock; an LLM-backed analyzer can be swapped in by config.
package analysis

import (
	"context"
	"strings"

	"patient-intake-server/internal/apperrors"
	"patient-intake-server/internal/models"
)

// MockAnalyzer returns the same canned result for every description.
type MockAnalyzer struct{}

// NewMockAnalyzer creates a MockAnalyzer.
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

// Analyze ignores the description beyond checking it is not blank.
func (m *MockAnalyzer) Analyze(ctx context.Context, description string) (*models.Analysis, error) {
	if strings.TrimSpace(description) == "" {
		return nil, apperrors.Validation("symptom description is required", "description")
	}
	return &models.Analysis{
		Specialty: models.SpecialtyGeneralMedicine,
		PossibleConditions: []models.ConditionLikelihood{
			{Name: "Common Cold", Probability: 0.75},
			{Name: "Seasonal Allergies", Probability: 0.65},
		},
		RecommendedActions: []string{
			"Rest and hydration",
			"Over-the-counter pain relievers",
		},
		Severity:             models.SeverityMild,
		TriageRecommendation: "standard",
	}, nil
}
