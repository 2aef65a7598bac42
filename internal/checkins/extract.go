package checkins

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"patient-intake-server/internal/models"

	"gorm.io/gorm"
)

// Match is one vocabulary symptom found in a description.
type Match struct {
	SymptomID   string `gorm:"column:symptom_id" json:"symptomId"`
	SymptomName string `gorm:"column:symptom_name" json:"symptomName"`
}

// Extractor maps free text to entries of the symptom vocabulary. It runs on
// the caller's db handle so it can take part in an open transaction.
type Extractor interface {
	Extract(ctx context.Context, db *gorm.DB, text string) ([]Match, error)
}

// NewExtractor returns the store-side function extractor on postgres and the
// in-process vocabulary matcher everywhere else.
func NewExtractor(driver string) Extractor {
	if driver == "postgres" {
		return FunctionExtractor{}
	}
	return VocabularyExtractor{}
}

// FunctionExtractor calls extract_symptoms(text), installed by the postgres
// migrations.
type FunctionExtractor struct{}

func (FunctionExtractor) Extract(ctx context.Context, db *gorm.DB, text string) ([]Match, error) {
	var matches []Match
	err := db.WithContext(ctx).
		Raw("SELECT symptom_id, symptom_name FROM extract_symptoms(?)", text).
		Scan(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("extract_symptoms: %w", err)
	}
	return matches, nil
}

// VocabularyExtractor loads the vocabulary and matches each name as a whole
// word, ignoring case. Results are ordered by name.
type VocabularyExtractor struct{}

func (VocabularyExtractor) Extract(ctx context.Context, db *gorm.DB, text string) ([]Match, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var vocabulary []models.Symptom
	if err := db.WithContext(ctx).Find(&vocabulary).Error; err != nil {
		return nil, fmt.Errorf("load symptom vocabulary: %w", err)
	}

	var matches []Match
	for _, s := range vocabulary {
		if containsWord(text, s.Name) {
			matches = append(matches, Match{SymptomID: s.ID, SymptomName: s.Name})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].SymptomName < matches[j].SymptomName })
	return matches, nil
}

func containsWord(text, word string) bool {
	word = strings.TrimSpace(word)
	if word == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}
