package models

import (
	"fmt"
	"strings"

	"gorm.io/datatypes"
)

// Specialty is the medical department an analysis routes the patient to
type Specialty string

const (
	SpecialtyGeneralMedicine Specialty = "general_medicine"
	SpecialtyCardiology      Specialty = "cardiology"
	SpecialtyNeurology       Specialty = "neurology"
	SpecialtyDermatology     Specialty = "dermatology"
	SpecialtyOrthopedics     Specialty = "orthopedics"
	SpecialtyPediatrics      Specialty = "pediatrics"
	SpecialtyPsychiatry      Specialty = "psychiatry"
	SpecialtyOphthalmology   Specialty = "ophthalmology"
	SpecialtyENT             Specialty = "ent"
	SpecialtyPulmonology     Specialty = "pulmonology"
)

var specialtyLabels = map[Specialty]string{
	SpecialtyGeneralMedicine: "General Medicine",
	SpecialtyCardiology:      "Cardiology",
	SpecialtyNeurology:       "Neurology",
	SpecialtyDermatology:     "Dermatology",
	SpecialtyOrthopedics:     "Orthopedics",
	SpecialtyPediatrics:      "Pediatrics",
	SpecialtyPsychiatry:      "Psychiatry",
	SpecialtyOphthalmology:   "Ophthalmology",
	SpecialtyENT:             "ENT",
	SpecialtyPulmonology:     "Pulmonology",
}

// Valid reports whether s is in the specialty enumeration.
func (s Specialty) Valid() bool {
	_, ok := specialtyLabels[s]
	return ok
}

// Label is the human readable department name.
func (s Specialty) Label() string {
	if label, ok := specialtyLabels[s]; ok {
		return label
	}
	return string(s)
}

// Severity is the coarse severity label of an analysis
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

func (s Severity) Valid() bool {
	return s == SeverityMild || s == SeverityModerate || s == SeveritySevere
}

// ConditionLikelihood is one candidate condition. Probabilities across a
// result are independent and need not sum to 1.
type ConditionLikelihood struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// Analysis is the structured classification of a symptom description.
type Analysis struct {
	Specialty            Specialty             `json:"specialty"`
	PossibleConditions   []ConditionLikelihood `json:"possibleConditions"`
	RecommendedActions   []string              `json:"recommendedActions"`
	Severity             Severity              `json:"severity"`
	TriageRecommendation string                `json:"triageRecommendation"`
	DoctorNotes          string                `json:"doctorNotes,omitempty"`
}

// Validate checks the enumerations and probability bounds.
func (a *Analysis) Validate() error {
	if !a.Specialty.Valid() {
		return fmt.Errorf("unknown specialty %q", a.Specialty)
	}
	if !a.Severity.Valid() {
		return fmt.Errorf("unknown severity %q", a.Severity)
	}
	if strings.TrimSpace(a.TriageRecommendation) == "" {
		return fmt.Errorf("triage recommendation is empty")
	}
	for _, c := range a.PossibleConditions {
		if c.Probability < 0 || c.Probability > 1 {
			return fmt.Errorf("probability %v for %q is outside [0,1]", c.Probability, c.Name)
		}
	}
	return nil
}

// AnalysisRecord is the persisted form of an Analysis, one row per check-in.
type AnalysisRecord struct {
	CreatedModel
	CheckInID            string                                   `gorm:"size:36;uniqueIndex;not null" json:"checkInId"`
	Specialty            Specialty                                `gorm:"size:32;not null" json:"specialty"`
	PossibleConditions   datatypes.JSONSlice[ConditionLikelihood] `json:"possibleConditions"`
	RecommendedActions   datatypes.JSONSlice[string]              `json:"recommendedActions"`
	Severity             Severity                                 `gorm:"size:20;not null" json:"severity"`
	TriageRecommendation string                                   `gorm:"size:50;not null" json:"triageRecommendation"`
	DoctorNotes          *string                                  `gorm:"type:text" json:"doctorNotes,omitempty"`
}

// TableName keeps the table name used by the intake schema.
func (AnalysisRecord) TableName() string {
	return "analysis_results"
}

// NewAnalysisRecord converts an Analysis for storage under a check-in.
func NewAnalysisRecord(checkInID string, a *Analysis) *AnalysisRecord {
	rec := &AnalysisRecord{
		CheckInID:            checkInID,
		Specialty:            a.Specialty,
		PossibleConditions:   datatypes.JSONSlice[ConditionLikelihood](a.PossibleConditions),
		RecommendedActions:   datatypes.JSONSlice[string](a.RecommendedActions),
		Severity:             a.Severity,
		TriageRecommendation: a.TriageRecommendation,
	}
	if a.DoctorNotes != "" {
		notes := a.DoctorNotes
		rec.DoctorNotes = &notes
	}
	return rec
}

// Analysis converts the row back to the domain shape.
func (r *AnalysisRecord) Analysis() *Analysis {
	a := &Analysis{
		Specialty:            r.Specialty,
		PossibleConditions:   []ConditionLikelihood(r.PossibleConditions),
		RecommendedActions:   []string(r.RecommendedActions),
		Severity:             r.Severity,
		TriageRecommendation: r.TriageRecommendation,
	}
	if r.DoctorNotes != nil {
		a.DoctorNotes = *r.DoctorNotes
	}
	return a
}
