package models

import (
	"sort"
	"strings"
)

// Patient is the store's copy of a registered patient. It is never updated by
// the intake flow once created.
type Patient struct {
	BaseModel
	FirstName   string  `gorm:"size:100;not null" json:"firstName"`
	LastName    string  `gorm:"size:100;not null" json:"lastName"`
	DateOfBirth string  `gorm:"size:10;not null" json:"dateOfBirth"` // YYYY-MM-DD
	Phone       string  `gorm:"size:32;not null" json:"phone"`
	Email       *string `gorm:"size:255" json:"email"`

	// Relations
	Conditions []PatientCondition `gorm:"foreignKey:PatientID" json:"-"`

	// ExistingConditions is the label view of Conditions, filled on read.
	ExistingConditions []string `gorm:"-" json:"existingConditions"`
}

// PatientCondition is one pre-existing condition label linked to a patient.
type PatientCondition struct {
	CreatedModel
	PatientID     string `gorm:"size:36;index;not null" json:"patientId"`
	ConditionName string `gorm:"size:100;not null" json:"conditionName"`
}

// FullName joins first and last name.
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// MergeConditionLabels copies the linked condition rows into ExistingConditions.
func (p *Patient) MergeConditionLabels() {
	labels := make([]string, 0, len(p.Conditions))
	for _, c := range p.Conditions {
		labels = append(labels, c.ConditionName)
	}
	p.ExistingConditions = NormalizeConditions(labels)
}

// NormalizeConditions trims labels, drops blanks and removes duplicates by
// label text. The result is sorted so the set has a stable order.
func NormalizeConditions(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}
