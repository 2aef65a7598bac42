package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Urgency represents how soon the patient needs to be seen
type Urgency string

const (
	UrgencyRegular Urgency = "regular"
	UrgencySoon    Urgency = "soon"
	UrgencyUrgent  Urgency = "urgent"
)

// Valid reports whether u is one of the known tiers.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyRegular, UrgencySoon, UrgencyUrgent:
		return true
	}
	return false
}

// AppointmentType is the kind of visit selected at registration
type AppointmentType string

const (
	AppointmentGeneral    AppointmentType = "general"
	AppointmentFollowUp   AppointmentType = "followUp"
	AppointmentSpecialist AppointmentType = "specialist"
	AppointmentEmergency  AppointmentType = "emergency"
	AppointmentOther      AppointmentType = "other"
)

// Valid reports whether t is one of the known appointment types.
func (t AppointmentType) Valid() bool {
	switch t {
	case AppointmentGeneral, AppointmentFollowUp, AppointmentSpecialist, AppointmentEmergency, AppointmentOther:
		return true
	}
	return false
}

// CheckIn is a single visit. Rows are created once and never mutated.
type CheckIn struct {
	CreatedModel
	PatientID       string          `gorm:"size:36;index;not null" json:"patientId"`
	Description     string          `gorm:"type:text;not null" json:"description"`
	Urgency         Urgency         `gorm:"size:20;default:'regular'" json:"urgency"`
	AppointmentType AppointmentType `gorm:"size:20" json:"appointmentType,omitempty"`

	// Relations
	Patient  *Patient         `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Symptoms []CheckInSymptom `gorm:"foreignKey:CheckInID" json:"symptoms,omitempty"`
	Analysis *AnalysisRecord  `gorm:"foreignKey:CheckInID" json:"analysis,omitempty"`
}

// Symptom is an entry of the canonical symptom vocabulary.
type Symptom struct {
	ID   string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

func (s *Symptom) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// CheckInSymptom links a check-in to a vocabulary symptom.
type CheckInSymptom struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CheckInID string `gorm:"size:36;index;not null" json:"checkInId"`
	SymptomID string `gorm:"size:36;index;not null" json:"symptomId"`

	Symptom *Symptom `gorm:"foreignKey:SymptomID" json:"symptom,omitempty"`
}

func (s *CheckInSymptom) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
