package models

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed seed_data.yaml
var seedYAML []byte

// SeedData is the demo fixture: a few known patients and the symptom vocabulary.
type SeedData struct {
	Patients []SeedPatient `yaml:"patients"`
	Symptoms []string      `yaml:"symptoms"`
}

// SeedPatient is a patient entry of the fixture file.
type SeedPatient struct {
	ID                 string   `yaml:"id"`
	FirstName          string   `yaml:"firstName"`
	LastName           string   `yaml:"lastName"`
	DateOfBirth        string   `yaml:"dateOfBirth"`
	Phone              string   `yaml:"phone"`
	Email              string   `yaml:"email"`
	ExistingConditions []string `yaml:"existingConditions"`
}

// LoadSeedData parses the embedded fixture.
func LoadSeedData() (*SeedData, error) {
	var data SeedData
	if err := yaml.Unmarshal(seedYAML, &data); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return &data, nil
}

// SeedVocabulary inserts missing symptom names. Existing rows are left alone.
func SeedVocabulary(db *gorm.DB, names []string) (int, error) {
	created := 0
	for _, name := range names {
		var existing Symptom
		err := db.Where("name = ?", name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, fmt.Errorf("look up symptom %q: %w", name, err)
		}
		if err := db.Create(&Symptom{Name: name}).Error; err != nil {
			return created, fmt.Errorf("create symptom %q: %w", name, err)
		}
		created++
	}
	return created, nil
}

// SeedPatients inserts fixture patients whose ids are not taken yet.
func SeedPatients(db *gorm.DB, patients []SeedPatient) (int, error) {
	created := 0
	for _, sp := range patients {
		var count int64
		if err := db.Model(&Patient{}).Where("id = ?", sp.ID).Count(&count).Error; err != nil {
			return created, fmt.Errorf("look up patient %s: %w", sp.ID, err)
		}
		if count > 0 {
			continue
		}

		patient := Patient{
			BaseModel:   BaseModel{ID: sp.ID},
			FirstName:   sp.FirstName,
			LastName:    sp.LastName,
			DateOfBirth: sp.DateOfBirth,
			Phone:       sp.Phone,
		}
		if sp.Email != "" {
			email := sp.Email
			patient.Email = &email
		}
		for _, label := range NormalizeConditions(sp.ExistingConditions) {
			patient.Conditions = append(patient.Conditions, PatientCondition{ConditionName: label})
		}

		if err := db.Create(&patient).Error; err != nil {
			return created, fmt.Errorf("create patient %s: %w", sp.ID, err)
		}
		created++
	}
	return created, nil
}

// SeedDemoData loads the embedded fixture into db inside one transaction.
func SeedDemoData(db *gorm.DB) error {
	data, err := LoadSeedData()
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := SeedVocabulary(tx, data.Symptoms); err != nil {
			return err
		}
		_, err := SeedPatients(tx, data.Patients)
		return err
	})
}
