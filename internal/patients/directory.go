// Package patients is the patient directory: registration and lookup of
// patient records together with their pre-existing condition labels.
package patients

import (
	"context"
	"errors"
	"strings"

	"patient-intake-server/internal/apperrors"
	"patient-intake-server/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewPatient is a patient record without its store-assigned id.
type NewPatient struct {
	FirstName          string   `json:"firstName" binding:"required"`
	LastName           string   `json:"lastName" binding:"required"`
	DateOfBirth        string   `json:"dateOfBirth" binding:"required,datetime=2006-01-02"`
	Phone              string   `json:"phone" binding:"required"`
	Email              string   `json:"email" binding:"omitempty,email"`
	ExistingConditions []string `json:"existingConditions"`
}

// Directory reads and writes patients through gorm.
type Directory struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDirectory creates a Directory over db.
func NewDirectory(db *gorm.DB, logger *zap.Logger) *Directory {
	return &Directory{db: db, logger: logger.Named("patients")}
}

// Create stores the patient and its conditions in one transaction and returns
// the stored record with its new id.
func (d *Directory) Create(ctx context.Context, in NewPatient) (*models.Patient, error) {
	patient := models.Patient{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		DateOfBirth: strings.TrimSpace(in.DateOfBirth),
		Phone:       strings.TrimSpace(in.Phone),
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		patient.Email = &email
	}
	labels := models.NormalizeConditions(in.ExistingConditions)

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Conditions").Create(&patient).Error; err != nil {
			return apperrors.Store("create patient", err)
		}
		if len(labels) == 0 {
			return nil
		}
		rows := make([]models.PatientCondition, 0, len(labels))
		for _, label := range labels {
			rows = append(rows, models.PatientCondition{PatientID: patient.ID, ConditionName: label})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return apperrors.Store("create patient conditions", err)
		}
		patient.Conditions = rows
		return nil
	})
	if err != nil {
		d.logger.Error("failed to save patient", zap.Error(err))
		return nil, apperrors.Store("create patient", err)
	}

	patient.ExistingConditions = labels
	d.logger.Info("patient saved", zap.String("patient_id", patient.ID), zap.Int("conditions", len(labels)))
	return &patient, nil
}

// FindByID returns the patient with its condition labels merged in, or
// (nil, nil) when no such patient exists.
func (d *Directory) FindByID(ctx context.Context, id string) (*models.Patient, error) {
	id = strings.TrimSpace(id)
	var patient models.Patient
	err := d.db.WithContext(ctx).Preload("Conditions").First(&patient, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			d.logger.Debug("patient not found", zap.String("patient_id", id))
			return nil, nil
		}
		d.logger.Error("failed to find patient", zap.String("patient_id", id), zap.Error(err))
		return nil, apperrors.Store("find patient", err)
	}

	patient.MergeConditionLabels()
	return &patient, nil
}
