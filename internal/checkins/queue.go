package checkins

import (
	"context"
	"errors"
	"fmt"

	"patient-intake-server/internal/apperrors"
	"patient-intake-server/internal/models"

	"gorm.io/gorm"
)

const (
	defaultQueueLimit = 50
	maxQueueLimit     = 200
)

// Filter narrows the staff check-in queue.
type Filter struct {
	PatientID string         `form:"patientId"`
	Urgency   models.Urgency `form:"urgency" binding:"omitempty,oneof=regular soon urgent"`
	Limit     int            `form:"limit" binding:"omitempty,min=1"`
}

// urgencyRank orders urgent visits first.
const urgencyRank = "CASE urgency WHEN 'urgent' THEN 0 WHEN 'soon' THEN 1 ELSE 2 END"

// List returns recorded check-ins, most urgent first and oldest first within
// an urgency tier, with patient, symptoms and analysis loaded.
func (r *Recorder) List(ctx context.Context, f Filter) ([]models.CheckIn, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueueLimit
	}
	if limit > maxQueueLimit {
		limit = maxQueueLimit
	}

	query := r.withRelations(r.db.WithContext(ctx)).
		Order(urgencyRank).
		Order("created_at asc").
		Limit(limit)
	if f.PatientID != "" {
		query = query.Where("patient_id = ?", f.PatientID)
	}
	if f.Urgency != "" {
		query = query.Where("urgency = ?", f.Urgency)
	}

	var visits []models.CheckIn
	if err := query.Find(&visits).Error; err != nil {
		return nil, apperrors.Store("list check-ins", err)
	}
	for i := range visits {
		if visits[i].Patient != nil {
			visits[i].Patient.MergeConditionLabels()
		}
	}
	return visits, nil
}

// Get returns one check-in with its relations, or ErrNotFound.
func (r *Recorder) Get(ctx context.Context, id string) (*models.CheckIn, error) {
	var visit models.CheckIn
	err := r.withRelations(r.db.WithContext(ctx)).First(&visit, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check-in %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, apperrors.Store("find check-in", err)
	}
	if visit.Patient != nil {
		visit.Patient.MergeConditionLabels()
	}
	return &visit, nil
}

func (r *Recorder) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Patient").
		Preload("Patient.Conditions").
		Preload("Symptoms.Symptom").
		Preload("Analysis")
}
