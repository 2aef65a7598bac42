// Package checkins persists visits: the check-in row, the symptom links
// extracted from its description and the analysis result.
package checkins

import (
	"context"
	"errors"
	"strings"

	"patient-intake-server/internal/apperrors"
	"patient-intake-server/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Visit is everything recorded for one check-in.
type Visit struct {
	PatientID       string
	Description     string
	Urgency         models.Urgency
	AppointmentType models.AppointmentType
	Analysis        *models.Analysis
}

// Recorded is the outcome of Record.
type Recorded struct {
	CheckIn  *models.CheckIn `json:"checkIn"`
	Symptoms []Match         `json:"symptoms"`
}

// Recorder writes visits through gorm.
type Recorder struct {
	db        *gorm.DB
	extractor Extractor
	logger    *zap.Logger
}

// NewRecorder creates a Recorder. A nil extractor means VocabularyExtractor.
func NewRecorder(db *gorm.DB, extractor Extractor, logger *zap.Logger) *Recorder {
	if extractor == nil {
		extractor = VocabularyExtractor{}
	}
	return &Recorder{db: db, extractor: extractor, logger: logger.Named("checkins")}
}

// Record stores the check-in, its symptom links and its analysis in one
// transaction. Either all three are written or none are.
func (r *Recorder) Record(ctx context.Context, v Visit) (*Recorded, error) {
	v.PatientID = strings.TrimSpace(v.PatientID)
	v.Description = strings.TrimSpace(v.Description)
	if v.PatientID == "" || v.Description == "" {
		return nil, apperrors.Validation("missing required fields", "patientId", "description")
	}
	if v.Analysis == nil {
		return nil, apperrors.Validation("analysis is required")
	}
	if v.Urgency == "" {
		v.Urgency = models.UrgencyRegular
	}
	if !v.Urgency.Valid() {
		return nil, apperrors.Validation("invalid urgency", "urgency")
	}
	if v.AppointmentType != "" && !v.AppointmentType.Valid() {
		return nil, apperrors.Validation("invalid appointment type", "appointmentType")
	}

	checkIn := models.CheckIn{
		PatientID:       v.PatientID,
		Description:     v.Description,
		Urgency:         v.Urgency,
		AppointmentType: v.AppointmentType,
	}
	var matches []Match

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&checkIn).Error; err != nil {
			return apperrors.Store("create check-in", err)
		}

		found, err := r.extractor.Extract(ctx, tx, v.Description)
		if err != nil {
			return apperrors.Store("extract symptoms", err)
		}
		matches = found
		if len(found) > 0 {
			links := make([]models.CheckInSymptom, 0, len(found))
			for _, m := range found {
				links = append(links, models.CheckInSymptom{CheckInID: checkIn.ID, SymptomID: m.SymptomID})
			}
			if err := tx.Create(&links).Error; err != nil {
				return apperrors.Store("link symptoms", err)
			}
			checkIn.Symptoms = links
		}

		record := models.NewAnalysisRecord(checkIn.ID, v.Analysis)
		if err := tx.Omit(clause.Associations).Create(record).Error; err != nil {
			return apperrors.Store("save analysis", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to record check-in", zap.String("patient_id", v.PatientID), zap.Error(err))
		return nil, apperrors.Store("record check-in", err)
	}

	r.logger.Info("check-in recorded",
		zap.String("check_in_id", checkIn.ID),
		zap.String("patient_id", v.PatientID),
		zap.Int("symptoms", len(matches)),
	)
	return &Recorded{CheckIn: &checkIn, Symptoms: matches}, nil
}

// Analysis loads the stored analysis of a check-in.
func (r *Recorder) Analysis(ctx context.Context, checkInID string) (*models.Analysis, error) {
	var record models.AnalysisRecord
	err := r.db.WithContext(ctx).Where("check_in_id = ?", checkInID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Store("load analysis", err)
	}
	return record.Analysis(), nil
}
