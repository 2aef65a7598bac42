// Package reports renders patient reports and stores them as text artifacts.
package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"time"

	"patient-intake-server/internal/apperrors"
	"patient-intake-server/internal/models"
	"patient-intake-server/internal/storage"

	"go.uber.org/zap"
)

const (
	ContentType = "text/plain; charset=utf-8"
	// maxKeyAttempts bounds how often a taken key is skipped before giving up.
	maxKeyAttempts = 3
)

var keyPattern = regexp.MustCompile(`^patient-report-[A-Za-z0-9-]+-[0-9]+\.txt$`)

// ValidKey reports whether key has the shape produced by Key.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// Key returns the artifact key for a patient report created at millis.
func Key(patientID string, millis int64) string {
	return fmt.Sprintf("patient-report-%s-%d.txt", patientID, millis)
}

// Generator renders and uploads reports. The millisecond component of the
// keys it issues is strictly increasing, so two calls in the same instant
// still get distinct keys.
type Generator struct {
	store  storage.ObjectStore
	now    func() time.Time
	logger *zap.Logger

	mu         sync.Mutex
	lastMillis int64
}

// NewGenerator creates a Generator writing to store.
func NewGenerator(store storage.ObjectStore, logger *zap.Logger) *Generator {
	return &Generator{store: store, now: time.Now, logger: logger.Named("reports")}
}

func (g *Generator) nextMillis() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	millis := g.now().UnixMilli()
	if millis <= g.lastMillis {
		millis = g.lastMillis + 1
	}
	g.lastMillis = millis
	return millis
}

// Generate renders the report and writes it under a fresh key. The artifact
// exists only if Generate returns without error.
func (g *Generator) Generate(ctx context.Context, patient *models.Patient, analysis *models.Analysis) (string, error) {
	if patient == nil || analysis == nil {
		return "", apperrors.Validation("patient and analysis are required to generate a report")
	}

	var lastErr error
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		millis := g.nextMillis()
		key := Key(patient.ID, millis)
		body := Render(patient, analysis, time.UnixMilli(millis))

		err := g.store.Put(ctx, key, []byte(body), ContentType)
		if err == nil {
			g.logger.Info("report generated", zap.String("patient_id", patient.ID), zap.String("key", key))
			return key, nil
		}
		lastErr = err
		if !errors.Is(err, apperrors.ErrConflict) {
			break
		}
		g.logger.Warn("report key already taken", zap.String("key", key))
	}

	g.logger.Error("failed to upload report", zap.String("patient_id", patient.ID), zap.Error(lastErr))
	return "", apperrors.Store("upload report", lastErr)
}

// Open returns a stored report for download.
func (g *Generator) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := g.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.Store("open report", err)
	}
	return rc, nil
}
