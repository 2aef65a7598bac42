// Package workflow drives a check-in through registration or identity
// verification, symptom analysis and report generation. Each Workflow is one
// intake session; Manager keeps the live sessions by id.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"patient-intake-server/internal/apperrors"
	"patient-intake-server/internal/checkins"
	"patient-intake-server/internal/events"
	"patient-intake-server/internal/models"
	"patient-intake-server/internal/patients"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Journey selects the intake path of a session.
type Journey string

const (
	JourneyNew       Journey = "new"
	JourneyReturning Journey = "returning"
)

func (j Journey) Valid() bool {
	return j == JourneyNew || j == JourneyReturning
}

// State is the position of a session in the intake flow.
type State string

const (
	StateIdle             State = "idle"
	StateSubmitting       State = "submitting"
	StateAnalyzed         State = "analyzed"
	StateReportPending    State = "report_pending"
	StateReportReady      State = "report_ready"
	StateIdentityPending  State = "identity_pending"
	StateIdentityVerified State = "identity_verified"
)

const (
	minPatientIDLength   = 4
	minDescriptionLength = 10
)

// PatientDirectory creates and looks up patients.
type PatientDirectory interface {
	Create(ctx context.Context, in patients.NewPatient) (*models.Patient, error)
	FindByID(ctx context.Context, id string) (*models.Patient, error)
}

// Analyzer classifies a symptom description.
type Analyzer interface {
	Analyze(ctx context.Context, description string) (*models.Analysis, error)
}

// ReportGenerator stores a report and returns its artifact key.
type ReportGenerator interface {
	Generate(ctx context.Context, patient *models.Patient, analysis *models.Analysis) (string, error)
}

// CheckInRecorder persists a visit.
type CheckInRecorder interface {
	Record(ctx context.Context, v checkins.Visit) (*checkins.Recorded, error)
}

// Publisher announces recorded check-ins.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Dependencies are the clients a Workflow calls. CheckIns and Events may be nil.
type Dependencies struct {
	Patients PatientDirectory
	Analyzer Analyzer
	Reports  ReportGenerator
	CheckIns CheckInRecorder
	Events   Publisher
	Logger   *zap.Logger
}

// Registration is the new-patient form. Presence of required fields is
// checked by missingFields; the validate tags cover format and the column
// sizes of the patient tables.
type Registration struct {
	FirstName          string                 `json:"firstName" validate:"max=100"`
	LastName           string                 `json:"lastName" validate:"max=100"`
	DateOfBirth        string                 `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Phone              string                 `json:"phone" validate:"max=32"`
	Email              string                 `json:"email" validate:"omitempty,email,max=255"`
	ExistingConditions []string               `json:"existingConditions" validate:"dive,max=100"`
	Description        string                 `json:"description"`
	AppointmentType    models.AppointmentType `json:"appointmentType"`
	Urgency            models.Urgency         `json:"urgency"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// invalidFields lists the fields whose values are present but malformed.
func (r Registration) invalidFields() []string {
	var errs validator.ValidationErrors
	if !errors.As(validate.Struct(r), &errs) {
		return nil
	}
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field())
	}
	return fields
}

func (r Registration) missingFields() []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"firstName", r.FirstName},
		{"lastName", r.LastName},
		{"phone", r.Phone},
		{"dateOfBirth", r.DateOfBirth},
		{"description", r.Description},
		{"appointmentType", string(r.AppointmentType)},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// SymptomReport is the quick check-in form of a verified returning patient.
type SymptomReport struct {
	Description string         `json:"description"`
	Urgency     models.Urgency `json:"urgency"`
}

// Snapshot is a copy of a session's visible state.
type Snapshot struct {
	ID        string           `json:"id"`
	Journey   Journey          `json:"journey"`
	State     State            `json:"state"`
	Patient   *models.Patient  `json:"patient,omitempty"`
	Analysis  *models.Analysis `json:"analysis,omitempty"`
	CheckInID string           `json:"checkInId,omitempty"`
	ReportKey string           `json:"reportKey,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Workflow is one intake session. Transitions are serialized: while a client
// call is in flight every other transition fails with InvalidTransitionError.
type Workflow struct {
	id      string
	journey Journey
	deps    Dependencies
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	state     State
	busy      bool
	patient   *models.Patient
	analysis  *models.Analysis
	checkInID string
	reportKey string
	createdAt time.Time
	updatedAt time.Time
}

// New creates a session at the start state of journey.
func New(id string, journey Journey, deps Dependencies) *Workflow {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Workflow{
		id:      id,
		journey: journey,
		deps:    deps,
		logger:  logger.Named("workflow").With(zap.String("session_id", id), zap.String("journey", string(journey))),
		now:     time.Now,
	}
	w.state = w.startState()
	w.createdAt = w.now().UTC()
	w.updatedAt = w.createdAt
	return w
}

func (w *Workflow) startState() State {
	if w.journey == JourneyReturning {
		return StateIdentityPending
	}
	return StateIdle
}

// ID returns the session id.
func (w *Workflow) ID() string { return w.id }

// Snapshot returns the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workflow) snapshotLocked() Snapshot {
	return Snapshot{
		ID:        w.id,
		Journey:   w.journey,
		State:     w.state,
		Patient:   w.patient,
		Analysis:  w.analysis,
		CheckInID: w.checkInID,
		ReportKey: w.reportKey,
		CreatedAt: w.createdAt,
		UpdatedAt: w.updatedAt,
	}
}

// begin claims the session for action if it is in one of the allowed states.
// The caller must hold w.mu.
func (w *Workflow) begin(action string, allowed ...State) error {
	if w.busy {
		return &apperrors.InvalidTransitionError{From: string(w.state), Action: action}
	}
	for _, s := range allowed {
		if w.state == s {
			return nil
		}
	}
	return &apperrors.InvalidTransitionError{From: string(w.state), Action: action}
}

// enter sets the state and marks the session busy. The caller must hold w.mu.
func (w *Workflow) enter(state State) {
	w.state = state
	w.busy = true
	w.updatedAt = w.now().UTC()
}

// settle clears the busy mark and moves to state.
func (w *Workflow) settle(state State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = state
	w.busy = false
	w.updatedAt = w.now().UTC()
}

// Register runs the new-patient path: create the patient, analyze the
// description and record the visit. Any failure returns the session to idle
// with nothing retained.
func (w *Workflow) Register(ctx context.Context, reg Registration) (Snapshot, error) {
	w.mu.Lock()
	if w.journey != JourneyNew {
		w.mu.Unlock()
		return w.Snapshot(), &apperrors.InvalidTransitionError{From: string(w.state), Action: "register"}
	}
	if err := w.begin("register", StateIdle); err != nil {
		w.mu.Unlock()
		return w.Snapshot(), err
	}
	if missing := reg.missingFields(); len(missing) > 0 {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, apperrors.Validation("please fill in all required fields", missing...)
	}
	if invalid := reg.invalidFields(); len(invalid) > 0 {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, apperrors.Validation("please correct the highlighted fields", invalid...)
	}
	if !reg.AppointmentType.Valid() {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, apperrors.Validation("invalid appointment type", "appointmentType")
	}
	if reg.Urgency != "" && !reg.Urgency.Valid() {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, apperrors.Validation("invalid urgency", "urgency")
	}
	w.enter(StateSubmitting)
	w.mu.Unlock()

	patient, analysis, checkInID, err := w.submitNewPatient(ctx, reg)
	if err != nil {
		w.logger.Warn("registration failed", zap.Error(err))
		w.settle(StateIdle)
		return w.Snapshot(), err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.patient = patient
	w.analysis = analysis
	w.checkInID = checkInID
	w.state = StateAnalyzed
	w.busy = false
	w.updatedAt = w.now().UTC()
	w.logger.Info("patient registered and analyzed", zap.String("patient_id", patient.ID))
	return w.snapshotLocked(), nil
}

func (w *Workflow) submitNewPatient(ctx context.Context, reg Registration) (*models.Patient, *models.Analysis, string, error) {
	patient, err := w.deps.Patients.Create(ctx, patients.NewPatient{
		FirstName:          reg.FirstName,
		LastName:           reg.LastName,
		DateOfBirth:        reg.DateOfBirth,
		Phone:              reg.Phone,
		Email:              reg.Email,
		ExistingConditions: reg.ExistingConditions,
	})
	if err != nil {
		return nil, nil, "", err
	}

	analysis, checkInID, err := w.analyzeAndRecord(ctx, patient.ID, checkins.Visit{
		Description:     reg.Description,
		Urgency:         reg.Urgency,
		AppointmentType: reg.AppointmentType,
	})
	if err != nil {
		return nil, nil, "", err
	}
	return patient, analysis, checkInID, nil
}

// Verify looks up a returning patient. A miss or a lookup failure keeps the
// session in identity_pending.
func (w *Workflow) Verify(ctx context.Context, patientID string) (Snapshot, error) {
	w.mu.Lock()
	if err := w.begin("verify identity", StateIdentityPending); err != nil {
		w.mu.Unlock()
		return w.Snapshot(), err
	}
	patientID = strings.TrimSpace(patientID)
	if len(patientID) < minPatientIDLength {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, apperrors.Validation(fmt.Sprintf("patient id must be at least %d characters", minPatientIDLength), "patientId")
	}
	w.busy = true
	w.mu.Unlock()

	patient, err := w.deps.Patients.FindByID(ctx, patientID)
	if err == nil && patient == nil {
		err = fmt.Errorf("patient %s: %w", patientID, apperrors.ErrNotFound)
	}
	if err != nil {
		w.logger.Info("identity verification failed", zap.String("patient_id", patientID), zap.Error(err))
		w.settle(StateIdentityPending)
		return w.Snapshot(), err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.patient = patient
	w.state = StateIdentityVerified
	w.busy = false
	w.updatedAt = w.now().UTC()
	w.logger.Info("identity verified", zap.String("patient_id", patient.ID))
	return w.snapshotLocked(), nil
}

// SubmitSymptoms analyzes a verified patient's description and records the
// visit. Failures keep the session in identity_verified.
func (w *Workflow) SubmitSymptoms(ctx context.Context, report SymptomReport) (Snapshot, error) {
	w.mu.Lock()
	if err := w.begin("submit symptoms", StateIdentityVerified); err != nil {
		w.mu.Unlock()
		return w.Snapshot(), err
	}
	description := strings.TrimSpace(report.Description)
	if len([]rune(description)) < minDescriptionLength {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, apperrors.Validation(fmt.Sprintf("please describe your symptoms in at least %d characters", minDescriptionLength), "description")
	}
	if report.Urgency != "" && !report.Urgency.Valid() {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, apperrors.Validation("invalid urgency", "urgency")
	}
	patient := w.patient
	w.busy = true
	w.mu.Unlock()

	analysis, checkInID, err := w.analyzeAndRecord(ctx, patient.ID, checkins.Visit{
		Description: description,
		Urgency:     report.Urgency,
	})
	if err != nil {
		w.logger.Warn("symptom submission failed", zap.String("patient_id", patient.ID), zap.Error(err))
		w.settle(StateIdentityVerified)
		return w.Snapshot(), err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.analysis = analysis
	w.checkInID = checkInID
	w.state = StateAnalyzed
	w.busy = false
	w.updatedAt = w.now().UTC()
	w.logger.Info("symptoms analyzed", zap.String("patient_id", patient.ID))
	return w.snapshotLocked(), nil
}

// analyzeAndRecord runs the analyzer, then records the visit and publishes
// the event when a recorder is configured.
func (w *Workflow) analyzeAndRecord(ctx context.Context, patientID string, visit checkins.Visit) (*models.Analysis, string, error) {
	analysis, err := w.deps.Analyzer.Analyze(ctx, visit.Description)
	if err != nil {
		return nil, "", err
	}
	if w.deps.CheckIns == nil {
		return analysis, "", nil
	}

	visit.PatientID = patientID
	visit.Analysis = analysis
	recorded, err := w.deps.CheckIns.Record(ctx, visit)
	if err != nil {
		return nil, "", err
	}
	w.publish(ctx, recorded.CheckIn, analysis)
	return analysis, recorded.CheckIn.ID, nil
}

func (w *Workflow) publish(ctx context.Context, checkIn *models.CheckIn, analysis *models.Analysis) {
	if w.deps.Events == nil {
		return
	}
	if err := w.deps.Events.Publish(ctx, events.CheckInAnalyzed(checkIn, analysis)); err != nil {
		w.logger.Warn("failed to publish check-in event", zap.String("check_in_id", checkIn.ID), zap.Error(err))
	}
}

// GenerateReport stores the report of an analyzed session. On failure the
// session returns to analyzed and the call may be repeated.
func (w *Workflow) GenerateReport(ctx context.Context) (Snapshot, error) {
	w.mu.Lock()
	if err := w.begin("generate report", StateAnalyzed); err != nil {
		w.mu.Unlock()
		return w.Snapshot(), err
	}
	patient, analysis := w.patient, w.analysis
	w.enter(StateReportPending)
	w.mu.Unlock()

	key, err := w.deps.Reports.Generate(ctx, patient, analysis)
	if err != nil {
		w.logger.Warn("report generation failed", zap.String("patient_id", patient.ID), zap.Error(err))
		w.settle(StateAnalyzed)
		return w.Snapshot(), err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.reportKey = key
	w.state = StateReportReady
	w.busy = false
	w.updatedAt = w.now().UTC()
	w.logger.Info("report ready", zap.String("report_key", key))
	return w.snapshotLocked(), nil
}

// Reset discards the patient, analysis, check-in and report of the session and
// returns it to its start state. It is refused while a call is in flight.
func (w *Workflow) Reset() (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return w.snapshotLocked(), &apperrors.InvalidTransitionError{From: string(w.state), Action: "reset"}
	}
	w.state = w.startState()
	w.patient = nil
	w.analysis = nil
	w.checkInID = ""
	w.reportKey = ""
	w.updatedAt = w.now().UTC()
	return w.snapshotLocked(), nil
}
