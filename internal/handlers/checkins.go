package handlers

import (
	"patient-intake-server/internal/utils"
	"patient-intake-server/internal/workflow"

	"github.com/gin-gonic/gin"
)

// CheckInHandler exposes intake sessions over HTTP.
type CheckInHandler struct {
	sessions *workflow.Manager
}

// NewCheckInHandler creates a new CheckInHandler.
func NewCheckInHandler(sessions *workflow.Manager) *CheckInHandler {
	return &CheckInHandler{sessions: sessions}
}

// StartSessionRequest selects the journey of a new session.
type StartSessionRequest struct {
	Journey workflow.Journey `json:"journey" binding:"required,oneof=new returning"`
}

// VerifyRequest carries the returning patient's id.
type VerifyRequest struct {
	PatientID string `json:"patientId"`
}

// StartSession opens a check-in session.
func (h *CheckInHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	w, err := h.sessions.Start(req.Journey)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Created(c, "Check-in session started", w.Snapshot())
}

// GetSession returns the state of a session.
func (h *CheckInHandler) GetSession(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	utils.Success(c, "Check-in session fetched", w.Snapshot())
}

// DeleteSession drops a session.
func (h *CheckInHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Check-in session closed", nil)
}

// Register submits the new-patient form.
func (h *CheckInHandler) Register(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	var req workflow.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	snap, err := w.Register(c.Request.Context(), req)
	respond(c, "Patient registered and symptoms analyzed", snap, err)
}

// Verify checks a returning patient's id.
func (h *CheckInHandler) Verify(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	snap, err := w.Verify(c.Request.Context(), req.PatientID)
	respond(c, "Identity verified", snap, err)
}

// SubmitSymptoms sends a verified patient's symptom description.
func (h *CheckInHandler) SubmitSymptoms(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	var req workflow.SymptomReport
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	snap, err := w.SubmitSymptoms(c.Request.Context(), req)
	respond(c, "Symptoms analyzed", snap, err)
}

// GenerateReport stores the session's report.
func (h *CheckInHandler) GenerateReport(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	snap, err := w.GenerateReport(c.Request.Context())
	respond(c, "Report generated", snap, err)
}

// Reset starts the session over.
func (h *CheckInHandler) Reset(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	snap, err := w.Reset()
	respond(c, "Check-in session reset", snap, err)
}

func (h *CheckInHandler) session(c *gin.Context) (*workflow.Workflow, bool) {
	w, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		utils.FromError(c, err)
		return nil, false
	}
	return w, true
}

// respond sends the snapshot on success and the classified error, still
// carrying the snapshot, on failure.
func respond(c *gin.Context, message string, snap workflow.Snapshot, err error) {
	if err != nil {
		utils.FromErrorWithData(c, err, snap)
		return
	}
	utils.Success(c, message, snap)
}
