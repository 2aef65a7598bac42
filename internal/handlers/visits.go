package handlers

import (
	"patient-intake-server/internal/checkins"
	"patient-intake-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// VisitHandler is the staff view of recorded check-ins.
type VisitHandler struct {
	recorder *checkins.Recorder
}

// NewVisitHandler creates a new VisitHandler.
func NewVisitHandler(recorder *checkins.Recorder) *VisitHandler {
	return &VisitHandler{recorder: recorder}
}

// ListVisits returns the check-in queue, most urgent first.
func (h *VisitHandler) ListVisits(c *gin.Context) {
	var filter checkins.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.BadRequest(c, "Invalid query: "+utils.FormatValidationError(err))
		return
	}
	visits, err := h.recorder.List(c.Request.Context(), filter)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Check-ins fetched successfully", visits)
}

// GetVisit returns one check-in with its analysis.
func (h *VisitHandler) GetVisit(c *gin.Context) {
	visit, err := h.recorder.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Check-in fetched successfully", visit)
}

// GetVisitAnalysis returns only the analysis stored for a check-in.
func (h *VisitHandler) GetVisitAnalysis(c *gin.Context) {
	result, err := h.recorder.Analysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Analysis fetched successfully", result)
}
