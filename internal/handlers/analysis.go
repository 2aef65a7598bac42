package handlers

import (
	"patient-intake-server/internal/analysis"
	"patient-intake-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// AnalysisHandler runs the symptom analyzer outside a check-in.
type AnalysisHandler struct {
	analyzer analysis.Analyzer
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analyzer analysis.Analyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer}
}

// AnalyzeRequest is a free-text symptom description.
type AnalyzeRequest struct {
	Description string `json:"description" binding:"required"`
}

// Analyze classifies the description.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	result, err := h.analyzer.Analyze(c.Request.Context(), req.Description)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Symptoms analyzed", result)
}
