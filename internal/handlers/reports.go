package handlers

import (
	"fmt"
	"io"
	"net/http"

	"patient-intake-server/internal/reports"
	"patient-intake-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves stored report artifacts to staff.
type ReportHandler struct {
	generator *reports.Generator
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(generator *reports.Generator) *ReportHandler {
	return &ReportHandler{generator: generator}
}

// Download streams the report stored under :key as an attachment.
func (h *ReportHandler) Download(c *gin.Context) {
	key := c.Param("key")
	if !reports.ValidKey(key) {
		utils.BadRequest(c, "Invalid report key format: "+key)
		return
	}

	rc, err := h.generator.Open(c.Request.Context(), key)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		utils.FromError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", key))
	c.Data(http.StatusOK, reports.ContentType, body)
}
