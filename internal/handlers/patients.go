package handlers

import (
	"patient-intake-server/internal/patients"
	"patient-intake-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// PatientHandler gives staff direct access to the patient directory.
type PatientHandler struct {
	directory *patients.Directory
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(directory *patients.Directory) *PatientHandler {
	return &PatientHandler{directory: directory}
}

// GetPatient fetches a patient with their existing conditions.
func (h *PatientHandler) GetPatient(c *gin.Context) {
	patient, err := h.directory.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.FromError(c, err)
		return
	}
	if patient == nil {
		utils.NotFound(c, "Patient not found")
		return
	}
	utils.Success(c, "Patient fetched successfully", patient)
}

// CreatePatient registers a patient without starting a check-in.
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req patients.NewPatient
	if !utils.BindAndValidate(c, &req) {
		return
	}
	patient, err := h.directory.Create(c.Request.Context(), req)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Created(c, "Patient created successfully", patient)
}
