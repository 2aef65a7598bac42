package reports

import (
	"fmt"
	"math"
	"strings"
	"time"

	"patient-intake-server/internal/models"
)

// Render produces the plain-text patient report.
func Render(patient *models.Patient, analysis *models.Analysis, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("PATIENT INTAKE REPORT\n")
	b.WriteString("=====================\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339))

	b.WriteString("PATIENT\n")
	fmt.Fprintf(&b, "Patient ID: %s\n", patient.ID)
	fmt.Fprintf(&b, "Name: %s\n", patient.FullName())
	fmt.Fprintf(&b, "Date of Birth: %s\n", patient.DateOfBirth)
	fmt.Fprintf(&b, "Phone: %s\n", patient.Phone)
	if patient.Email != nil && *patient.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", *patient.Email)
	}
	if len(patient.ExistingConditions) > 0 {
		fmt.Fprintf(&b, "Existing Conditions: %s\n", strings.Join(patient.ExistingConditions, ", "))
	} else {
		b.WriteString("Existing Conditions: None reported\n")
	}

	b.WriteString("\nSYMPTOM ANALYSIS\n")
	fmt.Fprintf(&b, "Specialty: %s\n", analysis.Specialty.Label())
	fmt.Fprintf(&b, "Severity: %s\n", analysis.Severity)
	fmt.Fprintf(&b, "Triage Recommendation: %s\n", analysis.TriageRecommendation)

	b.WriteString("\nPossible Conditions:\n")
	if len(analysis.PossibleConditions) == 0 {
		b.WriteString("- None identified\n")
	}
	for _, c := range analysis.PossibleConditions {
		fmt.Fprintf(&b, "- %s (%d%%)\n", c.Name, Percent(c.Probability))
	}

	b.WriteString("\nRecommended Actions:\n")
	if len(analysis.RecommendedActions) == 0 {
		b.WriteString("- None\n")
	}
	for _, action := range analysis.RecommendedActions {
		fmt.Fprintf(&b, "- %s\n", action)
	}

	if analysis.DoctorNotes != "" {
		fmt.Fprintf(&b, "\nDoctor Notes:\n%s\n", analysis.DoctorNotes)
	}

	b.WriteString("\nThis report was generated automatically and is not a diagnosis.\n")
	return b.String()
}

// Percent renders a probability as a rounded whole percentage.
func Percent(probability float64) int {
	return int(math.Round(probability * 100))
}
