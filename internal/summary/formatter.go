// Package summary renders a structured clinical record into discharge
// summary text via a placeholder template.
package summary

import (
	"fmt"
	"strings"

	"ehr-backend/internal/record"
)

// Sentinel rendered for any field or section with no extracted value.
// Summaries keep a stable, diff-able shape no matter which fields were
// found.
const NotDocumented = "Not documented"

// Format renders the record through the template. Placeholders are
// {name}-style tokens, one per field or section. Rendering is deterministic
// and side-effect free.
func Format(rec record.StructuredRecord, tpl string) string {
	replacer := strings.NewReplacer(
		"{patient_name}", fieldOrSentinel(rec.PatientInfo.Name),
		"{date_of_birth}", fieldOrSentinel(rec.PatientInfo.DateOfBirth),
		"{mrn}", fieldOrSentinel(rec.PatientInfo.MRN),
		"{age}", fieldOrSentinel(rec.PatientInfo.Age),
		"{gender}", fieldOrSentinel(rec.PatientInfo.Gender),
		"{vital_signs}", formatVitals(rec.VitalSigns),
		"{diagnoses}", formatNumberedList(rec.Diagnoses),
		"{medications}", formatMedications(rec.Medications),
		"{allergies}", formatBulletList(rec.Allergies),
		"{procedures}", formatNumberedList(rec.Procedures),
		"{clinical_notes}", formatNotes(rec.ClinicalNotes),
	)
	return replacer.Replace(tpl)
}

// FormatDefault renders with the built-in discharge template.
func FormatDefault(rec record.StructuredRecord) string {
	return Format(rec, DefaultTemplate)
}

func fieldOrSentinel(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return NotDocumented
	}
	return *v
}

func formatVitals(v record.VitalSigns) string {
	entries := []struct {
		label string
		value *string
	}{
		{"Blood Pressure", v.BloodPressure},
		{"Heart Rate", v.HeartRate},
		{"Temperature", v.Temperature},
		{"Respiratory Rate", v.RespiratoryRate},
		{"Oxygen Saturation", v.OxygenSaturation},
	}

	var lines []string
	for _, e := range entries {
		if e.value == nil || strings.TrimSpace(*e.value) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", e.label, *e.value))
	}
	if len(lines) == 0 {
		return NotDocumented
	}
	return strings.Join(lines, "\n")
}

func formatNumberedList(items []string) string {
	if len(items) == 0 {
		return NotDocumented
	}
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, item))
	}
	return strings.Join(lines, "\n")
}

func formatBulletList(items []string) string {
	if len(items) == 0 {
		return NotDocumented
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "  - "+item)
	}
	return strings.Join(lines, "\n")
}

func formatMedications(meds []record.Medication) string {
	if len(meds) == 0 {
		return NotDocumented
	}
	lines := make([]string, 0, len(meds))
	for i, med := range meds {
		line := fmt.Sprintf("  %d. %s", i+1, med.Name)
		if med.Dosage != "" {
			line += " - " + med.Dosage
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatNotes(notes []string) string {
	if len(notes) == 0 {
		return NotDocumented
	}
	indented := make([]string, 0, len(notes))
	for _, note := range notes {
		indented = append(indented, "  "+note)
	}
	return strings.Join(indented, "\n\n")
}
