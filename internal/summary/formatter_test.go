package summary

import (
	"strings"
	"testing"

	"ehr-backend/internal/record"
)

func TestFormatRendersSentinelForNullMRN(t *testing.T) {
	rec := record.StructuredRecord{
		PatientInfo: record.PatientInfo{
			Name: record.Str("Ms. J"),
			// MRN deliberately nil.
		},
	}

	out := FormatDefault(rec)

	if !strings.Contains(out, "MRN: "+NotDocumented) {
		t.Fatalf("MRN line missing sentinel:\n%s", out)
	}
	if strings.Contains(out, "MRN: null") || strings.Contains(out, "MRN: \n") {
		t.Fatalf("MRN rendered as null/empty:\n%s", out)
	}
	if !strings.Contains(out, "Name: Ms. J") {
		t.Fatalf("name not rendered:\n%s", out)
	}
}

func TestFormatIsDeterministic(t *testing.T) {
	rec := record.StructuredRecord{
		Diagnoses:   []string{"Pneumonia", "Hypertension"},
		Medications: []record.Medication{{Name: "Azithromycin", Dosage: "500 mg"}},
		VitalSigns:  record.VitalSigns{HeartRate: record.Str("96")},
	}

	first := FormatDefault(rec)
	second := FormatDefault(rec)
	if first != second {
		t.Fatal("formatting is not deterministic")
	}

	if !strings.Contains(first, "  1. Pneumonia") || !strings.Contains(first, "  2. Hypertension") {
		t.Fatalf("diagnoses not numbered:\n%s", first)
	}
	if !strings.Contains(first, "  1. Azithromycin - 500 mg") {
		t.Fatalf("medication dosage not rendered:\n%s", first)
	}
	if !strings.Contains(first, "Heart Rate: 96") {
		t.Fatalf("vitals not rendered:\n%s", first)
	}
}

func TestFormatEmptyRecordKeepsShape(t *testing.T) {
	out := FormatDefault(record.StructuredRecord{})

	// Every section renders the sentinel; none disappears.
	for _, heading := range []string{"VITAL SIGNS:", "DIAGNOSES:", "MEDICATIONS:", "ALLERGIES:", "PROCEDURES:", "CLINICAL NOTES:"} {
		if !strings.Contains(out, heading) {
			t.Errorf("heading %q missing:\n%s", heading, out)
		}
	}
	if got := strings.Count(out, NotDocumented); got != 11 {
		t.Errorf("sentinel count = %d, want 11 (5 patient fields + 6 sections)", got)
	}
}

func TestFormatCustomTemplate(t *testing.T) {
	rec := record.StructuredRecord{Allergies: []string{"Penicillin"}}
	out := Format(rec, "Allergies:\n{allergies}\nMRN={mrn}")
	if !strings.Contains(out, "  - Penicillin") {
		t.Fatalf("allergy bullet missing: %q", out)
	}
	if !strings.Contains(out, "MRN="+NotDocumented) {
		t.Fatalf("sentinel missing: %q", out)
	}
}
