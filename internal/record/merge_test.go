package record

import (
	"reflect"
	"testing"
)

func baseRecord() StructuredRecord {
	return StructuredRecord{
		PatientInfo: PatientInfo{
			Name: Str("Ms. J"),
			MRN:  Str("MRN-1001"),
			Age:  Str("76"),
		},
		VitalSigns: VitalSigns{
			BloodPressure: Str("120/80"),
			HeartRate:     Str("72"),
		},
		Diagnoses:     []string{"Acute Bronchitis", "Hypertension"},
		Medications:   []Medication{{Name: "Diltiazem", Dosage: "120 mg"}},
		Allergies:     []string{"Penicillin"},
		Procedures:    []string{"Chest X-ray"},
		ClinicalNotes: []string{"Patient presented with cough."},
	}
}

func TestMergeReplacesOnlyScopedSections(t *testing.T) {
	base := baseRecord()
	partial := StructuredRecord{
		Diagnoses: []string{"Pneumonia"},
	}

	got := Merge(base, partial, []SectionName{SectionDiagnoses})

	if !reflect.DeepEqual(got.Diagnoses, []string{"Pneumonia"}) {
		t.Fatalf("diagnoses = %v, want [Pneumonia]", got.Diagnoses)
	}
	if !reflect.DeepEqual(got.VitalSigns, base.VitalSigns) {
		t.Fatalf("vital signs changed: %+v", got.VitalSigns)
	}
	if !reflect.DeepEqual(got.Medications, base.Medications) {
		t.Fatalf("medications changed: %+v", got.Medications)
	}
	if !reflect.DeepEqual(got.PatientInfo, base.PatientInfo) {
		t.Fatalf("patient info changed: %+v", got.PatientInfo)
	}
}

func TestMergeExplicitClear(t *testing.T) {
	base := baseRecord()
	// Partial carries nothing for diagnoses even though diagnoses is in
	// scope: the extractor found none, so the stale list must be cleared.
	partial := StructuredRecord{}

	got := Merge(base, partial, []SectionName{SectionDiagnoses})

	if len(got.Diagnoses) != 0 {
		t.Fatalf("diagnoses = %v, want cleared", got.Diagnoses)
	}
	if !reflect.DeepEqual(got.Allergies, base.Allergies) {
		t.Fatalf("allergies changed: %v", got.Allergies)
	}
}

func TestMergeEmptyScopeIsNoop(t *testing.T) {
	base := baseRecord()
	partial := StructuredRecord{Diagnoses: []string{"Pneumonia"}}

	got := Merge(base, partial, nil)

	if !reflect.DeepEqual(got, base) {
		t.Fatalf("merge with empty scope modified record:\n got %+v\nwant %+v", got, base)
	}
}

func TestMergeSectionIsolationAcrossDisjointScopes(t *testing.T) {
	base := baseRecord()
	p1 := StructuredRecord{Diagnoses: []string{"Pneumonia"}}
	p2 := StructuredRecord{Allergies: []string{"Sulfa"}}

	step1 := Merge(base, p1, []SectionName{SectionDiagnoses})
	step2 := Merge(step1, p2, []SectionName{SectionAllergies})

	if !reflect.DeepEqual(step2.Diagnoses, []string{"Pneumonia"}) {
		t.Fatalf("diagnoses = %v", step2.Diagnoses)
	}
	if !reflect.DeepEqual(step2.Allergies, []string{"Sulfa"}) {
		t.Fatalf("allergies = %v", step2.Allergies)
	}
	// Everything outside A∪B must equal the original.
	if !reflect.DeepEqual(step2.Medications, base.Medications) {
		t.Fatalf("medications = %v", step2.Medications)
	}
	if !reflect.DeepEqual(step2.Procedures, base.Procedures) {
		t.Fatalf("procedures = %v", step2.Procedures)
	}
	if !reflect.DeepEqual(step2.ClinicalNotes, base.ClinicalNotes) {
		t.Fatalf("clinical notes = %v", step2.ClinicalNotes)
	}
}

func TestMergeDoesNotAliasInputSlices(t *testing.T) {
	base := baseRecord()
	partial := StructuredRecord{Diagnoses: []string{"Pneumonia"}}

	got := Merge(base, partial, []SectionName{SectionDiagnoses})
	partial.Diagnoses[0] = "mutated"
	base.ClinicalNotes[0] = "mutated"

	if got.Diagnoses[0] != "Pneumonia" {
		t.Fatalf("merged record aliases partial: %v", got.Diagnoses)
	}
	if got.ClinicalNotes[0] != "Patient presented with cough." {
		t.Fatalf("merged record aliases base: %v", got.ClinicalNotes)
	}
}

func TestValidateSections(t *testing.T) {
	if err := ValidateSections([]SectionName{SectionDiagnoses, SectionVitalSigns}); err != nil {
		t.Fatalf("valid sections rejected: %v", err)
	}
	err := ValidateSections([]SectionName{SectionDiagnoses, "lab_results"})
	if err == nil {
		t.Fatal("expected error for unknown section")
	}
}
