package record

import (
	"errors"
	"fmt"
)

// SectionName identifies one named subdivision of the structured record.
type SectionName string

const (
	SectionPatientInfo   SectionName = "patient_info"
	SectionVitalSigns    SectionName = "vital_signs"
	SectionDiagnoses     SectionName = "diagnoses"
	SectionMedications   SectionName = "medications"
	SectionAllergies     SectionName = "allergies"
	SectionProcedures    SectionName = "procedures"
	SectionClinicalNotes SectionName = "clinical_notes"
)

// AllSections lists every section in canonical order.
func AllSections() []SectionName {
	return []SectionName{
		SectionPatientInfo,
		SectionVitalSigns,
		SectionDiagnoses,
		SectionMedications,
		SectionAllergies,
		SectionProcedures,
		SectionClinicalNotes,
	}
}

// ErrUnknownSection indicates a section name outside the fixed set.
var ErrUnknownSection = errors.New("unknown section")

// ValidSection reports whether name is a recognized section.
func ValidSection(name SectionName) bool {
	switch name {
	case SectionPatientInfo, SectionVitalSigns, SectionDiagnoses,
		SectionMedications, SectionAllergies, SectionProcedures,
		SectionClinicalNotes:
		return true
	}
	return false
}

// ValidateSections checks every name and returns ErrUnknownSection
// (wrapped with the offending name) for the first unrecognized one.
func ValidateSections(names []SectionName) error {
	for _, name := range names {
		if !ValidSection(name) {
			return fmt.Errorf("%w: %q", ErrUnknownSection, string(name))
		}
	}
	return nil
}

// SectionNames converts raw strings into section names without validating.
func SectionNames(raw []string) []SectionName {
	if len(raw) == 0 {
		return nil
	}
	out := make([]SectionName, 0, len(raw))
	for _, s := range raw {
		out = append(out, SectionName(s))
	}
	return out
}

// SectionStrings converts section names back to raw strings.
func SectionStrings(names []SectionName) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, string(n))
	}
	return out
}
