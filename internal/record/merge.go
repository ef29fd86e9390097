package record

// Merge combines a partial record into base, replacing exactly the sections
// named in scope and leaving every other section untouched. A section named
// in scope but empty in partial is an explicit clear: the extractor ran and
// found nothing, so stale values must not survive. An empty scope returns
// base unchanged.
//
// Merge is pure. The returned record shares no slice storage with partial
// or base, so callers may treat all three as immutable values.
func Merge(base StructuredRecord, partial StructuredRecord, scope []SectionName) StructuredRecord {
	out := cloneRecord(base)
	for _, section := range scope {
		switch section {
		case SectionPatientInfo:
			out.PatientInfo = partial.PatientInfo
		case SectionVitalSigns:
			out.VitalSigns = partial.VitalSigns
		case SectionDiagnoses:
			out.Diagnoses = cloneStrings(partial.Diagnoses)
		case SectionMedications:
			out.Medications = cloneMedications(partial.Medications)
		case SectionAllergies:
			out.Allergies = cloneStrings(partial.Allergies)
		case SectionProcedures:
			out.Procedures = cloneStrings(partial.Procedures)
		case SectionClinicalNotes:
			out.ClinicalNotes = cloneStrings(partial.ClinicalNotes)
		}
	}
	return out
}

func cloneRecord(r StructuredRecord) StructuredRecord {
	out := r
	out.Diagnoses = cloneStrings(r.Diagnoses)
	out.Medications = cloneMedications(r.Medications)
	out.Allergies = cloneStrings(r.Allergies)
	out.Procedures = cloneStrings(r.Procedures)
	out.ClinicalNotes = cloneStrings(r.ClinicalNotes)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneMedications(in []Medication) []Medication {
	if in == nil {
		return nil
	}
	out := make([]Medication, len(in))
	copy(out, in)
	return out
}
