package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"ehr-backend/internal/elements"
	"ehr-backend/internal/llm"
	"ehr-backend/internal/record"
)

// LLMExtractor asks a language model for the scoped sections and falls back
// to the rule extractor for any section the model returned empty. A failed
// model call is surfaced, not silently downgraded: retry policy belongs to
// the caller.
type LLMExtractor struct {
	Client llm.Client
	Rules  RuleExtractor
}

// ExtractSections prompts the model with the sectionized document.
func (e *LLMExtractor) ExtractSections(ctx context.Context, els []elements.Element, scope []record.SectionName) (record.StructuredRecord, error) {
	if e.Client == nil {
		return record.StructuredRecord{}, fmt.Errorf("%w: no client", ErrLLMUnavailable)
	}

	sections := sectionize(els)
	sectionTexts := make(map[string]string, len(sections.order))
	for _, name := range sections.order {
		sectionTexts[name] = sections.text(name)
	}

	raw, err := e.Client.ExtractRecord(ctx, llm.ExtractInput{
		DocumentText:      elements.CombineText(els),
		SectionTexts:      sectionTexts,
		RequestedSections: record.SectionStrings(scope),
	})
	if err != nil {
		// Timeouts, cancellation and provider failures all surface the
		// same way: the model was unavailable for this attempt.
		return record.StructuredRecord{}, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}

	rec, err := parseRecordJSON(raw)
	if err != nil {
		return record.StructuredRecord{}, err
	}

	return e.fillEmptySections(ctx, rec, els, scope)
}

func parseRecordJSON(raw json.RawMessage) (record.StructuredRecord, error) {
	// Reject non-object payloads up front; Unmarshal into a struct would
	// accept "null" silently.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return record.StructuredRecord{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if probe == nil {
		return record.StructuredRecord{}, fmt.Errorf("%w: null payload", ErrMalformedResponse)
	}

	var rec record.StructuredRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return record.StructuredRecord{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return rec, nil
}

// fillEmptySections backstops the model with rule extraction for scoped
// sections it left empty. The model often misses regex-friendly fields
// like MRNs and dosages.
func (e *LLMExtractor) fillEmptySections(ctx context.Context, rec record.StructuredRecord, els []elements.Element, scope []record.SectionName) (record.StructuredRecord, error) {
	var missing []record.SectionName
	for _, section := range scope {
		if sectionEmpty(rec, section) {
			missing = append(missing, section)
		}
	}
	if len(missing) == 0 {
		return rec, nil
	}

	fallback, err := e.Rules.ExtractSections(ctx, els, missing)
	if err != nil {
		return record.StructuredRecord{}, err
	}
	return record.Merge(rec, fallback, missing), nil
}

func sectionEmpty(rec record.StructuredRecord, section record.SectionName) bool {
	switch section {
	case record.SectionPatientInfo:
		return rec.PatientInfo == record.PatientInfo{}
	case record.SectionVitalSigns:
		return rec.VitalSigns == record.VitalSigns{}
	case record.SectionDiagnoses:
		return len(rec.Diagnoses) == 0
	case record.SectionMedications:
		return len(rec.Medications) == 0
	case record.SectionAllergies:
		return len(rec.Allergies) == 0
	case record.SectionProcedures:
		return len(rec.Procedures) == 0
	case record.SectionClinicalNotes:
		return len(rec.ClinicalNotes) == 0
	}
	return false
}
