// Package extract derives a partial structured clinical record from the
// element sequence of a document. Two implementations exist: a rule-based
// extractor driven by clinical-document regexes, and an LLM-backed extractor
// that asks a language model for the scoped sections and falls back to the
// rules for any section the model leaves empty.
package extract

import (
	"context"
	"errors"

	"ehr-backend/internal/elements"
	"ehr-backend/internal/record"
)

var (
	// ErrLLMUnavailable indicates the language model could not be reached
	// or refused the request.
	ErrLLMUnavailable = errors.New("llm unavailable")

	// ErrMalformedResponse indicates the language model replied with data
	// that cannot be parsed into a structured record.
	ErrMalformedResponse = errors.New("malformed llm response")
)

// Extractor converts elements into a partial structured record covering
// exactly the requested sections. Sections outside scope are left at their
// zero value.
type Extractor interface {
	ExtractSections(ctx context.Context, els []elements.Element, scope []record.SectionName) (record.StructuredRecord, error)
}

func inScope(scope []record.SectionName, name record.SectionName) bool {
	for _, s := range scope {
		if s == name {
			return true
		}
	}
	return false
}
