package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// ExtractInput captures the inputs for a scoped record extraction.
type ExtractInput struct {
	// DocumentText is the combined text of the document's elements.
	DocumentText string
	// SectionTexts maps normalized document headings to their text, when
	// the caller has sectionized the document.
	SectionTexts map[string]string
	// RequestedSections names the record sections the model must return.
	RequestedSections []string
}

// Client abstracts LLM providers for clinical record extraction. The raw
// JSON reply is parsed by the caller so provider quirks stay out of the
// extraction pipeline.
type Client interface {
	ExtractRecord(ctx context.Context, input ExtractInput) (json.RawMessage, error)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("LLM not configured")

// PlaceholderClient is a stub used when no provider is configured.
type PlaceholderClient struct{}

// ExtractRecord returns ErrNotConfigured.
func (PlaceholderClient) ExtractRecord(ctx context.Context, input ExtractInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotConfigured
}
