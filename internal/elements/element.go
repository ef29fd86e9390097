package elements

import (
	"context"
	"errors"
)

// Element types. The remote partition API reports CamelCase type names;
// both extractors normalize to these values.
const (
	TypeTitle         = "title"
	TypeNarrativeText = "narrative_text"
	TypeListItem      = "list_item"
	TypeTable         = "table"
)

// Element is a typed, positioned fragment of text pulled from a source
// document.
type Element struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Page int    `json:"page,omitempty"`
}

// ErrExtractionUnavailable indicates the element extractor could not
// process the document (remote service down, unreadable PDF).
var ErrExtractionUnavailable = errors.New("element extraction unavailable")

// Extractor converts raw document bytes into an ordered element sequence.
type Extractor interface {
	ExtractElements(ctx context.Context, data []byte, fileName string) ([]Element, error)
}

// CombineText joins element text with newlines, skipping empties.
func CombineText(els []Element) string {
	total := 0
	for _, el := range els {
		total += len(el.Text) + 1
	}
	buf := make([]byte, 0, total)
	for _, el := range els {
		if el.Text == "" {
			continue
		}
		if len(buf) > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, el.Text...)
	}
	return string(buf)
}
