package elements

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts elements locally using github.com/ledongthuc/pdf.
// It is the default when the remote partition API is disabled.
type PDFExtractor struct{}

var listItemRe = regexp.MustCompile(`^\s*(?:\d+[\.\)]|[-•*])\s+`)

// ExtractElements reads the PDF and classifies each non-empty line into a
// typed element. Classification is heuristic: all-caps short lines become
// titles, numbered or bulleted lines become list items, everything else is
// narrative text.
func (PDFExtractor) ExtractElements(ctx context.Context, data []byte, fileName string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document %q", ErrExtractionUnavailable, fileName)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf %q: %v", ErrExtractionUnavailable, fileName, err)
	}

	var els []Element
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := pageText(page)
		if err != nil {
			continue
		}
		els = append(els, classifyLines(text, pageNum)...)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in %q", ErrExtractionUnavailable, fileName)
	}
	return els, nil
}

func pageText(page pdf.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, row := range rows {
		var line strings.Builder
		for _, word := range row.Content {
			if line.Len() > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(word.S)
		}
		if line.Len() > 0 {
			b.WriteString(line.String())
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func classifyLines(text string, page int) []Element {
	var els []Element
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		els = append(els, Element{
			Type: classifyLine(line),
			Text: line,
			Page: page,
		})
	}
	return els
}

func classifyLine(line string) string {
	if listItemRe.MatchString(line) {
		return TypeListItem
	}
	if isHeadingLine(line) {
		return TypeTitle
	}
	return TypeNarrativeText
}

// isHeadingLine treats short all-caps lines (optionally colon-terminated)
// as section headings, the way clinical documents mark them.
func isHeadingLine(line string) bool {
	trimmed := strings.TrimSuffix(line, ":")
	if trimmed == "" || len(trimmed) > 80 {
		return false
	}
	hasLetter := false
	for _, r := range trimmed {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		}
	}
	return hasLetter
}
