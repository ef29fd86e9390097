package elements

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// RemoteExtractor calls a hosted partition API (unstructured-style) that
// converts document bytes into typed elements.
type RemoteExtractor struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewRemoteExtractor constructs a RemoteExtractor.
func NewRemoteExtractor(endpoint, apiKey string, timeout time.Duration) (*RemoteExtractor, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("partition API endpoint is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RemoteExtractor{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type partitionElement struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Metadata struct {
		PageNumber int `json:"page_number"`
	} `json:"metadata"`
}

// ExtractElements uploads the document and decodes the element list. Any
// transport or non-2xx failure maps to ErrExtractionUnavailable so callers
// never see the provider's native errors.
func (r *RemoteExtractor) ExtractElements(ctx context.Context, data []byte, fileName string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", fileName)
	if err != nil {
		return nil, fmt.Errorf("partition request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("partition request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("partition request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("partition request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("unstructured-api-key", r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrExtractionUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: partition API status %d", ErrExtractionUnavailable, resp.StatusCode)
	}

	var parsed []partitionElement
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrExtractionUnavailable, err)
	}

	els := make([]Element, 0, len(parsed))
	for _, pe := range parsed {
		text := strings.TrimSpace(pe.Text)
		if text == "" {
			continue
		}
		els = append(els, Element{
			Type: normalizeElementType(pe.Type),
			Text: text,
			Page: pe.Metadata.PageNumber,
		})
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: partition API returned no elements", ErrExtractionUnavailable)
	}
	return els, nil
}

func normalizeElementType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "title", "header", "heading":
		return TypeTitle
	case "listitem", "list_item", "list-item":
		return TypeListItem
	case "table":
		return TypeTable
	default:
		return TypeNarrativeText
	}
}
