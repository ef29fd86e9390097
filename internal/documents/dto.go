package documents

import (
	"time"

	"ehr-backend/internal/record"
)

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID       string                   `json:"documentId"`
	FileName         string                   `json:"filename"`
	UploadedAt       time.Time                `json:"uploadDate"`
	Status           string                   `json:"status"`
	UseAPI           bool                     `json:"useApi"`
	UseLLM           bool                     `json:"useLlm"`
	SelectedSections []string                 `json:"selectedSections,omitempty"`
	ElementCount     int                      `json:"elementsCount"`
	ExtractedData    *record.StructuredRecord `json:"extractedData,omitempty"`
	DischargeSummary string                   `json:"dischargeSummary,omitempty"`
	LastError        string                   `json:"lastError,omitempty"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:       doc.ID,
		FileName:         doc.FileName,
		UploadedAt:       doc.UploadedAt,
		Status:           doc.Status,
		UseAPI:           doc.Config.UseExternalExtractor,
		UseLLM:           doc.Config.UseLLMExtraction,
		SelectedSections: doc.Config.SelectedSections,
		ElementCount:     doc.ElementCount,
		ExtractedData:    doc.Record,
		DischargeSummary: doc.Summary,
		LastError:        doc.LastError,
	}
}
