package documents

import (
	"time"

	"ehr-backend/internal/elements"
	"ehr-backend/internal/record"
)

// Extraction status values for a document.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Config captures the extraction choices made at upload time.
// An empty section selection means every section.
type Config struct {
	UseExternalExtractor bool
	UseLLMExtraction     bool
	SelectedSections     []string
}

// Validate rejects unknown section names before any work is scheduled.
func (c Config) Validate() error {
	if err := record.ValidateSections(record.SectionNames(c.SelectedSections)); err != nil {
		return err
	}
	return nil
}

// Scope resolves the configured selection to concrete section names.
func (c Config) Scope() []record.SectionName {
	if len(c.SelectedSections) == 0 {
		return record.AllSections()
	}
	return record.SectionNames(c.SelectedSections)
}

// Document represents an uploaded clinical PDF and everything derived from it.
// FileName is immutable after upload; Record is nil until an extraction has
// succeeded; Elements are retained so re-extraction can skip the PDF parse.
type Document struct {
	ID           string
	FileName     string
	StorageKey   string
	UploadedAt   time.Time
	Status       string
	Config       Config
	Elements     []elements.Element
	ElementCount int
	Record       *record.StructuredRecord
	Summary      string
	LastError    string
}
