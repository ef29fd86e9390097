package documents

import "errors"

var (
	// ErrNotFound indicates the document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidConfig indicates an extraction config that names unknown
	// sections or an empty re-extraction scope.
	ErrInvalidConfig = errors.New("invalid extraction config")

	// ErrExtractionInProgress indicates another extraction holds the
	// document's lock.
	ErrExtractionInProgress = errors.New("extraction already in progress")

	// ErrNoSummary indicates the document has no rendered discharge summary yet.
	ErrNoSummary = errors.New("discharge summary not available")
)

// API error codes used in HTTP error bodies.
const (
	CodeDocumentNotFound     = "DOCUMENT_NOT_FOUND"
	CodeInvalidConfig        = "INVALID_CONFIG"
	CodeExtractionInProgress = "EXTRACTION_IN_PROGRESS"
	CodeValidationError      = "VALIDATION_ERROR"
	CodeInternalError        = "INTERNAL_ERROR"
)
