package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"ehr-backend/internal/elements"
	"ehr-backend/internal/extract"
	"ehr-backend/internal/record"
	"ehr-backend/internal/search"
	"ehr-backend/internal/shared/metrics"
	"ehr-backend/internal/shared/storage/object"
	"ehr-backend/internal/shared/telemetry"
	"ehr-backend/internal/summary"
)

// Service owns the document lifecycle: upload, extraction, re-extraction,
// deletion. Extractions run asynchronously; a per-document lock table keeps
// at most one extraction per document in flight while unrelated documents
// proceed concurrently.
type Service struct {
	Repo  DocumentsRepo
	Store object.ObjectStore
	Index *search.Index

	// Local parses PDFs in-process; Remote calls the partition API and is
	// used when a document was uploaded with use_api. Remote may be nil.
	Local  elements.Extractor
	Remote elements.Extractor

	// Rules is the regex extractor; LLM may be nil, in which case use_llm
	// uploads fall back to rules.
	Rules extract.Extractor
	LLM   extract.Extractor

	locks lockTable
}

// Upload stores the PDF, records a processing document and schedules
// extraction. The returned document is still processing.
func (s *Service) Upload(ctx context.Context, fileName string, cfg Config, r io.Reader) (Document, error) {
	if err := cfg.Validate(); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}

	id := uuid.NewString()
	storageKey, _, _, err := s.Store.Save(ctx, id, fileName, bytes.NewReader(data))
	if err != nil {
		return Document{}, fmt.Errorf("store upload: %w", err)
	}

	doc := Document{
		ID:         id,
		FileName:   fileName,
		StorageKey: storageKey,
		UploadedAt: time.Now().UTC(),
		Status:     StatusProcessing,
		Config:     cfg,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	if err := s.BeginExtraction(ctx, doc.ID); err != nil {
		return Document{}, err
	}

	metrics.IncExtractionStarted()
	telemetry.Info("extraction.started", map[string]any{
		"document_id": doc.ID,
		"filename":    doc.FileName,
		"use_api":     cfg.UseExternalExtractor,
		"use_llm":     cfg.UseLLMExtraction,
	})

	go s.process(doc, data, doc.Config.Scope())

	return doc, nil
}

// BeginExtraction takes the document's extraction lock without blocking.
func (s *Service) BeginExtraction(ctx context.Context, documentID string) error {
	if _, err := s.Repo.GetByID(ctx, documentID); err != nil {
		return err
	}
	if !s.locks.TryAcquire(documentID) {
		return ErrExtractionInProgress
	}
	return nil
}

// CompleteExtraction merges the partial record into the stored one, renders
// the discharge summary, refreshes the search index entry and releases the
// document's lock.
func (s *Service) CompleteExtraction(ctx context.Context, documentID string, partial record.StructuredRecord, scope []record.SectionName) error {
	defer s.locks.Release(documentID)

	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	base := record.StructuredRecord{}
	if doc.Record != nil {
		base = *doc.Record
	}
	merged := record.Merge(base, partial, scope)

	doc.Record = &merged
	doc.Summary = summary.FormatDefault(merged)
	doc.Status = StatusCompleted
	doc.LastError = ""

	if err := s.Repo.Update(ctx, doc); err != nil {
		return err
	}

	s.Index.Put(doc.ID, doc.FileName, merged)
	metrics.IncExtractionCompleted()
	telemetry.Info("extraction.completed", map[string]any{
		"document_id":   doc.ID,
		"element_count": doc.ElementCount,
	})
	return nil
}

// FailExtraction records a failed attempt and releases the document's lock.
// A first-run failure leaves the document failed with no record; a failed
// re-extraction keeps the last-good record and summary and reverts the
// status to completed, so readers never see partial results. The index entry
// is left alone for the same reason.
func (s *Service) FailExtraction(ctx context.Context, documentID string, reason error) error {
	defer s.locks.Release(documentID)

	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	if doc.Record != nil {
		doc.Status = StatusCompleted
	} else {
		doc.Status = StatusFailed
	}
	doc.LastError = reason.Error()

	if err := s.Repo.Update(ctx, doc); err != nil {
		return err
	}

	metrics.IncExtractionFailed()
	telemetry.Error("extraction.failed", map[string]any{
		"document_id": doc.ID,
		"status":      doc.Status,
		"reason":      reason.Error(),
	})
	return nil
}

// Get returns a document by ID.
func (s *Service) Get(ctx context.Context, documentID string) (Document, error) {
	return s.Repo.GetByID(ctx, documentID)
}

// List returns documents newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Document, error) {
	return s.Repo.List(ctx, limit, offset)
}

// Delete removes the document, its index entry and the stored PDF. Deletion
// is refused while an extraction is running.
func (s *Service) Delete(ctx context.Context, documentID string) error {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if !s.locks.TryAcquire(documentID) {
		return ErrExtractionInProgress
	}
	defer s.locks.Release(documentID)

	if err := s.Repo.Delete(ctx, documentID); err != nil {
		return err
	}
	s.Index.Remove(documentID)

	if doc.StorageKey != "" {
		if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
			telemetry.Warn("document.delete.object", map[string]any{
				"document_id": documentID,
				"error":       err.Error(),
			})
		}
	}
	return nil
}

// Summary returns the rendered discharge summary for a completed document.
func (s *Service) Summary(ctx context.Context, documentID string) (string, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return "", err
	}
	if doc.Status != StatusCompleted || doc.Summary == "" {
		return "", ErrNoSummary
	}
	return doc.Summary, nil
}

// Reextract re-runs structured extraction for the given sections against the
// stored elements. The scope must be non-empty and valid. The returned
// document is processing; the last-good record stays visible until the new
// attempt settles.
func (s *Service) Reextract(ctx context.Context, documentID string, sections []string) (Document, error) {
	if len(sections) == 0 {
		return Document{}, fmt.Errorf("%w: no sections selected", ErrInvalidConfig)
	}
	scope := record.SectionNames(sections)
	if err := record.ValidateSections(scope); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, err
	}

	if !s.locks.TryAcquire(documentID) {
		return Document{}, ErrExtractionInProgress
	}

	doc.Status = StatusProcessing
	doc.Config.SelectedSections = sections
	if err := s.Repo.Update(ctx, doc); err != nil {
		s.locks.Release(documentID)
		return Document{}, err
	}

	metrics.IncExtractionStarted()
	telemetry.Info("extraction.restarted", map[string]any{
		"document_id": doc.ID,
		"sections":    sections,
	})

	go s.process(doc, nil, scope)

	return doc, nil
}

// RebuildIndex repopulates the search index from completed documents. Called
// at startup: the index is a cache over the repo, not a source of truth.
func (s *Service) RebuildIndex(ctx context.Context) error {
	docs, err := s.Repo.All(ctx)
	if err != nil {
		return err
	}
	indexed := 0
	for _, doc := range docs {
		if doc.Status == StatusCompleted && doc.Record != nil {
			s.Index.Put(doc.ID, doc.FileName, *doc.Record)
			indexed++
		}
	}
	telemetry.Info("search.index.rebuilt", map[string]any{
		"documents": len(docs),
		"indexed":   indexed,
	})
	return nil
}

// process runs the extraction pipeline for a document whose lock is already
// held. data is the raw PDF for fresh uploads and nil for re-extractions,
// which reuse the stored elements. Every exit path goes through
// CompleteExtraction or FailExtraction so the lock is always released.
func (s *Service) process(doc Document, data []byte, scope []record.SectionName) {
	ctx := context.Background()
	started := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			_ = s.FailExtraction(ctx, doc.ID, fmt.Errorf("extraction panic: %v", rec))
		}
	}()

	els, err := s.documentElements(ctx, doc, data)
	if err != nil {
		_ = s.FailExtraction(ctx, doc.ID, err)
		return
	}

	if len(els) != len(doc.Elements) {
		doc.Elements = els
		doc.ElementCount = len(els)
		if err := s.Repo.Update(ctx, doc); err != nil {
			_ = s.FailExtraction(ctx, doc.ID, fmt.Errorf("persist elements: %w", err))
			return
		}
	}

	partial, err := s.sectionExtractor(doc.Config).ExtractSections(ctx, els, scope)
	if err != nil {
		_ = s.FailExtraction(ctx, doc.ID, err)
		return
	}

	if err := s.CompleteExtraction(ctx, doc.ID, partial, scope); err != nil {
		telemetry.Error("extraction.finalize", map[string]any{
			"document_id": doc.ID,
			"error":       err.Error(),
		})
		return
	}
	metrics.ObserveExtractionDurationMs(float64(time.Since(started).Milliseconds()))
}

// documentElements returns the element sequence to extract from: stored
// elements when available, otherwise a fresh parse of the PDF (read back
// from the object store when the caller has no bytes in hand).
func (s *Service) documentElements(ctx context.Context, doc Document, data []byte) ([]elements.Element, error) {
	if data == nil && len(doc.Elements) > 0 {
		return doc.Elements, nil
	}

	if data == nil {
		rc, err := s.Store.Open(ctx, doc.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("open stored document: %w", err)
		}
		defer rc.Close()
		data, err = io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read stored document: %w", err)
		}
	}

	return s.elementExtractor(doc.Config).ExtractElements(ctx, data, doc.FileName)
}

func (s *Service) elementExtractor(cfg Config) elements.Extractor {
	if cfg.UseExternalExtractor && s.Remote != nil {
		return s.Remote
	}
	return s.Local
}

func (s *Service) sectionExtractor(cfg Config) extract.Extractor {
	if cfg.UseLLMExtraction && s.LLM != nil {
		return s.LLM
	}
	return s.Rules
}
