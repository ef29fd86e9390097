package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"ehr-backend/internal/elements"
	"ehr-backend/internal/record"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, filename, storage_key, uploaded_at, status, use_external_extractor, use_llm_extraction, selected_sections, elements, element_count, record, summary, last_error`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    filename,
    storage_key,
    uploaded_at,
    status,
    use_external_extractor,
    use_llm_extraction,
    selected_sections,
    elements,
    element_count,
    record,
    summary,
    last_error
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	sections, els, rec, err := marshalDocumentJSON(doc)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.FileName,
		doc.StorageKey,
		doc.UploadedAt,
		doc.Status,
		doc.Config.UseExternalExtractor,
		doc.Config.UseLLMExtraction,
		sections,
		els,
		doc.ElementCount,
		rec,
		doc.Summary,
		doc.LastError,
	)
	return err
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE id = $1
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// List lists documents ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + documentColumns + `
FROM documents
ORDER BY uploaded_at DESC, id
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// All returns every document newest-first, used to rebuild the search index.
func (r *PGRepo) All(ctx context.Context) ([]Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
ORDER BY uploaded_at DESC, id`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// Update replaces the mutable columns of a document.
func (r *PGRepo) Update(ctx context.Context, doc Document) error {
	const query = `
UPDATE documents
SET status = $1,
    use_external_extractor = $2,
    use_llm_extraction = $3,
    selected_sections = $4,
    elements = $5,
    element_count = $6,
    record = $7,
    summary = $8,
    last_error = $9
WHERE id = $10`

	sections, els, rec, err := marshalDocumentJSON(doc)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(
		ctx,
		query,
		doc.Status,
		doc.Config.UseExternalExtractor,
		doc.Config.UseLLMExtraction,
		sections,
		els,
		doc.ElementCount,
		rec,
		doc.Summary,
		doc.LastError,
		doc.ID,
	)
	if err != nil {
		return err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document row.
func (r *PGRepo) Delete(ctx context.Context, documentID string) error {
	const query = `DELETE FROM documents WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, documentID)
	if err != nil {
		return err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalDocumentJSON(doc Document) (sections, els, rec []byte, err error) {
	if len(doc.Config.SelectedSections) > 0 {
		sections, err = json.Marshal(doc.Config.SelectedSections)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal selected_sections: %w", err)
		}
	}
	if len(doc.Elements) > 0 {
		els, err = json.Marshal(doc.Elements)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal elements: %w", err)
		}
	}
	if doc.Record != nil {
		rec, err = json.Marshal(doc.Record)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal record: %w", err)
		}
	}
	return sections, els, rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var sections, els, rec []byte
	if err := row.Scan(
		&doc.ID,
		&doc.FileName,
		&doc.StorageKey,
		&doc.UploadedAt,
		&doc.Status,
		&doc.Config.UseExternalExtractor,
		&doc.Config.UseLLMExtraction,
		&sections,
		&els,
		&doc.ElementCount,
		&rec,
		&doc.Summary,
		&doc.LastError,
	); err != nil {
		return Document{}, err
	}

	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &doc.Config.SelectedSections); err != nil {
			return Document{}, fmt.Errorf("unmarshal selected_sections: %w", err)
		}
	}
	if len(els) > 0 {
		var parsed []elements.Element
		if err := json.Unmarshal(els, &parsed); err != nil {
			return Document{}, fmt.Errorf("unmarshal elements: %w", err)
		}
		doc.Elements = parsed
	}
	if len(rec) > 0 {
		var parsed record.StructuredRecord
		if err := json.Unmarshal(rec, &parsed); err != nil {
			return Document{}, fmt.Errorf("unmarshal record: %w", err)
		}
		doc.Record = &parsed
	}
	return doc, nil
}

func collectDocuments(rows *sql.Rows) ([]Document, error) {
	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

var _ DocumentsRepo = (*PGRepo)(nil)
