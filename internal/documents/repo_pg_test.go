package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"ehr-backend/internal/record"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateInsertsJSONColumns(t *testing.T) {
	repo, mock := newMockRepo(t)

	doc := Document{
		ID:         "doc-1",
		FileName:   "note_a.pdf",
		StorageKey: "ab12/cd34_note_a.pdf",
		UploadedAt: time.Now().UTC(),
		Status:     StatusProcessing,
		Config: Config{
			UseExternalExtractor: true,
			SelectedSections:     []string{"diagnoses"},
		},
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			doc.ID,
			doc.FileName,
			doc.StorageKey,
			doc.UploadedAt,
			doc.Status,
			true,
			false,
			[]byte(`["diagnoses"]`),
			nil, // elements
			0,
			nil, // record
			"",
			"",
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDDecodesRecord(t *testing.T) {
	repo, mock := newMockRepo(t)

	uploaded := time.Now().UTC()
	columns := []string{
		"id", "filename", "storage_key", "uploaded_at", "status",
		"use_external_extractor", "use_llm_extraction", "selected_sections",
		"elements", "element_count", "record", "summary", "last_error",
	}
	rows := sqlmock.NewRows(columns).AddRow(
		"doc-1", "note_a.pdf", "ab12/cd34_note_a.pdf", uploaded, StatusCompleted,
		false, true, []byte(`["diagnoses","medications"]`),
		[]byte(`[{"type":"title","text":"DISCHARGE SUMMARY","page":1}]`), 1,
		[]byte(`{"diagnoses":["Pneumonia"]}`), "DISCHARGE SUMMARY", "",
	)

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("doc-1").
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.Status != StatusCompleted || !doc.Config.UseLLMExtraction {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if len(doc.Config.SelectedSections) != 2 {
		t.Fatalf("selected sections = %v", doc.Config.SelectedSections)
	}
	if len(doc.Elements) != 1 || doc.Elements[0].Text != "DISCHARGE SUMMARY" {
		t.Fatalf("elements = %+v", doc.Elements)
	}
	if doc.Record == nil || len(doc.Record.Diagnoses) != 1 || doc.Record.Diagnoses[0] != "Pneumonia" {
		t.Fatalf("record = %+v", doc.Record)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoUpdateMissingRowIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	rec := record.StructuredRecord{Diagnoses: []string{"Pneumonia"}}
	doc := Document{
		ID:     "missing",
		Status: StatusCompleted,
		Record: &rec,
	}

	mock.ExpectExec("UPDATE documents").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Update(context.Background(), doc); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoDelete(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
