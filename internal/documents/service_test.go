package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"ehr-backend/internal/elements"
	"ehr-backend/internal/extract"
	"ehr-backend/internal/record"
	"ehr-backend/internal/search"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Save(ctx context.Context, documentID, fileName string, r io.Reader) (string, int64, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	key := documentID + "/" + fileName
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return key, int64(len(data)), "application/pdf", nil
}

func (m *memStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	m.mu.Lock()
	data, ok := m.objects[storageKey]
	m.mu.Unlock()
	if !ok {
		return nil, errors.New("object missing")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Delete(ctx context.Context, storageKey string) error {
	m.mu.Lock()
	delete(m.objects, storageKey)
	m.mu.Unlock()
	return nil
}

type stubElements struct {
	els []elements.Element
	err error
}

func (s stubElements) ExtractElements(ctx context.Context, data []byte, fileName string) ([]elements.Element, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.els, nil
}

type stubSections struct {
	rec record.StructuredRecord
	err error
}

func (s stubSections) ExtractSections(ctx context.Context, els []elements.Element, scope []record.SectionName) (record.StructuredRecord, error) {
	if s.err != nil {
		return record.StructuredRecord{}, s.err
	}
	return s.rec, nil
}

// gateSections blocks extraction until released, for in-progress assertions.
type gateSections struct {
	release chan struct{}
	rec     record.StructuredRecord
}

func (g *gateSections) ExtractSections(ctx context.Context, els []elements.Element, scope []record.SectionName) (record.StructuredRecord, error) {
	<-g.release
	return g.rec, nil
}

func newTestService() *Service {
	return &Service{
		Repo:  NewMemoryRepo(),
		Store: newMemStore(),
		Index: search.NewIndex(),
		Local: stubElements{els: []elements.Element{
			{Type: elements.TypeTitle, Text: "DISCHARGE SUMMARY", Page: 1},
			{Type: elements.TypeNarrativeText, Text: "Patient recovering well.", Page: 1},
		}},
		Rules: stubSections{rec: record.StructuredRecord{
			PatientInfo: record.PatientInfo{Name: record.Str("Ms. J")},
			Diagnoses:   []string{"Acute Bronchitis"},
		}},
	}
}

func waitForSettled(t *testing.T, svc *Service, documentID string) Document {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		doc, err := svc.Get(context.Background(), documentID)
		if err != nil {
			t.Fatalf("get document: %v", err)
		}
		if doc.Status != StatusProcessing && !svc.locks.Held(documentID) {
			return doc
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("document %s never settled", documentID)
	return Document{}
}

func TestUploadRunsExtractionToCompletion(t *testing.T) {
	svc := newTestService()

	doc, err := svc.Upload(context.Background(), "note_a.pdf", Config{}, strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.Status != StatusProcessing {
		t.Fatalf("fresh upload status = %q, want processing", doc.Status)
	}

	settled := waitForSettled(t, svc, doc.ID)
	if settled.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed (last error: %s)", settled.Status, settled.LastError)
	}
	if settled.Record == nil || len(settled.Record.Diagnoses) != 1 {
		t.Fatalf("record not populated: %+v", settled.Record)
	}
	if settled.ElementCount != 2 {
		t.Fatalf("element count = %d, want 2", settled.ElementCount)
	}
	if !strings.Contains(settled.Summary, "Acute Bronchitis") {
		t.Fatalf("summary not rendered:\n%s", settled.Summary)
	}

	matches := svc.Index.Search("bronchitis")
	if len(matches) != 1 || matches[0].DocumentID != doc.ID {
		t.Fatalf("document not indexed: %v", matches)
	}
}

func TestUploadRejectsUnknownSections(t *testing.T) {
	svc := newTestService()

	_, err := svc.Upload(context.Background(), "note_a.pdf", Config{
		SelectedSections: []string{"diagnoses", "lab_results"},
	}, strings.NewReader("%PDF-1.4"))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestFirstRunFailureLeavesNoRecord(t *testing.T) {
	svc := newTestService()
	svc.Local = stubElements{err: elements.ErrExtractionUnavailable}

	doc, err := svc.Upload(context.Background(), "note_a.pdf", Config{}, strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	settled := waitForSettled(t, svc, doc.ID)
	if settled.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", settled.Status)
	}
	if settled.Record != nil {
		t.Fatalf("failed first run must not leave a record: %+v", settled.Record)
	}
	if settled.LastError == "" {
		t.Fatal("last error not recorded")
	}
	if svc.locks.Held(doc.ID) {
		t.Fatal("lock still held after failure")
	}
	if len(svc.Index.Search("bronchitis")) != 0 {
		t.Fatal("failed document must not be indexed")
	}
}

func TestReextractMergesOnlySelectedSections(t *testing.T) {
	svc := newTestService()

	doc, err := svc.Upload(context.Background(), "note_a.pdf", Config{}, strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	waitForSettled(t, svc, doc.ID)

	// The second pass finds a different diagnosis and nothing else.
	svc.Rules = stubSections{rec: record.StructuredRecord{
		Diagnoses: []string{"Pneumonia"},
	}}

	if _, err := svc.Reextract(context.Background(), doc.ID, []string{"diagnoses"}); err != nil {
		t.Fatalf("reextract: %v", err)
	}

	settled := waitForSettled(t, svc, doc.ID)
	if settled.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", settled.Status)
	}
	if got := settled.Record.Diagnoses; len(got) != 1 || got[0] != "Pneumonia" {
		t.Fatalf("diagnoses = %v, want [Pneumonia]", got)
	}
	if settled.Record.PatientInfo.Name == nil || *settled.Record.PatientInfo.Name != "Ms. J" {
		t.Fatalf("out-of-scope patient info was touched: %+v", settled.Record.PatientInfo)
	}

	if len(svc.Index.Search("bronchitis")) != 0 {
		t.Fatal("stale diagnosis still indexed")
	}
	if len(svc.Index.Search("pneumonia")) != 1 {
		t.Fatal("new diagnosis not indexed")
	}
}

func TestReextractFailureKeepsLastGoodRecord(t *testing.T) {
	svc := newTestService()

	doc, err := svc.Upload(context.Background(), "note_a.pdf", Config{}, strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	good := waitForSettled(t, svc, doc.ID)

	svc.Rules = stubSections{err: extract.ErrLLMUnavailable}

	if _, err := svc.Reextract(context.Background(), doc.ID, []string{"diagnoses"}); err != nil {
		t.Fatalf("reextract: %v", err)
	}

	settled := waitForSettled(t, svc, doc.ID)
	if settled.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed after failed re-extraction", settled.Status)
	}
	if settled.Record == nil || len(settled.Record.Diagnoses) != 1 || settled.Record.Diagnoses[0] != "Acute Bronchitis" {
		t.Fatalf("last-good record lost: %+v", settled.Record)
	}
	if settled.Summary != good.Summary {
		t.Fatal("last-good summary lost")
	}
	if settled.LastError == "" {
		t.Fatal("failure reason not recorded")
	}
	if len(svc.Index.Search("bronchitis")) != 1 {
		t.Fatal("index entry should still match last-good record")
	}
}

func TestReextractRejectsEmptyAndUnknownScope(t *testing.T) {
	svc := newTestService()

	doc, err := svc.Upload(context.Background(), "note_a.pdf", Config{}, strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	waitForSettled(t, svc, doc.ID)

	if _, err := svc.Reextract(context.Background(), doc.ID, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("empty scope err = %v, want ErrInvalidConfig", err)
	}
	if _, err := svc.Reextract(context.Background(), doc.ID, []string{"lab_results"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("unknown scope err = %v, want ErrInvalidConfig", err)
	}
	if _, err := svc.Reextract(context.Background(), "missing", []string{"diagnoses"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id err = %v, want ErrNotFound", err)
	}
}

func TestConcurrentReextractRejected(t *testing.T) {
	svc := newTestService()

	doc, err := svc.Upload(context.Background(), "note_a.pdf", Config{}, strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	waitForSettled(t, svc, doc.ID)

	gate := &gateSections{release: make(chan struct{}), rec: record.StructuredRecord{
		Diagnoses: []string{"Pneumonia"},
	}}
	svc.Rules = gate

	if _, err := svc.Reextract(context.Background(), doc.ID, []string{"diagnoses"}); err != nil {
		t.Fatalf("first reextract: %v", err)
	}

	if _, err := svc.Reextract(context.Background(), doc.ID, []string{"diagnoses"}); !errors.Is(err, ErrExtractionInProgress) {
		t.Fatalf("second reextract err = %v, want ErrExtractionInProgress", err)
	}
	if err := svc.Delete(context.Background(), doc.ID); !errors.Is(err, ErrExtractionInProgress) {
		t.Fatalf("delete during extraction err = %v, want ErrExtractionInProgress", err)
	}

	close(gate.release)
	settled := waitForSettled(t, svc, doc.ID)
	if settled.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed after release", settled.Status)
	}
}

func TestDeleteRemovesDocumentEverywhere(t *testing.T) {
	svc := newTestService()

	doc, err := svc.Upload(context.Background(), "note_a.pdf", Config{}, strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	waitForSettled(t, svc, doc.ID)

	if err := svc.Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.Get(context.Background(), doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete err = %v, want ErrNotFound", err)
	}
	if len(svc.Index.Search("bronchitis")) != 0 {
		t.Fatal("deleted document still searchable")
	}
	store := svc.Store.(*memStore)
	store.mu.Lock()
	remaining := len(store.objects)
	store.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("stored object not removed, %d left", remaining)
	}
}

func TestSummaryUnavailableWhileProcessing(t *testing.T) {
	svc := newTestService()
	gate := &gateSections{release: make(chan struct{}), rec: record.StructuredRecord{}}
	svc.Rules = gate

	doc, err := svc.Upload(context.Background(), "note_a.pdf", Config{}, strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if _, err := svc.Summary(context.Background(), doc.ID); !errors.Is(err, ErrNoSummary) {
		t.Fatalf("summary err = %v, want ErrNoSummary", err)
	}

	close(gate.release)
	waitForSettled(t, svc, doc.ID)

	text, err := svc.Summary(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("summary after completion: %v", err)
	}
	if !strings.Contains(text, "DISCHARGE SUMMARY") {
		t.Fatalf("summary text malformed:\n%s", text)
	}
}

func TestRebuildIndexFromRepo(t *testing.T) {
	svc := newTestService()

	doc, err := svc.Upload(context.Background(), "note_a.pdf", Config{}, strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	waitForSettled(t, svc, doc.ID)

	// A fresh index simulates process restart.
	svc.Index = search.NewIndex()
	if err := svc.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("rebuild index: %v", err)
	}
	if len(svc.Index.Search("bronchitis")) != 1 {
		t.Fatal("completed document missing from rebuilt index")
	}
}
