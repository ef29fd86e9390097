package elements

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRemoteExtractorParsesElements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"type":"Title","text":"ACTIVE MEDICAL ISSUES","metadata":{"page_number":1}},
			{"type":"ListItem","text":"1. Hypertension","metadata":{"page_number":1}},
			{"type":"NarrativeText","text":"  ","metadata":{"page_number":1}},
			{"type":"NarrativeText","text":"Patient is stable.","metadata":{"page_number":2}}
		]`))
	}))
	defer srv.Close()

	ext, err := NewRemoteExtractor(srv.URL, "test-key", 5*time.Second)
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}

	els, err := ext.ExtractElements(context.Background(), []byte("%PDF-fake"), "note.pdf")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(els) != 3 {
		t.Fatalf("got %d elements, want 3 (blank dropped): %+v", len(els), els)
	}
	if els[0].Type != TypeTitle || els[0].Text != "ACTIVE MEDICAL ISSUES" {
		t.Fatalf("first element = %+v", els[0])
	}
	if els[1].Type != TypeListItem {
		t.Fatalf("second element type = %s", els[1].Type)
	}
	if els[2].Page != 2 {
		t.Fatalf("third element page = %d", els[2].Page)
	}
}

func TestRemoteExtractorMapsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	ext, err := NewRemoteExtractor(srv.URL, "", 5*time.Second)
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}

	_, err = ext.ExtractElements(context.Background(), []byte("data"), "note.pdf")
	if !errors.Is(err, ErrExtractionUnavailable) {
		t.Fatalf("err = %v, want ErrExtractionUnavailable", err)
	}
}

func TestClassifyLine(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"ACTIVE MEDICAL ISSUES:", TypeTitle},
		{"ALLERGIES", TypeTitle},
		{"1. Diltiazem 120 mg p.o. daily", TypeListItem},
		{"- amoxicillin rash", TypeListItem},
		{"Ms. J is a 76-year-old woman.", TypeNarrativeText},
	}
	for _, tc := range cases {
		if got := classifyLine(tc.line); got != tc.want {
			t.Errorf("classifyLine(%q) = %s, want %s", tc.line, got, tc.want)
		}
	}
}
