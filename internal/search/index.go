// Package search maintains a per-document text index over filenames,
// diagnoses and clinical notes, and resolves free-text queries into ranked
// matches with highlighted context snippets.
//
// The index is a derived view: entries are rebuilt wholesale from the
// owning document's record on every mutation and removed when the document
// goes away. Nothing in here survives that cannot be reconstructed from
// the document store.
package search

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"ehr-backend/internal/record"
)

// Match is a single document's aggregated search result.
type Match struct {
	DocumentID string `json:"documentId"`
	FileName   string `json:"filename"`
	Count      int    `json:"matchCount"`
	Snippet    string `json:"context"`
}

// field is one indexed text field of a document. Field order decides which
// occurrence supplies the snippet.
type field struct {
	name string
	text string
}

type entry struct {
	fileName string
	fields   []field
}

// Index is an in-memory search index, safe for concurrent use. Entries are
// replaced whole under the write lock, so readers see either the old entry
// in full or the new one, never a half-written mix.
type Index struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewIndex constructs an empty Index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]*entry)}
}

// Put replaces the entry for documentID with one built from the current
// filename and record.
func (ix *Index) Put(documentID, fileName string, rec record.StructuredRecord) {
	e := &entry{
		fileName: fileName,
		fields: []field{
			{name: "filename", text: fileName},
			{name: "diagnoses", text: strings.Join(rec.Diagnoses, "\n")},
			{name: "clinical_notes", text: strings.Join(rec.ClinicalNotes, "\n")},
		},
	}

	ix.mu.Lock()
	ix.entries[documentID] = e
	ix.mu.Unlock()
}

// Remove drops the entry for documentID. Removing an unknown id is a no-op.
func (ix *Index) Remove(documentID string) {
	ix.mu.Lock()
	delete(ix.entries, documentID)
	ix.mu.Unlock()
}

// Len reports the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Search resolves a free-text query. An empty or whitespace-only query
// returns no matches rather than the whole corpus. Matching is
// case-insensitive substring matching; each matching document yields one
// Match whose snippet comes from the first field and position that matched.
// Ordering is deterministic: match count descending, then filename
// ascending, then document id ascending.
func (ix *Index) Search(query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Match{}
	}

	ix.mu.RLock()
	matches := make([]Match, 0)
	for docID, e := range ix.entries {
		if m, ok := matchEntry(docID, e, q); ok {
			matches = append(matches, m)
		}
	}
	ix.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Count != matches[j].Count {
			return matches[i].Count > matches[j].Count
		}
		if matches[i].FileName != matches[j].FileName {
			return matches[i].FileName < matches[j].FileName
		}
		return matches[i].DocumentID < matches[j].DocumentID
	})
	return matches
}

func matchEntry(docID string, e *entry, loweredQuery string) (Match, bool) {
	total := 0
	snippet := ""
	for _, f := range e.fields {
		occurrences := findMatches(f.text, loweredQuery)
		if len(occurrences) == 0 {
			continue
		}
		if snippet == "" {
			first := occurrences[0]
			snippet = buildSnippet(f.text, first.pos, first.n)
		}
		total += len(occurrences)
	}
	if total == 0 {
		return Match{}, false
	}
	return Match{
		DocumentID: docID,
		FileName:   e.fileName,
		Count:      total,
		Snippet:    snippet,
	}, true
}

// termMatch is one occurrence of the query term, as a byte range into the
// original field text.
type termMatch struct {
	pos int
	n   int
}

// findMatches locates non-overlapping case-insensitive occurrences of the
// lowered query in text. Matching is rune-wise against the original text:
// lowercasing can change a rune's byte length (İ shrinks, Ⱥ grows), so
// offsets into a lowered copy would not be valid slice positions in text.
func findMatches(text, loweredQuery string) []termMatch {
	query := []rune(loweredQuery)
	if len(query) == 0 {
		return nil
	}

	runes := make([]rune, 0, len(text))
	starts := make([]int, 0, len(text)+1)
	for i, r := range text {
		runes = append(runes, r)
		starts = append(starts, i)
	}
	starts = append(starts, len(text))

	var out []termMatch
	for i := 0; i+len(query) <= len(runes); i++ {
		matched := true
		for j, q := range query {
			if unicode.ToLower(runes[i+j]) != q {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		out = append(out, termMatch{
			pos: starts[i],
			n:   starts[i+len(query)] - starts[i],
		})
		i += len(query) - 1
	}
	return out
}
