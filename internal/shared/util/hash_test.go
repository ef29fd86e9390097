package util

import "testing"

func TestHashStorageKey(t *testing.T) {
	id := "6e8bc430-9c3a-11d9-9669-0800200c9a66"
	got := HashStorageKey(id)
	if got != HashStorageKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}
