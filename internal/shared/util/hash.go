package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashStorageKey returns a filesystem-safe namespace for a document ID.
// Stored objects live under the hash rather than the raw ID so storage
// paths never carry identifiers from the clinical record.
func HashStorageKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
