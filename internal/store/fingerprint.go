// Package store provides PostgreSQL persistence for generated documents:
// deterministic document identity, content-addressed idempotent upserts, and
// a gzip blob table for oversized payloads.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

// docNamespace seeds deterministic document IDs. Fixed forever: changing it
// would orphan every existing record.
var docNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// DocumentID derives the stable record ID for (itemID, subItemID). Repeated
// runs for the same target always address the same row, never a duplicate.
func DocumentID(itemID, subItemID string) uuid.UUID {
	return uuid.NewSHA1(docNamespace, []byte(itemID+"\x00"+subItemID))
}

// Fingerprint hashes the semantically meaningful content of a payload. JSON
// payloads are canonicalized first (key order and insignificant whitespace
// do not change the fingerprint); non-JSON payloads hash as raw bytes.
func Fingerprint(content []byte) string {
	canonical := content
	var doc any
	if err := json.Unmarshal(content, &doc); err == nil {
		// json.Marshal writes object keys in sorted order, which is the
		// canonical form we hash.
		if remarshaled, err := json.Marshal(doc); err == nil {
			canonical = remarshaled
		}
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
