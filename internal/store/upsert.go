package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/daniela/lesson-forge/internal/types"
)

// UpsertResult says what the write did.
type UpsertResult string

// Upsert outcomes. Unchanged means the fingerprint matched an existing
// record and nothing was written.
const (
	Created   UpsertResult = "created"
	Updated   UpsertResult = "updated"
	Unchanged UpsertResult = "unchanged"
)

// BlobThreshold is the payload size above which content moves to the gzip
// blob table and the document row carries only a reference. Inline JSONB
// stays cheap to query; rendered SVGs routinely exceed this.
const BlobThreshold = 64 * 1024

// Upsert writes generated content for (itemID, subItemID), keyed by the
// deterministic document ID. The content fingerprint is the idempotency
// check: an identical fingerprint is a no-op. The read-then-write pair is
// race-free because each item ID belongs to exactly one running loop.
func (s *Store) Upsert(ctx context.Context, itemID, subItemID string, kind types.ItemKind, content []byte) (UpsertResult, error) {
	docID := DocumentID(itemID, subItemID)
	fingerprint := Fingerprint(content)

	var existing string
	err := s.pool.QueryRow(ctx,
		`SELECT fingerprint FROM documents WHERE id = $1`, docID,
	).Scan(&existing)
	exists := true
	if err != nil {
		if err != pgx.ErrNoRows {
			return "", fmt.Errorf("failed to read document %s: %w", docID, err)
		}
		exists = false
	}

	if exists && existing == fingerprint {
		return Unchanged, nil
	}

	var inline []byte
	var blobID *uuid.UUID
	if needsBlob(content) {
		id, err := s.writeBlob(ctx, docID, fingerprint, content)
		if err != nil {
			return "", err
		}
		blobID = &id
	} else {
		inline = content
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (id, item_id, sub_item_id, kind, fingerprint, content, blob_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE
		 SET fingerprint = $5, content = $6, blob_id = $7, updated_at = NOW()`,
		docID, itemID, subItemID, string(kind), fingerprint, inline, blobID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert document %s/%s: %w", itemID, subItemID, err)
	}

	if exists {
		return Updated, nil
	}
	return Created, nil
}

// needsBlob decides where a payload lives. The inline column is JSONB, so
// only valid JSON may live there; oversized payloads and non-JSON content
// (rendered SVG) go to the blob table whatever their size.
func needsBlob(content []byte) bool {
	return len(content) > BlobThreshold || !json.Valid(content)
}

// writeBlob gzips oversized content into the blob table. The blob ID is
// derived from the document ID and fingerprint so re-writing identical
// content addresses the same row.
func (s *Store) writeBlob(ctx context.Context, docID uuid.UUID, fingerprint string, content []byte) (uuid.UUID, error) {
	blobID := uuid.NewSHA1(docNamespace, []byte(docID.String()+"\x00"+fingerprint))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(content); err != nil {
		return uuid.Nil, fmt.Errorf("failed to compress blob: %w", err)
	}
	if err := zw.Close(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to finalize blob compression: %w", err)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO blobs (id, content_gz, size_bytes)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		blobID, buf.Bytes(), len(content),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to write blob %s: %w", blobID, err)
	}
	return blobID, nil
}
