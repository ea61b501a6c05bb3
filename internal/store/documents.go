package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/daniela/lesson-forge/internal/types"
)

// DocumentInfo is the listing row for one persisted document.
type DocumentInfo struct {
	ItemID      string
	SubItemID   string
	Kind        types.ItemKind
	Fingerprint string
	UpdatedAt   time.Time
}

// SubItems returns the persisted sub-item IDs and kinds for one item. The
// existence probe reads this fresh on every run.
func (s *Store) SubItems(ctx context.Context, itemID string) (map[string]types.ItemKind, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT sub_item_id, kind FROM documents WHERE item_id = $1`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sub-items for %s: %w", itemID, err)
	}
	defer rows.Close()

	out := make(map[string]types.ItemKind)
	for rows.Next() {
		var subID, kind string
		if err := rows.Scan(&subID, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan sub-item row: %w", err)
		}
		out[subID] = types.ItemKind(kind)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sub-item rows: %w", err)
	}
	return out, nil
}

// escapeLikePrefix neutralizes LIKE wildcards so an item ID prefix matches
// literally. Item IDs are free text from the targets file.
func escapeLikePrefix(prefix string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
}

// List returns documents whose item ID starts with the given prefix, ordered
// by item and sub-item. An empty prefix lists everything.
func (s *Store) List(ctx context.Context, itemIDPrefix string) ([]DocumentInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT item_id, sub_item_id, kind, fingerprint, updated_at
		 FROM documents
		 WHERE item_id LIKE $1 || '%'
		 ORDER BY item_id, sub_item_id`,
		escapeLikePrefix(itemIDPrefix),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentInfo
	for rows.Next() {
		var info DocumentInfo
		var kind string
		if err := rows.Scan(&info.ItemID, &info.SubItemID, &kind, &info.Fingerprint, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		info.Kind = types.ItemKind(kind)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document rows: %w", err)
	}
	return out, nil
}

// GetContent returns the content of one document, transparently reading and
// decompressing the blob when the payload was stored out of line.
func (s *Store) GetContent(ctx context.Context, itemID, subItemID string) ([]byte, error) {
	docID := DocumentID(itemID, subItemID)

	var inline []byte
	var blobGz []byte
	err := s.pool.QueryRow(ctx,
		`SELECT d.content, b.content_gz
		 FROM documents d LEFT JOIN blobs b ON d.blob_id = b.id
		 WHERE d.id = $1`,
		docID,
	).Scan(&inline, &blobGz)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document %s/%s: %w", itemID, subItemID, err)
	}

	if blobGz == nil {
		return inline, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(blobGz))
	if err != nil {
		return nil, fmt.Errorf("failed to open blob for %s/%s: %w", itemID, subItemID, err)
	}
	defer func() { _ = zr.Close() }()

	content, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress blob for %s/%s: %w", itemID, subItemID, err)
	}
	return content, nil
}

// DeleteItem removes all documents for an item and any blobs they
// referenced. Used by --force before regeneration and by the delete command.
func (s *Store) DeleteItem(ctx context.Context, itemID string) (int64, error) {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM blobs WHERE id IN (
			SELECT blob_id FROM documents WHERE item_id = $1 AND blob_id IS NOT NULL
		)`,
		itemID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete blobs for %s: %w", itemID, err)
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE item_id = $1`, itemID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents for %s: %w", itemID, err)
	}
	return tag.RowsAffected(), nil
}
