package snapstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	frozen "github.com/goliatone/go-frozen"
	"github.com/google/uuid"
)

// Schema for the snapshots table. Call SQLiteStore.Init or apply manually.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	ref TEXT PRIMARY KEY,
	model TEXT NOT NULL,
	snapshot_id TEXT NOT NULL,
	etag TEXT NOT NULL,
	payload TEXT NOT NULL,
	extra TEXT,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_model ON snapshots(model);
`

// SQLiteStore persists snapshot payloads to a SQLite table, one row per Ref.
// The payload column holds the wire JSON, so rows stay readable with plain
// SQL tooling.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store backed by the given database connection.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Init creates the snapshots table if it doesn't exist.
func (s *SQLiteStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context, ref Ref) (frozen.Payload, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return frozen.Payload{}, Meta{}, false, err
	}

	var (
		snapshotID string
		etag       string
		rawPayload []byte
		rawExtra   sql.NullString
		updatedAt  int64
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT snapshot_id, etag, payload, extra, updated_at FROM snapshots WHERE ref = ?`, key)
	if err := row.Scan(&snapshotID, &etag, &rawPayload, &rawExtra, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return frozen.Payload{}, Meta{}, false, nil
		}
		return frozen.Payload{}, Meta{}, false, fmt.Errorf("snapstore: load %q: %w", key, err)
	}

	var payload frozen.Payload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return frozen.Payload{}, Meta{}, false, fmt.Errorf("snapstore: decode payload %q: %w", key, err)
	}

	meta := Meta{
		SnapshotID: snapshotID,
		ETag:       etag,
		UpdatedAt:  time.UnixMilli(updatedAt).UTC(),
	}
	if rawExtra.Valid && rawExtra.String != "" {
		if err := json.Unmarshal([]byte(rawExtra.String), &meta.Extra); err != nil {
			return frozen.Payload{}, Meta{}, false, fmt.Errorf("snapstore: decode extra %q: %w", key, err)
		}
	}
	return payload, meta, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, ref Ref, payload frozen.Payload, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Meta{}, fmt.Errorf("snapstore: begin tx: %w", err)
	}
	defer tx.Rollback()

	var storedETag string
	err = tx.QueryRowContext(ctx, `SELECT etag FROM snapshots WHERE ref = ?`, key).Scan(&storedETag)
	if err != nil && err != sql.ErrNoRows {
		return Meta{}, fmt.Errorf("snapstore: read etag %q: %w", key, err)
	}
	if err := checkETag(meta.ETag, storedETag); err != nil {
		return Meta{}, err
	}

	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return Meta{}, fmt.Errorf("snapstore: encode payload %q: %w", key, err)
	}
	var rawExtra []byte
	if len(meta.Extra) > 0 {
		rawExtra, err = json.Marshal(meta.Extra)
		if err != nil {
			return Meta{}, fmt.Errorf("snapstore: encode extra %q: %w", key, err)
		}
	}

	saved := cloneMeta(meta)
	saved.SnapshotID = uuid.NewString()
	saved.ETag = uuid.NewString()
	saved.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (ref, model, snapshot_id, etag, payload, extra, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
			snapshot_id = excluded.snapshot_id,
			etag = excluded.etag,
			payload = excluded.payload,
			extra = excluded.extra,
			updated_at = excluded.updated_at`,
		key, ref.Model, saved.SnapshotID, saved.ETag, string(rawPayload), nullableString(rawExtra), saved.UpdatedAt.UnixMilli())
	if err != nil {
		return Meta{}, fmt.Errorf("snapstore: save %q: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return Meta{}, fmt.Errorf("snapstore: commit %q: %w", key, err)
	}
	return saved, nil
}

func nullableString(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
