// Package snapstore defines persistence-facing contracts for loading and
// saving snapshot payloads, plus a small archiver that couples storage to
// the freeze and thaw engines.
//
// Responsibilities:
//   - Store only loads/saves a single payload for a single Ref.
//   - Meta carries storage-owned provenance (SnapshotID, ETag, UpdatedAt);
//     passing a previously loaded ETag back into Save makes the write
//     conditional, failing with ErrETagMismatch when the row moved on.
//   - The core frozen package remains persistence-agnostic; all persistence
//     logic stays behind Store implementations supplied by consumers.
//
// Deterministic keys:
//
//	Ref.Identifier() provides the canonical storage key, "model/key", where
//	key is the frozen record's primary key rendered as a string.
package snapstore
