package snapstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	frozen "github.com/goliatone/go-frozen"
)

var ErrNotFound = errors.New("snapstore: snapshot not found")

var ErrETagMismatch = errors.New("snapstore: etag mismatch")

// Ref identifies one persisted snapshot: the model identity and the frozen
// record's key, usually its primary key rendered as a string.
type Ref struct {
	Model string
	Key   string
}

// Identifier returns the canonical storage key, "model/key".
func (r Ref) Identifier() (string, error) {
	if r.Model == "" {
		return "", fmt.Errorf("snapstore: ref model is required")
	}
	if r.Key == "" {
		return "", fmt.Errorf("snapstore: ref key is required")
	}
	return fmt.Sprintf("%s/%s", r.Model, r.Key), nil
}

// Meta is storage-owned metadata used for trace/audit and concurrency
// control. Stores assign SnapshotID and ETag on every save; callers pass the
// last seen ETag back to make a save conditional.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves one snapshot payload per Ref.
type Store interface {
	Load(ctx context.Context, ref Ref) (payload frozen.Payload, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, payload frozen.Payload, meta Meta) (Meta, error)
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}

// checkETag enforces optimistic concurrency: a save carrying an ETag must
// match the stored one. Saves without an ETag are unconditional.
func checkETag(submitted, stored string) error {
	if submitted == "" || stored == "" {
		return nil
	}
	if submitted != stored {
		return fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, submitted, stored)
	}
	return nil
}
