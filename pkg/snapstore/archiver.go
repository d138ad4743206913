package snapstore

import (
	"context"
	"fmt"
	"log/slog"

	frozen "github.com/goliatone/go-frozen"
)

// Archiver couples the freeze engine to a Store: Archive freezes a live
// record and persists the payload under its model/key ref, Restore loads a
// payload and thaws it back into a read-only instance.
type Archiver struct {
	Store Store
	// Logger is optional. When set, archive and restore outcomes are logged.
	Logger *slog.Logger
	// Options are applied to every Freeze and Thaw call.
	Options []frozen.Option
}

// Archive freezes record per sel and saves the payload. The carried meta
// makes the save conditional when its ETag is set.
func (a Archiver) Archive(ctx context.Context, record frozen.Record, sel frozen.Selection, meta Meta) (frozen.Payload, Meta, error) {
	if a.Store == nil {
		return frozen.Payload{}, Meta{}, fmt.Errorf("snapstore: store is required")
	}

	payload, err := frozen.Freeze(record, sel, a.Options...)
	if err != nil {
		return frozen.Payload{}, Meta{}, err
	}

	ref := Ref{Model: payload.Meta.Model, Key: fmt.Sprint(payload.Meta.PK)}
	saved, err := a.Store.Save(ctx, ref, payload, meta)
	if err != nil {
		return frozen.Payload{}, Meta{}, err
	}

	if a.Logger != nil {
		a.Logger.Info("snapshot archived",
			"model", ref.Model, "key", ref.Key, "snapshot_id", saved.SnapshotID)
	}
	return payload, saved, nil
}

// Restore loads the payload stored under ref and thaws it. A missing
// snapshot returns ErrNotFound.
func (a Archiver) Restore(ctx context.Context, ref Ref) (*frozen.Object, Meta, error) {
	if a.Store == nil {
		return nil, Meta{}, fmt.Errorf("snapstore: store is required")
	}

	payload, meta, ok, err := a.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, err
	}
	if !ok {
		key, _ := ref.Identifier()
		return nil, Meta{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	obj, err := frozen.ThawPayload(payload, a.Options...)
	if err != nil {
		return nil, Meta{}, err
	}

	if a.Logger != nil {
		a.Logger.Info("snapshot restored",
			"model", ref.Model, "key", ref.Key, "snapshot_id", meta.SnapshotID)
	}
	return obj, meta, nil
}
