package snapstore

import (
	"context"
	"errors"
	"testing"

	frozen "github.com/goliatone/go-frozen"
)

func TestArchiverArchiveAndRestore(t *testing.T) {
	store := NewMemoryStore()
	archiver := Archiver{Store: store}
	ctx := context.Background()

	schema := &frozen.Schema{
		Identity: "core.Profile",
		Fields: []frozen.Field{
			{Name: "id", TypeID: frozen.TypeInt, Primary: true},
			{Name: "email", TypeID: frozen.TypeString},
		},
	}
	record := frozen.NewMapRecord(schema, map[string]any{
		"id":    int64(7),
		"email": "ada@example.com",
	})

	payload, saved, err := archiver.Archive(ctx, record, frozen.Selection{}, Meta{})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if payload.Meta.Model != "core.Profile" {
		t.Fatalf("unexpected model %q", payload.Meta.Model)
	}
	if saved.SnapshotID == "" {
		t.Fatalf("expected snapshot id, got %+v", saved)
	}

	obj, meta, err := archiver.Restore(ctx, Ref{Model: "core.Profile", Key: "7"})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if meta.SnapshotID != saved.SnapshotID {
		t.Fatalf("meta mismatch: %+v vs %+v", meta, saved)
	}
	email, ok := obj.Get("email")
	if !ok || email != "ada@example.com" {
		t.Fatalf("unexpected email %v", email)
	}
	if err := obj.Set("email", "new@example.com"); !errors.Is(err, frozen.ErrFrozenAttribute) {
		t.Fatalf("expected ErrFrozenAttribute, got %v", err)
	}
}

func TestArchiverRestoreMissing(t *testing.T) {
	archiver := Archiver{Store: NewMemoryStore()}
	_, _, err := archiver.Restore(context.Background(), Ref{Model: "core.Profile", Key: "404"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
