package frozen

import (
	"errors"
	"testing"
)

func TestShapeCacheReusesIdenticalShapes(t *testing.T) {
	cache := NewShapeCache()

	first, err := cache.GetOrBuild("core.Profile", []string{"id", "email"}, []string{"display_name"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// Field order must not matter.
	second, err := cache.GetOrBuild("core.Profile", []string{"email", "id"}, []string{"display_name"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical shape handle for identical signature")
	}
	if cache.Len() != 1 {
		t.Fatalf("expected one cached shape, got %d", cache.Len())
	}

	third, err := cache.GetOrBuild("core.Profile", []string{"id"}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if third == first {
		t.Fatalf("different selections must build different shapes")
	}
	if cache.Len() != 2 {
		t.Fatalf("expected two cached shapes, got %d", cache.Len())
	}
}

func TestShapeNameAndAttrs(t *testing.T) {
	cache := NewShapeCache()
	shape, err := cache.GetOrBuild("core.Address", []string{"zip", "id"}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if shape.Name() != "FrozenAddress" {
		t.Fatalf("unexpected name %q", shape.Name())
	}
	attrs := shape.Attrs()
	if len(attrs) != 2 || attrs[0] != "id" || attrs[1] != "zip" {
		t.Fatalf("expected sorted attrs, got %v", attrs)
	}
	// Attrs returns a copy.
	attrs[0] = "mutated"
	if shape.Attrs()[0] != "id" {
		t.Fatalf("shape attrs must be immutable")
	}
}

func TestShapeRejectsReservedName(t *testing.T) {
	cache := NewShapeCache()
	_, err := cache.GetOrBuild("core.Profile", []string{"id", MetaKey}, nil)
	if !errors.Is(err, ErrReservedName) {
		t.Fatalf("expected ErrReservedName, got %v", err)
	}
}

func TestShapeRejectsDuplicateAttr(t *testing.T) {
	cache := NewShapeCache()
	if _, err := cache.GetOrBuild("core.Profile", []string{"id", "email"}, []string{"email"}); err == nil {
		t.Fatalf("expected duplicate attribute error")
	}
}

func TestFreezeRejectsReservedFieldName(t *testing.T) {
	schema := &Schema{
		Identity: "core.Bad",
		Fields: []Field{
			{Name: "id", TypeID: TypeInt, Primary: true},
			{Name: MetaKey, TypeID: TypeString},
		},
	}
	record := NewMapRecord(schema, map[string]any{"id": int64(1), MetaKey: "boom"})
	_, err := Freeze(record, Selection{}, freezeOpts()...)
	if !errors.Is(err, ErrReservedName) {
		t.Fatalf("expected ErrReservedName, got %v", err)
	}
}

func TestSharedShapeAcrossFreezeAndThaw(t *testing.T) {
	cache := NewShapeCache()
	opts := []Option{WithShapeCache(cache)}

	payload, err := Freeze(profileRecord(), Selection{Include: []string{"email"}}, opts...)
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	obj, err := ThawPayload(payload, opts...)
	if err != nil {
		t.Fatalf("thaw: %v", err)
	}

	want, err := cache.GetOrBuild("core.Profile", []string{"id", "email"}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if obj.Shape() != want {
		t.Fatalf("thawed object must share the cached shape handle")
	}
}
