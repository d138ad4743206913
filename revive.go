package frozen

import (
	"fmt"

	"github.com/goliatone/go-frozen/internal/hydrate"
)

// Revive hydrates a frozen object's attributes into a caller-supplied struct
// type via its JSON tags. Nested frozen objects decode into nested structs.
// The result is an ordinary mutable value with no snapshot semantics.
func Revive[T any](obj *Object) (T, error) {
	var zero T
	if obj == nil {
		return zero, fmt.Errorf("frozen: revive: object is nil")
	}
	ctx := hydrate.Context{
		Model: obj.meta.Model,
		PK:    fmt.Sprint(obj.meta.PK),
	}
	decoder := hydrate.NewDecoder[T]()
	return decoder.Decode(ctx, obj.Data())
}

// ReviveStrict is Revive with unknown snapshot attributes rejected instead
// of silently dropped.
func ReviveStrict[T any](obj *Object) (T, error) {
	var zero T
	if obj == nil {
		return zero, fmt.Errorf("frozen: revive: object is nil")
	}
	ctx := hydrate.Context{
		Model: obj.meta.Model,
		PK:    fmt.Sprint(obj.meta.PK),
	}
	decoder := hydrate.NewDecoder[T](hydrate.WithDisallowUnknownFields[T]())
	return decoder.Decode(ctx, obj.Data())
}
