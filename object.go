package frozen

import (
	"context"
	"fmt"
	"reflect"
)

// Object is a frozen, read-only instance reconstructed from a snapshot. It
// exposes the captured attributes for read access and rejects every
// mutation or persistence attempt. Object satisfies Record, so an already
// frozen instance can be frozen again.
type Object struct {
	shape *Shape
	meta  Meta
	slots []any
}

// Meta returns the embedded snapshot manifest.
func (o *Object) Meta() Meta {
	return o.meta
}

// Shape returns the cached dynamic shape backing this instance.
func (o *Object) Shape() *Shape {
	return o.shape
}

// Get reads one attribute by name.
func (o *Object) Get(name string) (any, bool) {
	if o == nil || o.shape == nil {
		return nil, false
	}
	i, ok := o.shape.index[name]
	if !ok {
		return nil, false
	}
	return o.slots[i], true
}

// Attr reads one attribute, returning nil when absent.
func (o *Object) Attr(name string) any {
	value, _ := o.Get(name)
	return value
}

// Set always fails: frozen instances are immutable.
func (o *Object) Set(name string, _ any) error {
	return fmt.Errorf("%w: %q", ErrFrozenAttribute, name)
}

// Save always fails: frozen instances cannot be persisted.
func (o *Object) Save(context.Context) error {
	return ErrFrozenObject
}

// Data exports the instance as a plain mapping of attribute name to value,
// excluding the manifest. Nested frozen objects export recursively.
func (o *Object) Data() map[string]any {
	if o == nil {
		return nil
	}
	out := make(map[string]any, len(o.slots))
	for i, attr := range o.shape.attrs {
		if nested, ok := o.slots[i].(*Object); ok {
			out[attr] = nested.Data()
			continue
		}
		out[attr] = o.slots[i]
	}
	return out
}

// Payload reconstructs the snapshot payload this instance was thawed from,
// re-encoding attribute values to their JSON-safe form.
func (o *Object) Payload() (Payload, error) {
	if o == nil {
		return Payload{}, decodeErrorf(nil, "object is nil")
	}
	values := make(map[string]any, len(o.slots))
	for i, attr := range o.shape.attrs {
		if nested, ok := o.slots[i].(*Object); ok {
			nestedPayload, err := nested.Payload()
			if err != nil {
				return Payload{}, err
			}
			values[attr] = nestedPayload
			continue
		}
		encoded, err := encodeValue(o.slots[i])
		if err != nil {
			return Payload{}, fmt.Errorf("frozen: encode %s.%s: %w", o.meta.Model, attr, err)
		}
		values[attr] = encoded
	}
	return Payload{Meta: o.meta, Values: values}, nil
}

// Equal reports value-based equality: two instances are equal when their
// manifests and attribute values match.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	return reflect.DeepEqual(o.meta, other.meta) &&
		reflect.DeepEqual(o.Data(), other.Data())
}

func (o *Object) String() string {
	if o == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(pk=%v)", o.shape.name, o.meta.PK)
}

// Schema reconstructs a Schema from the embedded manifest, making the
// frozen instance usable wherever a Record is expected.
func (o *Object) Schema() *Schema {
	fields := make([]Field, 0, len(o.meta.Fields))
	for _, d := range o.meta.Fields {
		field := Field{Name: d.Name, TypeID: d.TypeID}
		if o.meta.isRelated(d.Name) {
			if nested, ok := o.Attr(d.Name).(*Object); ok && nested != nil {
				field.Related = nested.Schema()
			} else {
				field.Related = &Schema{}
			}
		}
		fields = append(fields, field)
	}
	return &Schema{
		Identity:   o.meta.Model,
		Fields:     fields,
		Properties: append([]string(nil), o.meta.Properties...),
	}
}

// Value implements Record by reading the captured field.
func (o *Object) Value(field string) (any, error) {
	value, _ := o.Get(field)
	return value, nil
}

// Related implements Record by returning the nested frozen instance.
func (o *Object) Related(field string) (Record, error) {
	value, ok := o.Get(field)
	if !ok || value == nil {
		return nil, nil
	}
	nested, ok := value.(*Object)
	if !ok {
		return nil, fmt.Errorf("frozen: field %q of %s is not a frozen object", field, o.meta.Model)
	}
	return nested, nil
}

// Property implements Record by reading the captured property value.
func (o *Object) Property(name string) (any, error) {
	value, ok := o.Get(name)
	if !ok {
		return nil, fmt.Errorf("frozen: %s has no property %q", o.meta.Model, name)
	}
	return value, nil
}
