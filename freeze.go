package frozen

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/goliatone/go-frozen/pkg/audit"
)

// Freeze captures a point-in-time snapshot of record as a self-describing
// payload. The selection controls which fields, related records (one level
// deep), and computed properties are captured. Freezing an already-frozen
// *Object is supported and passes values through, refreshing only the
// FrozenAt timestamp.
func Freeze(record Record, sel Selection, opts ...Option) (Payload, error) {
	cfg := applyOptions(opts)

	payload, err := freezeRecord(record, sel, cfg)
	if err != nil {
		return Payload{}, err
	}

	if cfg.hooks.Enabled() {
		event := audit.Event{
			Verb:       audit.VerbFreeze,
			Model:      payload.Meta.Model,
			PK:         fmt.Sprint(payload.Meta.PK),
			Attrs:      payload.Meta.FrozenAttrs(),
			OccurredAt: payload.Meta.FrozenAt,
		}
		if err := cfg.hooks.Notify(context.Background(), event); err != nil {
			return Payload{}, fmt.Errorf("frozen: freeze hooks: %w", err)
		}
	}
	return payload, nil
}

func freezeRecord(record Record, sel Selection, cfg config) (Payload, error) {
	if isNilRecord(record) {
		return Payload{}, fmt.Errorf("frozen: record is nil")
	}

	// Re-freezing frozen data degrades gracefully: the stored manifest and
	// wire values are reused as-is.
	if obj, ok := record.(*Object); ok {
		payload, err := obj.Payload()
		if err != nil {
			return Payload{}, err
		}
		payload.Meta.FrozenAt = cfg.now()
		return payload, nil
	}

	schema := record.Schema()
	if schema == nil || schema.Identity == "" {
		return Payload{}, fmt.Errorf("frozen: record has no schema identity")
	}
	if err := sel.Validate(schema); err != nil {
		return Payload{}, err
	}

	var pk any
	if primary, ok := schema.Primary(); ok {
		raw, err := record.Value(primary.Name)
		if err != nil {
			return Payload{}, fmt.Errorf("frozen: read %s.%s: %w", schema.Identity, primary.Name, err)
		}
		if pk, err = encodeValue(raw); err != nil {
			return Payload{}, fmt.Errorf("frozen: encode %s.%s: %w", schema.Identity, primary.Name, err)
		}
	}

	meta := newMeta(schema, sel, pk, cfg.now())

	// Consulting the builder up front both warms the cache and rejects
	// reserved-name collisions before any value is read.
	if _, err := cfg.shapes.GetOrBuild(meta.Model, meta.StoreFields(), meta.Properties); err != nil {
		return Payload{}, err
	}

	values := make(map[string]any, len(meta.Fields)+len(meta.Properties))
	for _, descriptor := range meta.Fields {
		if descriptor.Treatment != TreatmentStore {
			continue
		}
		name := descriptor.Name
		field, _ := schema.Field(name)

		if field.Related != nil {
			related, err := record.Related(name)
			if err != nil {
				return Payload{}, fmt.Errorf("frozen: read %s.%s: %w", schema.Identity, name, err)
			}
			if isNilRecord(related) {
				values[name] = nil
				continue
			}
			nested, err := freezeRecord(related, sel.forRelated(name), cfg)
			if err != nil {
				return Payload{}, err
			}
			values[name] = nested
			continue
		}

		raw, err := record.Value(name)
		if err != nil {
			return Payload{}, fmt.Errorf("frozen: read %s.%s: %w", schema.Identity, name, err)
		}
		encoded, err := encodeValue(raw)
		if err != nil {
			return Payload{}, fmt.Errorf("frozen: encode %s.%s: %w", schema.Identity, name, err)
		}
		values[name] = encoded
	}

	for _, name := range meta.Properties {
		raw, err := record.Property(name)
		if err != nil {
			var evalErr *EvaluationError
			if errors.As(err, &evalErr) {
				return Payload{}, err
			}
			return Payload{}, fmt.Errorf("frozen: property %s.%s: %w", schema.Identity, name, err)
		}
		encoded, err := encodeValue(raw)
		if err != nil {
			return Payload{}, fmt.Errorf("frozen: encode %s.%s: %w", schema.Identity, name, err)
		}
		values[name] = encoded
	}

	return Payload{Meta: meta, Values: values}, nil
}

func isNilRecord(record Record) bool {
	if record == nil {
		return true
	}
	rv := reflect.ValueOf(record)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map:
		return rv.IsNil()
	default:
		return false
	}
}
