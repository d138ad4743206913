package frozen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-frozen/pkg/audit"
)

// Thaw reconstructs a frozen, read-only instance from the nested mapping
// form of a snapshot payload. Field values are restored to their semantic
// types using converter overrides first, then the defaults keyed by the
// manifest TypeID; values with an unknown TypeID pass through as their raw
// JSON type, a deliberate lenience that tolerates schema drift between
// freeze time and thaw time.
func Thaw(data map[string]any, opts ...Option) (*Object, error) {
	payload, err := payloadFromMap(data)
	if err != nil {
		return nil, err
	}
	return ThawPayload(payload, opts...)
}

// ThawJSON reconstructs a frozen instance from serialized payload bytes.
func ThawJSON(raw []byte, opts ...Option) (*Object, error) {
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			return nil, err
		}
		return nil, decodeErrorf(err, "invalid JSON")
	}
	return ThawPayload(payload, opts...)
}

// ThawPayload reconstructs a frozen instance from a typed payload.
func ThawPayload(payload Payload, opts ...Option) (*Object, error) {
	cfg := applyOptions(opts)

	obj, err := thawPayload(payload, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.hooks.Enabled() {
		event := audit.Event{
			Verb:  audit.VerbThaw,
			Model: obj.meta.Model,
			PK:    fmt.Sprint(obj.meta.PK),
			Attrs: obj.meta.FrozenAttrs(),
		}
		if err := cfg.hooks.Notify(context.Background(), event); err != nil {
			return nil, fmt.Errorf("frozen: thaw hooks: %w", err)
		}
	}
	return obj, nil
}

func thawPayload(payload Payload, cfg config) (*Object, error) {
	meta := payload.Meta

	shape, err := cfg.shapes.GetOrBuild(meta.Model, meta.StoreFields(), meta.Properties)
	if err != nil {
		return nil, err
	}

	converted := make(map[string]any, len(payload.Values))
	for name, value := range payload.Values {
		if _, ok := shape.index[name]; !ok {
			return nil, decodeErrorf(nil, "unexpected field %q for %s", name, meta.Model)
		}

		if value == nil {
			converted[name] = nil
			continue
		}

		if HasMeta(value) {
			nested, err := thawNested(value, stripConverters(cfg.converters, name), cfg)
			if err != nil {
				return nil, err
			}
			converted[name] = nested
			continue
		}

		restored, err := convertValue(meta, name, value, cfg.converters)
		if err != nil {
			return nil, decodeErrorf(err, "field %q of %s", name, meta.Model)
		}
		converted[name] = restored
	}

	return shape.instantiate(meta, converted)
}

func thawNested(value any, converters map[string]Converter, cfg config) (*Object, error) {
	nestedCfg := cfg
	nestedCfg.converters = converters

	switch v := value.(type) {
	case Payload:
		return thawPayload(v, nestedCfg)
	case *Payload:
		return thawPayload(*v, nestedCfg)
	case map[string]any:
		payload, err := payloadFromMap(v)
		if err != nil {
			return nil, err
		}
		return thawPayload(payload, nestedCfg)
	default:
		return nil, decodeErrorf(nil, "nested payload has unexpected type %T", value)
	}
}

// convertValue restores one wire value: converter override first, raw
// passthrough for properties, then the default converter for the recorded
// TypeID.
func convertValue(meta Meta, name string, value any, converters map[string]Converter) (any, error) {
	if fn, ok := converters[name]; ok {
		return fn(value)
	}
	if meta.isProperty(name) {
		return value, nil
	}
	descriptor, ok := meta.Descriptor(name)
	if !ok {
		return value, nil
	}
	fn, ok := defaultConverter(descriptor.TypeID)
	if !ok {
		return value, nil
	}
	return fn(value)
}
