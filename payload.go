package frozen

import (
	"encoding/json"
	"fmt"
)

// Payload is the serializable form of one snapshot: the embedded manifest
// plus the captured field values. On the wire it is a single JSON object
// with the reserved "meta" key and one sibling key per stored value;
// related records nest the same layout one level deep.
type Payload struct {
	Meta   Meta
	Values map[string]any
}

// HasMeta reports whether value looks like a serialized snapshot payload.
// Used to recognize nested frozen objects during thaw.
func HasMeta(value any) bool {
	switch v := value.(type) {
	case Payload:
		return true
	case *Payload:
		return v != nil
	case map[string]any:
		meta, ok := v[MetaKey].(map[string]any)
		if !ok {
			return false
		}
		_, ok = meta["frozen_at"]
		return ok
	default:
		return false
	}
}

// MarshalJSON writes the wire layout: values flattened beside the reserved
// meta key.
func (p Payload) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Values)+1)
	for key, value := range p.Values {
		if key == MetaKey {
			return nil, fmt.Errorf("%w: payload value %q", ErrReservedName, MetaKey)
		}
		out[key] = value
	}
	out[MetaKey] = p.Meta
	return json.Marshal(out)
}

// UnmarshalJSON parses the wire layout back into meta plus values.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return decodeErrorf(err, "not a JSON object")
	}

	metaRaw, ok := raw[MetaKey]
	if !ok {
		return decodeErrorf(nil, "missing %q key", MetaKey)
	}
	var meta Meta
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return decodeErrorf(err, "malformed manifest")
	}

	values := make(map[string]any, len(raw)-1)
	for key, rawValue := range raw {
		if key == MetaKey {
			continue
		}
		var value any
		if err := json.Unmarshal(rawValue, &value); err != nil {
			return decodeErrorf(err, "malformed value %q", key)
		}
		values[key] = value
	}

	p.Meta = meta
	p.Values = values
	return nil
}

// AsMap renders the payload as the nested mapping form accepted by Thaw.
func (p Payload) AsMap() map[string]any {
	out := make(map[string]any, len(p.Values)+1)
	for key, value := range p.Values {
		if nested, ok := value.(Payload); ok {
			out[key] = nested.AsMap()
			continue
		}
		out[key] = value
	}
	out[MetaKey] = p.Meta
	return out
}

// payloadFromMap parses the nested mapping form of a payload. The manifest
// may arrive as a typed Meta (in-process round-trip) or as a plain map
// (prior JSON deserialization).
func payloadFromMap(data map[string]any) (Payload, error) {
	if data == nil {
		return Payload{}, decodeErrorf(nil, "payload is nil")
	}
	metaValue, ok := data[MetaKey]
	if !ok {
		return Payload{}, decodeErrorf(nil, "missing %q key", MetaKey)
	}

	var meta Meta
	switch m := metaValue.(type) {
	case Meta:
		meta = m
	case map[string]any:
		raw, err := json.Marshal(m)
		if err != nil {
			return Payload{}, decodeErrorf(err, "malformed manifest")
		}
		if err := json.Unmarshal(raw, &meta); err != nil {
			return Payload{}, decodeErrorf(err, "malformed manifest")
		}
	default:
		return Payload{}, decodeErrorf(nil, "manifest has unexpected type %T", metaValue)
	}

	if meta.Model == "" {
		return Payload{}, decodeErrorf(nil, "manifest missing model identity")
	}

	values := make(map[string]any, len(data)-1)
	for key, value := range data {
		if key == MetaKey {
			continue
		}
		values[key] = value
	}
	return Payload{Meta: meta, Values: values}, nil
}
