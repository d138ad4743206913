// Package jsonschema renders the manifest embedded in a snapshot payload as
// a JSON Schema document describing the payload's wire layout. The output is
// useful for validating stored snapshots with external tooling and for
// documenting what a given freeze configuration captures.
package jsonschema

import (
	"fmt"
	"strings"

	frozen "github.com/goliatone/go-frozen"
)

// Document is a JSON Schema document ready for serialization.
type Document map[string]any

type generatorConfig struct {
	schemaVersion        string
	title                string
	additionalProperties bool
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		schemaVersion: "https://json-schema.org/draft/2020-12/schema",
	}
}

// GeneratorOption configures the schema generator behaviour.
type GeneratorOption func(*generatorConfig)

// WithSchemaVersion overrides the $schema dialect URI.
func WithSchemaVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version != "" {
			cfg.schemaVersion = version
		}
	}
}

// WithTitle overrides the document title (default: the manifest's object
// name, e.g. "FrozenProfile").
func WithTitle(title string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title != "" {
			cfg.title = title
		}
	}
}

// WithAdditionalProperties permits payload keys beyond the captured fields.
func WithAdditionalProperties(allowed bool) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.additionalProperties = allowed
	}
}

// Generate builds a JSON Schema document for payloads carrying the given
// manifest. Captured fields map to typed properties by their TypeID,
// selected related records map to nested objects, and computed properties
// stay untyped since the manifest records no type for them.
func Generate(meta frozen.Meta, opts ...GeneratorOption) (Document, error) {
	if meta.Model == "" {
		return nil, fmt.Errorf("jsonschema: manifest missing model identity")
	}

	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	title := cfg.title
	if title == "" {
		title = meta.ObjectName()
	}

	properties := map[string]any{
		frozen.MetaKey: manifestSchema(),
	}
	required := []string{frozen.MetaKey}

	for _, name := range meta.StoreFields() {
		descriptor, _ := meta.Descriptor(name)
		if relatedField(meta, name) {
			properties[name] = map[string]any{
				"type":        []string{"object", "null"},
				"description": fmt.Sprintf("nested %s snapshot", descriptor.TypeID),
			}
		} else {
			properties[name] = fieldSchema(descriptor.TypeID)
		}
		required = append(required, name)
	}

	for _, name := range meta.Properties {
		properties[name] = map[string]any{
			"description": "computed property, stored as captured",
		}
		required = append(required, name)
	}

	return Document{
		"$schema":              cfg.schemaVersion,
		"title":                title,
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": cfg.additionalProperties,
	}, nil
}

func relatedField(meta frozen.Meta, name string) bool {
	for _, r := range meta.Related {
		top := r
		if i := strings.Index(r, "__"); i >= 0 {
			top = r[:i]
		}
		if top == name {
			return true
		}
	}
	return false
}

// fieldSchema maps a manifest TypeID to its JSON Schema shape. Every field
// may freeze to an explicit null, so scalar types are nullable. Unknown
// TypeIDs stay untyped, matching the thaw engine's raw passthrough.
func fieldSchema(typeID string) map[string]any {
	switch typeID {
	case frozen.TypeString:
		return nullable("string", "")
	case frozen.TypeBool:
		return nullable("boolean", "")
	case frozen.TypeInt:
		return nullable("integer", "")
	case frozen.TypeFloat:
		return nullable("number", "")
	case frozen.TypeTime:
		return nullable("string", "date-time")
	case frozen.TypeDate:
		return nullable("string", "date")
	case frozen.TypeDecimal:
		return nullable("string", "decimal")
	case frozen.TypeUUID:
		return nullable("string", "uuid")
	case frozen.TypeJSON:
		return map[string]any{}
	default:
		return map[string]any{}
	}
}

func nullable(typ, format string) map[string]any {
	out := map[string]any{
		"type": []string{typ, "null"},
	}
	if format != "" {
		out["format"] = format
	}
	return out
}

func manifestSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"model": map[string]any{"type": "string"},
			"pk":    map[string]any{},
			"fields": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":      map[string]any{"type": "string"},
						"type":      map[string]any{"type": "string"},
						"treatment": map[string]any{"enum": []string{"store", "ignore"}},
					},
					"required": []string{"name", "treatment"},
				},
			},
			"included":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"excluded":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"select_related":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"select_properties": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"frozen_at":         map[string]any{"type": "string", "format": "date-time"},
		},
		"required": []string{"model", "frozen_at"},
	}
}
