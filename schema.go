package frozen

import "strings"

// Field describes one declared field on a record schema.
type Field struct {
	Name    string
	TypeID  string
	Primary bool
	// Related is non-nil for fields referencing another record
	// (one-to-one / many-to-one). Related fields are captured only when
	// named in Selection.SelectRelated.
	Related *Schema
}

// Schema is the reflected structure of a live record: its identity
// ("app.Model"), declared fields, and the names of computed properties
// available for selection.
type Schema struct {
	Identity   string
	Fields     []Field
	Properties []string
}

// Field returns the declared field named name.
func (s *Schema) Field(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Primary returns the schema's primary-key field.
func (s *Schema) Primary() (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	for _, f := range s.Fields {
		if f.Primary {
			return f, true
		}
	}
	return Field{}, false
}

// HasProperty reports whether name is a declared computed property.
func (s *Schema) HasProperty(name string) bool {
	if s == nil {
		return false
	}
	for _, p := range s.Properties {
		if p == name {
			return true
		}
	}
	return false
}

// Record is the live-record surface the freeze engine reads from. The
// storage collaborator supplies implementations; MapRecord and StructRecord
// cover the common cases.
type Record interface {
	// Schema returns the record's reflected structure.
	Schema() *Schema
	// Value reads one scalar field. Absent values return nil, not an error.
	Value(field string) (any, error)
	// Related reads one related record. A nil Record marks a null relation.
	Related(field string) (Record, error)
	// Property computes one named property.
	Property(name string) (any, error)
}

const nestedSep = "__"

// topSegment returns the first path segment of a selection name.
func topSegment(name string) string {
	if i := strings.Index(name, nestedSep); i >= 0 {
		return name[:i]
	}
	return name
}

// topLevel extracts the unique top-level segments of selection names,
// preserving first-seen order.
func topLevel(names []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		segment := topSegment(name)
		if _, ok := seen[segment]; ok {
			continue
		}
		seen[segment] = struct{}{}
		out = append(out, segment)
	}
	return out
}

// nextLevel strips the "field__" prefix from matching names, producing the
// selection list for the nested freeze of that field.
func nextLevel(names []string, field string) []string {
	prefix := field + nestedSep
	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			out = append(out, strings.TrimPrefix(name, prefix))
		}
	}
	return out
}

// stripConverters scopes converter overrides to one nested payload,
// removing the "field__" prefix from matching keys.
func stripConverters(converters map[string]Converter, field string) map[string]Converter {
	if len(converters) == 0 {
		return nil
	}
	prefix := field + nestedSep
	var out map[string]Converter
	for key, fn := range converters {
		if !strings.HasPrefix(key, prefix) || key == field {
			continue
		}
		if out == nil {
			out = map[string]Converter{}
		}
		out[strings.TrimPrefix(key, prefix)] = fn
	}
	return out
}

func containsTop(names []string, field string) bool {
	for _, name := range names {
		if topSegment(name) == field {
			return true
		}
	}
	return false
}
