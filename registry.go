package frozen

import "time"

// Validate checks the selection against a schema. Every named field,
// related record, and property must exist; include and exclude are
// mutually exclusive. Validation failures surface as *ConfigError before
// any record value is read.
func (s Selection) Validate(schema *Schema) error {
	if schema == nil {
		return &ConfigError{Model: "<nil>", Reason: "schema is nil"}
	}
	if len(s.Include) > 0 && len(s.Exclude) > 0 {
		return &ConfigError{Model: schema.Identity, Reason: "include and exclude are mutually exclusive"}
	}
	for _, name := range s.Include {
		if err := validateFieldPath(schema, name); err != nil {
			return err
		}
	}
	for _, name := range s.Exclude {
		if err := validateFieldPath(schema, name); err != nil {
			return err
		}
	}
	for _, name := range topLevel(s.SelectRelated) {
		field, ok := schema.Field(name)
		if !ok {
			return &ConfigError{Model: schema.Identity, Attr: name, Reason: "is not a field"}
		}
		if field.Related == nil {
			return &ConfigError{Model: schema.Identity, Attr: name, Reason: "is not a related field"}
		}
	}
	for _, name := range s.SelectProperties {
		// Nested property names validate against the related schema during
		// the nested freeze.
		if top := topSegment(name); top != name {
			field, ok := schema.Field(top)
			if !ok || field.Related == nil {
				return &ConfigError{Model: schema.Identity, Attr: top, Reason: "is not a related field"}
			}
			continue
		}
		if !schema.HasProperty(name) {
			return &ConfigError{Model: schema.Identity, Attr: name, Reason: "is not a property"}
		}
	}
	return nil
}

// validateFieldPath checks one include/exclude name: plain names must be
// declared fields, nested names must address a related field.
func validateFieldPath(schema *Schema, name string) error {
	if name == "" {
		return nil
	}
	top := topSegment(name)
	field, ok := schema.Field(top)
	if !ok {
		return &ConfigError{Model: schema.Identity, Attr: top, Reason: "is not a field"}
	}
	if top != name && field.Related == nil {
		return &ConfigError{Model: schema.Identity, Attr: top, Reason: "is not a related field"}
	}
	return nil
}

// newMeta resolves a validated selection against a schema into the manifest
// embedded in the payload. Every declared field appears in the manifest;
// selected ones carry the store treatment, the rest are ignored. The
// primary key is always stored. Manifest order follows schema declaration
// order so serialized output stays diffable.
func newMeta(schema *Schema, sel Selection, pk any, frozenAt time.Time) Meta {
	include := topLevel(sel.Include)
	exclude := topLevel(sel.Exclude)
	related := topLevel(sel.SelectRelated)

	descriptors := make([]FieldDescriptor, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		typeID := f.TypeID
		if f.Related != nil && typeID == "" {
			// Related fields record the nested model identity.
			typeID = f.Related.Identity
		}
		descriptors = append(descriptors, FieldDescriptor{
			Name:      f.Name,
			TypeID:    typeID,
			Treatment: fieldTreatment(f, include, exclude, related),
		})
	}

	return Meta{
		Model:      schema.Identity,
		PK:         pk,
		Fields:     descriptors,
		Included:   append([]string(nil), sel.Include...),
		Excluded:   append([]string(nil), sel.Exclude...),
		Related:    append([]string(nil), sel.SelectRelated...),
		Properties: ownProperties(sel.SelectProperties),
		FrozenAt:   frozenAt,
	}
}

// ownProperties filters nested property selections out: "address__label"
// belongs to the nested manifest, not this one.
func ownProperties(names []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, name := range names {
		if name == "" || topSegment(name) != name {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func fieldTreatment(f Field, include, exclude, related []string) Treatment {
	if f.Related != nil {
		if containsTop(related, f.Name) {
			return TreatmentStore
		}
		return TreatmentIgnore
	}
	if f.Primary {
		return TreatmentStore
	}
	if len(include) > 0 {
		if containsTop(include, f.Name) {
			return TreatmentStore
		}
		return TreatmentIgnore
	}
	if containsTop(exclude, f.Name) {
		return TreatmentIgnore
	}
	return TreatmentStore
}
