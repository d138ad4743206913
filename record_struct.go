package frozen

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const structTag = "frozen"

// StructRecord adapts a plain Go struct to the Record interface using
// reflection. Field names come from `frozen` tags or snake_cased Go names,
// `frozen:"name,pk"` marks the primary key, `frozen:"name,related"` marks a
// nested record, and `frozen:"-"` skips a field. Exported zero-argument
// methods become computed properties under their snake_cased names.
type StructRecord struct {
	schema  *Schema
	value   reflect.Value
	fields  map[string]int
	related map[string]int
}

// NewStructRecord reflects over v (a struct or non-nil struct pointer) and
// builds a Record with the given identity, e.g. "app.User".
func NewStructRecord(identity string, v any) (*StructRecord, error) {
	if identity == "" {
		return nil, fmt.Errorf("frozen: record identity must not be empty")
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("frozen: record %s is a nil pointer", identity)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("frozen: record %s must be a struct, got %T", identity, v)
	}
	schema, fields, related, err := reflectSchema(identity, rv.Type(), map[reflect.Type]bool{})
	if err != nil {
		return nil, err
	}
	schema.Properties = reflectProperties(rv)
	return &StructRecord{
		schema:  schema,
		value:   rv,
		fields:  fields,
		related: related,
	}, nil
}

func reflectSchema(identity string, t reflect.Type, visited map[reflect.Type]bool) (*Schema, map[string]int, map[string]int, error) {
	if visited[t] {
		return nil, nil, nil, fmt.Errorf("frozen: record %s references itself through %s", identity, t)
	}
	visited[t] = true
	defer delete(visited, t)

	schema := &Schema{Identity: identity}
	fields := map[string]int{}
	related := map[string]int{}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, primary, isRelated := parseStructTag(sf)
		if name == "-" {
			continue
		}
		if name == "" {
			name = snakeCase(sf.Name)
		}
		if name == MetaKey {
			return nil, nil, nil, fmt.Errorf("frozen: %w: field %s.%s", ErrReservedName, identity, sf.Name)
		}
		if _, dup := fields[name]; dup {
			return nil, nil, nil, fmt.Errorf("frozen: duplicate field %q on %s", name, identity)
		}

		if isRelated {
			elem := sf.Type
			if elem.Kind() == reflect.Pointer {
				elem = elem.Elem()
			}
			if elem.Kind() != reflect.Struct {
				return nil, nil, nil, fmt.Errorf("frozen: related field %s.%s must be a struct", identity, sf.Name)
			}
			nested, _, _, err := reflectSchema(relatedIdentity(identity, elem), elem, visited)
			if err != nil {
				return nil, nil, nil, err
			}
			schema.Fields = append(schema.Fields, Field{Name: name, Related: nested})
			fields[name] = i
			related[name] = i
			continue
		}

		schema.Fields = append(schema.Fields, Field{
			Name:    name,
			TypeID:  typeIDFor(sf.Type),
			Primary: primary,
		})
		fields[name] = i
	}

	if _, ok := schema.Primary(); !ok {
		return nil, nil, nil, fmt.Errorf("frozen: record %s declares no primary key", identity)
	}
	return schema, fields, related, nil
}

func parseStructTag(sf reflect.StructField) (name string, primary, related bool) {
	tag, ok := sf.Tag.Lookup(structTag)
	if !ok {
		return "", false, false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	for _, part := range parts[1:] {
		switch part {
		case "pk":
			primary = true
		case "related":
			related = true
		}
	}
	return name, primary, related
}

// relatedIdentity names a nested schema after the parent's package segment,
// so Address under "app.User" becomes "app.Address".
func relatedIdentity(parent string, t reflect.Type) string {
	if i := strings.LastIndex(parent, "."); i >= 0 {
		return parent[:i+1] + t.Name()
	}
	return t.Name()
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	dateType    = reflect.TypeOf(Date{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
)

func typeIDFor(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType:
		return TypeTime
	case dateType:
		return TypeDate
	case decimalType:
		return TypeDecimal
	case uuidType:
		return TypeUUID
	}
	switch t.Kind() {
	case reflect.String:
		return TypeString
	case reflect.Bool:
		return TypeBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInt
	case reflect.Float32, reflect.Float64:
		return TypeFloat
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return TypeJSON
	default:
		return TypeUnknown
	}
}

// reflectProperties lists the exported zero-argument methods of v (value and
// pointer receivers) that return one value, or a value and an error.
func reflectProperties(rv reflect.Value) []string {
	pv := rv
	if pv.CanAddr() {
		pv = pv.Addr()
	} else {
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		pv = ptr
	}
	t := pv.Type()
	var names []string
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !propertyMethod(m.Type) {
			continue
		}
		names = append(names, snakeCase(m.Name))
	}
	return names
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func propertyMethod(mt reflect.Type) bool {
	if mt.NumIn() != 1 {
		return false
	}
	switch mt.NumOut() {
	case 1:
		return mt.Out(0) != errorType
	case 2:
		return mt.Out(1) == errorType
	default:
		return false
	}
}

// Schema implements Record.
func (r *StructRecord) Schema() *Schema {
	return r.schema
}

// Value implements Record. Nil pointers read as nil.
func (r *StructRecord) Value(field string) (any, error) {
	idx, ok := r.fields[field]
	if !ok {
		return nil, nil
	}
	fv := r.value.Field(idx)
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil, nil
		}
		fv = fv.Elem()
	}
	return fv.Interface(), nil
}

// Related implements Record. Nil pointers mark a null relation.
func (r *StructRecord) Related(field string) (Record, error) {
	idx, ok := r.related[field]
	if !ok {
		return nil, nil
	}
	fv := r.value.Field(idx)
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil, nil
		}
		fv = fv.Elem()
	}
	declared, _ := r.schema.Field(field)
	nested := declared.Related
	if len(nested.Properties) == 0 {
		nested = &Schema{
			Identity:   nested.Identity,
			Fields:     nested.Fields,
			Properties: reflectProperties(fv),
		}
	}
	return &StructRecord{
		schema:  nested,
		value:   fv,
		fields:  indexFields(nested, fv.Type()),
		related: indexRelated(nested, fv.Type()),
	}, nil
}

func indexFields(schema *Schema, t reflect.Type) map[string]int {
	out := map[string]int{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, _, _ := parseStructTag(sf)
		if name == "-" {
			continue
		}
		if name == "" {
			name = snakeCase(sf.Name)
		}
		if _, ok := schema.Field(name); ok {
			out[name] = i
		}
	}
	return out
}

func indexRelated(schema *Schema, t reflect.Type) map[string]int {
	out := map[string]int{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, _, isRelated := parseStructTag(sf)
		if !isRelated {
			continue
		}
		if name == "" {
			name = snakeCase(sf.Name)
		}
		out[name] = i
	}
	return out
}

// Property implements Record by invoking the matching zero-argument method.
func (r *StructRecord) Property(name string) (any, error) {
	pv := r.value
	if pv.CanAddr() {
		pv = pv.Addr()
	} else {
		ptr := reflect.New(r.value.Type())
		ptr.Elem().Set(r.value)
		pv = ptr
	}
	t := pv.Type()
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if snakeCase(m.Name) != name || !propertyMethod(m.Type) {
			continue
		}
		results := pv.Method(i).Call(nil)
		if len(results) == 2 {
			if err, _ := results[1].Interface().(error); err != nil {
				return nil, fmt.Errorf("frozen: property %s.%s: %w", r.schema.Identity, name, err)
			}
		}
		return results[0].Interface(), nil
	}
	return nil, fmt.Errorf("frozen: %s has no property %q", r.schema.Identity, name)
}

// snakeCase converts an exported Go name to its snake_case wire form,
// keeping initialisms intact: FullName -> full_name, HTTPAddr -> http_addr,
// ID -> id.
func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
				nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
				if prevLower || nextLower {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
