package frozen

import (
	"strings"
	"time"

	"github.com/goliatone/go-frozen/pkg/audit"
)

// TypeID values recorded in a snapshot manifest. A TypeID names the
// semantic type a stored value thaws back into. Values with an unknown
// TypeID pass through as their raw JSON type.
const (
	TypeString  = "string"
	TypeBool    = "bool"
	TypeInt     = "int64"
	TypeFloat   = "float64"
	TypeTime    = "time.Time"
	TypeDate    = "frozen.Date"
	TypeDecimal = "decimal.Decimal"
	TypeUUID    = "uuid.UUID"
	TypeJSON    = "json"
	TypeUnknown = "unknown"
)

// MetaKey is the reserved payload key holding the embedded manifest.
const MetaKey = "meta"

// Treatment controls whether a declared field is captured in a snapshot.
type Treatment string

const (
	TreatmentStore  Treatment = "store"
	TreatmentIgnore Treatment = "ignore"
)

// FieldDescriptor describes one declared field in a snapshot manifest.
type FieldDescriptor struct {
	Name      string    `json:"name"`
	TypeID    string    `json:"type"`
	Treatment Treatment `json:"treatment"`
}

// Meta is the descriptor block embedded in every snapshot payload. It
// carries enough schema information to thaw the payload without consulting
// the live schema. Meta values are never mutated after construction.
type Meta struct {
	Model      string            `json:"model"`
	PK         any               `json:"pk"`
	Fields     []FieldDescriptor `json:"fields"`
	Included   []string          `json:"included,omitempty"`
	Excluded   []string          `json:"excluded,omitempty"`
	Related    []string          `json:"select_related,omitempty"`
	Properties []string          `json:"select_properties,omitempty"`
	FrozenAt   time.Time         `json:"frozen_at"`
}

// ObjectName returns the dynamic shape name derived from the source model,
// e.g. "app.Address" becomes "FrozenAddress".
func (m Meta) ObjectName() string {
	parts := strings.Split(m.Model, ".")
	return "Frozen" + parts[len(parts)-1]
}

// StoreFields returns the names of manifest fields captured in the payload,
// in manifest order.
func (m Meta) StoreFields() []string {
	names := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		if f.Treatment == TreatmentStore {
			names = append(names, f.Name)
		}
	}
	return names
}

// FrozenAttrs returns every attribute of the frozen instance: captured
// fields first, then selected properties.
func (m Meta) FrozenAttrs() []string {
	return append(m.StoreFields(), m.Properties...)
}

// Descriptor returns the manifest entry for name.
func (m Meta) Descriptor(name string) (FieldDescriptor, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

func (m Meta) isProperty(name string) bool {
	for _, p := range m.Properties {
		if p == name {
			return true
		}
	}
	return false
}

func (m Meta) isRelated(name string) bool {
	for _, r := range m.Related {
		if topSegment(r) == name {
			return true
		}
	}
	return false
}

// Selection controls which fields, related records, and computed properties
// a freeze operation captures. Include and Exclude are mutually exclusive.
// Names may address one nested level on a related record with a double
// underscore, e.g. "address__line_1".
type Selection struct {
	Include          []string
	Exclude          []string
	SelectRelated    []string
	SelectProperties []string
}

func (s Selection) isZero() bool {
	return len(s.Include) == 0 && len(s.Exclude) == 0 &&
		len(s.SelectRelated) == 0 && len(s.SelectProperties) == 0
}

// forRelated returns the nested selection for one related field, stripping
// the "field__" prefix from every selection list.
func (s Selection) forRelated(field string) Selection {
	return Selection{
		Include:          nextLevel(s.Include, field),
		Exclude:          nextLevel(s.Exclude, field),
		SelectRelated:    nextLevel(s.SelectRelated, field),
		SelectProperties: nextLevel(s.SelectProperties, field),
	}
}

// Option configures a freeze or thaw call.
type Option func(*config)

type config struct {
	shapes     *ShapeCache
	converters map[string]Converter
	hooks      audit.Hooks
	now        func() time.Time
}

func applyOptions(opts []Option) config {
	cfg := config{
		shapes: defaultShapes,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithShapeCache replaces the process-wide shape cache. Injecting a fresh
// cache keeps shape identity assertions isolated between tests.
func WithShapeCache(cache *ShapeCache) Option {
	return func(cfg *config) {
		if cache != nil {
			cfg.shapes = cache
		}
	}
}

// WithConverter registers a thaw converter override for one field or
// property. Nested fields are addressed as "related__field".
func WithConverter(name string, fn Converter) Option {
	return func(cfg *config) {
		if fn == nil {
			return
		}
		if cfg.converters == nil {
			cfg.converters = map[string]Converter{}
		}
		cfg.converters[name] = fn
	}
}

// WithConverters registers a map of thaw converter overrides.
func WithConverters(converters map[string]Converter) Option {
	return func(cfg *config) {
		for name, fn := range converters {
			if fn == nil {
				continue
			}
			if cfg.converters == nil {
				cfg.converters = map[string]Converter{}
			}
			cfg.converters[name] = fn
		}
	}
}

// WithHooks attaches audit hooks notified after every successful freeze and
// thaw. Nil entries are dropped.
func WithHooks(hooks audit.Hooks) Option {
	normalized := make(audit.Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			normalized = append(normalized, hook)
		}
	}
	return func(cfg *config) {
		if len(normalized) > 0 {
			cfg.hooks = normalized
		}
	}
}

// WithNow overrides the clock used for Meta.FrozenAt.
func WithNow(now func() time.Time) Option {
	return func(cfg *config) {
		if now != nil {
			cfg.now = now
		}
	}
}
