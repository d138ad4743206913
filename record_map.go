package frozen

import (
	"fmt"
	"time"
)

// PropertyFunc computes one property from a record's current values.
type PropertyFunc func(values map[string]any) (any, error)

// MapRecordOption configures a MapRecord.
type MapRecordOption func(*MapRecord)

// WithRelated attaches a related record under name. A nil record freezes to
// an explicit null.
func WithRelated(name string, record Record) MapRecordOption {
	return func(r *MapRecord) {
		if r.related == nil {
			r.related = map[string]Record{}
		}
		r.related[name] = record
	}
}

// WithProperty declares a computed property backed by a Go function.
func WithProperty(name string, fn PropertyFunc) MapRecordOption {
	return func(r *MapRecord) {
		if fn == nil {
			return
		}
		if r.props == nil {
			r.props = map[string]PropertyFunc{}
		}
		r.props[name] = fn
	}
}

// WithPropertyRule declares a computed property backed by an expression
// evaluated against the record's values.
func WithPropertyRule(name, expr string) MapRecordOption {
	return func(r *MapRecord) {
		if expr == "" {
			return
		}
		if r.rules == nil {
			r.rules = map[string]string{}
		}
		r.rules[name] = expr
	}
}

// WithRecordEvaluator selects the expression engine for property rules. A
// nil evaluator keeps the default expr engine.
func WithRecordEvaluator(e Evaluator) MapRecordOption {
	return func(r *MapRecord) {
		r.evaluator = e
	}
}

// WithRecordProgramCache memoizes compiled property rules.
func WithRecordProgramCache(cache ProgramCache) MapRecordOption {
	return func(r *MapRecord) {
		r.cache = cache
	}
}

// WithRecordFunctions exposes custom functions to property rules.
func WithRecordFunctions(registry *FunctionRegistry) MapRecordOption {
	return func(r *MapRecord) {
		if registry == nil {
			return
		}
		r.functions = registry.Clone()
	}
}

// WithRecordLogger observes property rule evaluations.
func WithRecordLogger(logger EvaluatorLogger) MapRecordOption {
	return func(r *MapRecord) {
		if logger == nil {
			r.logger = noopEvaluatorLogger{}
			return
		}
		r.logger = logger
	}
}

// MapRecord is a map-backed Record for callers without a struct type: field
// values live in a plain map, related records and computed properties are
// registered explicitly. Properties may be Go functions or expression
// rules; rules run through the configured evaluator (expr by default).
type MapRecord struct {
	schema    *Schema
	values    map[string]any
	related   map[string]Record
	props     map[string]PropertyFunc
	rules     map[string]string
	evaluator Evaluator
	cache     ProgramCache
	functions *FunctionRegistry
	logger    EvaluatorLogger
}

// NewMapRecord constructs a MapRecord over schema and values. Registered
// property names are merged into the schema's declared properties.
func NewMapRecord(schema *Schema, values map[string]any, opts ...MapRecordOption) *MapRecord {
	r := &MapRecord{
		schema: schema,
		values: values,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.schema = mergeProperties(schema, r.props, r.rules)
	return r
}

func mergeProperties(schema *Schema, props map[string]PropertyFunc, rules map[string]string) *Schema {
	if schema == nil {
		return nil
	}
	merged := &Schema{
		Identity:   schema.Identity,
		Fields:     schema.Fields,
		Properties: append([]string(nil), schema.Properties...),
	}
	add := func(name string) {
		if !merged.HasProperty(name) {
			merged.Properties = append(merged.Properties, name)
		}
	}
	for name := range props {
		add(name)
	}
	for name := range rules {
		add(name)
	}
	return merged
}

// Schema implements Record.
func (r *MapRecord) Schema() *Schema {
	return r.schema
}

// Value implements Record. Absent fields read as nil.
func (r *MapRecord) Value(field string) (any, error) {
	return r.values[field], nil
}

// Related implements Record.
func (r *MapRecord) Related(field string) (Record, error) {
	related, ok := r.related[field]
	if !ok {
		return nil, nil
	}
	return related, nil
}

// Property implements Record: Go-func properties run directly, rule
// properties run through the evaluator.
func (r *MapRecord) Property(name string) (any, error) {
	if fn, ok := r.props[name]; ok {
		value, err := fn(r.values)
		if err != nil {
			return nil, fmt.Errorf("frozen: property %s.%s: %w", r.schema.Identity, name, err)
		}
		return value, nil
	}

	rule, ok := r.rules[name]
	if !ok {
		return nil, fmt.Errorf("frozen: %s has no property %q", r.schema.Identity, name)
	}

	evaluator, err := r.resolveEvaluator()
	if err != nil {
		return nil, err
	}

	ctx := EvalContext{
		Values: r.values,
		Record: r.schema.Identity,
	}.withDefaultNow().withDefaultMaps()

	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, rule)
	duration := time.Since(start)
	evalErr = wrapEvaluationError(engine, rule, ctx.recordLabel(), evalErr)
	r.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     rule,
		Record:   ctx.recordLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (r *MapRecord) resolveEvaluator() (Evaluator, error) {
	if r.evaluator != nil {
		return r.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if r.cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(r.cache))
	}
	if r.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(r.functions))
	}
	defaultEvaluator := NewExprEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	r.evaluator = defaultEvaluator
	return defaultEvaluator, nil
}

func (r *MapRecord) evaluatorLogger() EvaluatorLogger {
	if r.logger != nil {
		return r.logger
	}
	return noopEvaluatorLogger{}
}
