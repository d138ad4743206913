package frozen

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Shape is a runtime-constructed, immutable record definition for one
// (source identity, selection) combination. Shapes are owned by a
// ShapeCache and shared across every freeze and thaw of the same
// combination.
type Shape struct {
	key   string
	name  string
	attrs []string
	index map[string]int
}

// Name returns the shape's display name, e.g. "FrozenAddress".
func (s *Shape) Name() string {
	return s.name
}

// Attrs returns the shape's attribute names in slot order.
func (s *Shape) Attrs() []string {
	return append([]string(nil), s.attrs...)
}

// instantiate builds a frozen instance from meta plus converted values.
// Every shape attribute must be present in values.
func (s *Shape) instantiate(meta Meta, values map[string]any) (*Object, error) {
	slots := make([]any, len(s.attrs))
	for i, attr := range s.attrs {
		value, ok := values[attr]
		if !ok {
			return nil, decodeErrorf(nil, "missing field %q for %s", attr, meta.Model)
		}
		slots[i] = value
	}
	return &Object{shape: s, meta: meta, slots: slots}, nil
}

// ShapeCache memoizes shapes by structural signature. Shapes are immutable,
// so a racing double build is redundant but never incorrect; the first
// inserted shape wins.
type ShapeCache struct {
	mu     sync.RWMutex
	shapes map[string]*Shape
}

// NewShapeCache constructs an empty cache. The package holds a process-wide
// default; inject a fresh cache via WithShapeCache to isolate tests.
func NewShapeCache() *ShapeCache {
	return &ShapeCache{shapes: map[string]*Shape{}}
}

var defaultShapes = NewShapeCache()

// DefaultShapeCache returns the process-wide cache used when no
// WithShapeCache option is supplied.
func DefaultShapeCache() *ShapeCache {
	return defaultShapes
}

// Len returns the number of cached shapes.
func (c *ShapeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.shapes)
}

// GetOrBuild returns the shape for the given identity and attribute names,
// building and caching it on first use. Identical keys always return the
// identical shape handle.
func (c *ShapeCache) GetOrBuild(identity string, fieldNames, propertyNames []string) (*Shape, error) {
	key := shapeKey(identity, fieldNames, propertyNames)

	c.mu.RLock()
	shape, ok := c.shapes[key]
	c.mu.RUnlock()
	if ok {
		return shape, nil
	}

	built, err := buildShape(key, identity, fieldNames, propertyNames)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.shapes[key]; ok {
		return existing, nil
	}
	c.shapes[key] = built
	return built, nil
}

func buildShape(key, identity string, fieldNames, propertyNames []string) (*Shape, error) {
	attrs := make([]string, 0, len(fieldNames)+len(propertyNames))
	attrs = append(attrs, sortedCopy(fieldNames)...)
	attrs = append(attrs, sortedCopy(propertyNames)...)

	index := make(map[string]int, len(attrs))
	for i, attr := range attrs {
		if attr == MetaKey {
			return nil, fmt.Errorf("%w: %q collides with the embedded manifest", ErrReservedName, MetaKey)
		}
		if _, ok := index[attr]; ok {
			return nil, fmt.Errorf("frozen: duplicate attribute %q in shape for %s", attr, identity)
		}
		index[attr] = i
	}

	return &Shape{
		key:   key,
		name:  Meta{Model: identity}.ObjectName(),
		attrs: attrs,
		index: index,
	}, nil
}

func shapeKey(identity string, fieldNames, propertyNames []string) string {
	return identity + "|" +
		strings.Join(sortedCopy(fieldNames), ",") + "|" +
		strings.Join(sortedCopy(propertyNames), ",")
}

func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
