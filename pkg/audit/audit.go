// Package audit fans out freeze and thaw notifications to registered hooks,
// giving callers an audit trail of which records were snapshotted or
// restored and when.
package audit

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Verbs emitted by the snapshot engine.
const (
	VerbFreeze = "freeze"
	VerbThaw   = "thaw"
)

// Event describes one freeze or thaw occurrence. PK is stringly-typed to
// avoid coupling call sites to specific key types.
type Event struct {
	Verb       string
	Model      string
	PK         string
	Attrs      []string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Hook receives normalized audit events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []Hook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify forwards the event to all hooks, returning a joined error if any
// fail. It normalizes the event and short-circuits when required fields are
// missing.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if normalized.Verb == "" || normalized.Model == "" {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims whitespace, clones attrs and metadata, and ensures a
// timestamp is present.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.Model = strings.TrimSpace(event.Model)
	normalized.PK = strings.TrimSpace(event.PK)
	normalized.Metadata = cloneMap(event.Metadata)
	if len(event.Attrs) > 0 {
		normalized.Attrs = append([]string{}, event.Attrs...)
	} else {
		normalized.Attrs = nil
	}
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
