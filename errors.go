package frozen

import (
	"errors"
	"fmt"
)

// ErrFrozenAttribute is returned by Object.Set: captured attributes are
// immutable.
var ErrFrozenAttribute = errors.New("frozen: attribute is frozen")

// ErrFrozenObject is returned by Object.Save: frozen objects cannot be
// saved.
var ErrFrozenObject = errors.New("frozen: frozen objects cannot be saved")

// ErrReservedName is returned when a schema or payload uses the reserved
// manifest key as an attribute name.
var ErrReservedName = errors.New("frozen: reserved attribute name")

// ConfigError reports an invalid freeze selection: a named attribute that
// does not exist on the schema, or include and exclude used together.
// Selection problems fail the freeze instead of silently narrowing it.
type ConfigError struct {
	Model  string
	Attr   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Attr == "" {
		return fmt.Sprintf("frozen: invalid selection for %s: %s", e.Model, e.Reason)
	}
	return fmt.Sprintf("frozen: invalid selection for %s: %q %s", e.Model, e.Attr, e.Reason)
}

// DecodeError reports a malformed or undecodable snapshot payload.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("frozen: decode: %s", e.Reason)
	}
	return fmt.Sprintf("frozen: decode: %s: %v", e.Reason, e.Err)
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func decodeErrorf(err error, format string, args ...any) error {
	return &DecodeError{Reason: fmt.Sprintf(format, args...), Err: err}
}
