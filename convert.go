package frozen

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Converter inverts the JSON-safe encoding of one stored value, restoring
// its semantic type. Converters registered via WithConverter take priority
// over the defaults keyed by TypeID.
type Converter func(value any) (any, error)

// encodeValue converts a live value into its JSON-safe representation.
// Scalars pass through; date, time, decimal, and UUID values convert to
// their canonical string form so a thaw can invert the conversion from the
// recorded TypeID. Values already in wire form pass through untouched,
// which is what makes re-freezing frozen data safe.
func encodeValue(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool, string, float64, int64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint, uint8, uint16, uint32, uint64:
		return int64(reflect.ValueOf(v).Uint()), nil
	case float32:
		return float64(v), nil
	case json.Number:
		return v, nil
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return v.UTC().Format(time.RFC3339Nano), nil
	case Date:
		return v.String(), nil
	case *Date:
		if v == nil {
			return nil, nil
		}
		return v.String(), nil
	case decimal.Decimal:
		return v.String(), nil
	case *decimal.Decimal:
		if v == nil {
			return nil, nil
		}
		return v.String(), nil
	case uuid.UUID:
		return v.String(), nil
	case map[string]any, []any:
		return v, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		return encodeValue(rv.Elem().Interface())
	}
	return value, nil
}

// defaultConverter returns the built-in converter for a manifest TypeID.
// Unknown TypeIDs have no converter; the raw wire value passes through.
func defaultConverter(typeID string) (Converter, bool) {
	switch typeID {
	case TypeInt:
		return convertInt, true
	case TypeFloat:
		return convertFloat, true
	case TypeTime:
		return convertTime, true
	case TypeDate:
		return convertDate, true
	case TypeDecimal:
		return convertDecimal, true
	case TypeUUID:
		return convertUUID, true
	case TypeString, TypeBool, TypeJSON:
		return passthrough, true
	default:
		return nil, false
	}
}

func passthrough(value any) (any, error) {
	return value, nil
}

func convertInt(value any) (any, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		// JSON numbers decode as float64; a fractional part means the
		// stored value was never an integer.
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("cannot convert %v to int64 without truncation", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	default:
		return nil, fmt.Errorf("cannot convert %T to int64", value)
	}
}

func convertFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	default:
		return nil, fmt.Errorf("cannot convert %T to float64", value)
	}
}

func convertTime(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to time.Time", value)
	}
}

func convertDate(value any) (any, error) {
	switch v := value.(type) {
	case Date:
		return v, nil
	case string:
		return ParseDate(v)
	default:
		return nil, fmt.Errorf("cannot convert %T to frozen.Date", value)
	}
}

func convertDecimal(value any) (any, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	default:
		return nil, fmt.Errorf("cannot convert %T to decimal.Decimal", value)
	}
}

func convertUUID(value any) (any, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	default:
		return nil, fmt.Errorf("cannot convert %T to uuid.UUID", value)
	}
}
