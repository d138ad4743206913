package frozen

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestEncodeValue(t *testing.T) {
	stamp := time.Date(2020, 6, 15, 8, 30, 0, 0, time.FixedZone("CET", 3600))
	dec := decimal.RequireFromString("10.50")
	id := uuid.MustParse("0c9d1af6-43a0-4c8a-9d6b-90a3ab6c63e3")
	date := NewDate(1815, time.December, 10)
	seven := int64(7)

	cases := []struct {
		name  string
		value any
		want  any
	}{
		{"nil", nil, nil},
		{"bool", true, true},
		{"string", "ada", "ada"},
		{"int", 7, int64(7)},
		{"int8", int8(7), int64(7)},
		{"int16", int16(7), int64(7)},
		{"int32", int32(7), int64(7)},
		{"int64", int64(7), int64(7)},
		{"uint", uint(7), int64(7)},
		{"uint64", uint64(7), int64(7)},
		{"float32", float32(1.5), float64(1.5)},
		{"float64", 1.5, 1.5},
		{"json number", json.Number("7"), json.Number("7")},
		{"time normalized to utc", stamp, "2020-06-15T07:30:00Z"},
		{"time pointer", &stamp, "2020-06-15T07:30:00Z"},
		{"nil time pointer", (*time.Time)(nil), nil},
		{"date", date, "1815-12-10"},
		{"date pointer", &date, "1815-12-10"},
		{"nil date pointer", (*Date)(nil), nil},
		{"decimal keeps trailing zeros", dec, "10.50"},
		{"decimal pointer", &dec, "10.50"},
		{"nil decimal pointer", (*decimal.Decimal)(nil), nil},
		{"uuid", id, "0c9d1af6-43a0-4c8a-9d6b-90a3ab6c63e3"},
		{"int pointer", &seven, int64(7)},
		{"nil typed pointer", (*int64)(nil), nil},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := encodeValue(tc.value)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if got != tc.want {
				t.Fatalf("want %#v, got %#v", tc.want, got)
			}
		})
	}
}

func TestEncodeValueCollections(t *testing.T) {
	prefs := map[string]any{"theme": "dark"}
	got, err := encodeValue(prefs)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if m, ok := got.(map[string]any); !ok || m["theme"] != "dark" {
		t.Fatalf("maps must pass through, got %#v", got)
	}

	got, err = encodeValue([]any{"a", "b"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if s, ok := got.([]any); !ok || len(s) != 2 {
		t.Fatalf("slices must pass through, got %#v", got)
	}
}

func TestDefaultConverterCoverage(t *testing.T) {
	for _, typeID := range []string{TypeString, TypeBool, TypeInt, TypeFloat, TypeTime, TypeDate, TypeDecimal, TypeUUID, TypeJSON} {
		if _, ok := defaultConverter(typeID); !ok {
			t.Fatalf("missing converter for %q", typeID)
		}
	}
	if _, ok := defaultConverter("tickets.State"); ok {
		t.Fatalf("unknown type ids must have no converter")
	}
	if _, ok := defaultConverter(TypeUnknown); ok {
		t.Fatalf("unknown type id must have no converter")
	}
}

func TestConvertInt(t *testing.T) {
	for _, value := range []any{int64(7), 7, float64(7), json.Number("7")} {
		got, err := convertInt(value)
		if err != nil || got != int64(7) {
			t.Fatalf("convertInt(%T): %v, %v", value, got, err)
		}
	}
	if _, err := convertInt("7"); err == nil {
		t.Fatalf("expected error for string")
	}
	if _, err := convertInt(3.7); err == nil {
		t.Fatalf("expected error for fractional float")
	}
	if _, err := convertInt(json.Number("3.7")); err == nil {
		t.Fatalf("expected error for fractional number")
	}
}

func TestConvertFloat(t *testing.T) {
	for _, value := range []any{float64(1.5), json.Number("1.5")} {
		got, err := convertFloat(value)
		if err != nil || got != 1.5 {
			t.Fatalf("convertFloat(%T): %v, %v", value, got, err)
		}
	}
	got, err := convertFloat(int64(3))
	if err != nil || got != float64(3) {
		t.Fatalf("convertFloat(int64): %v, %v", got, err)
	}
	if _, err := convertFloat(true); err == nil {
		t.Fatalf("expected error for bool")
	}
}

func TestConvertTime(t *testing.T) {
	want := time.Date(2020, 6, 15, 8, 30, 0, 0, time.UTC)

	got, err := convertTime("2020-06-15T08:30:00Z")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !got.(time.Time).Equal(want) {
		t.Fatalf("want %v, got %v", want, got)
	}

	same, err := convertTime(want)
	if err != nil || !same.(time.Time).Equal(want) {
		t.Fatalf("time values must pass through: %v, %v", same, err)
	}

	if _, err := convertTime("yesterday"); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := convertTime(42); err == nil {
		t.Fatalf("expected type error")
	}
}

func TestConvertDate(t *testing.T) {
	want := NewDate(1815, time.December, 10)

	got, err := convertDate("1815-12-10")
	if err != nil || got != want {
		t.Fatalf("convert: %v, %v", got, err)
	}
	same, err := convertDate(want)
	if err != nil || same != want {
		t.Fatalf("dates must pass through: %v, %v", same, err)
	}
	if _, err := convertDate(42); err == nil {
		t.Fatalf("expected type error")
	}
}

func TestConvertDecimal(t *testing.T) {
	want := decimal.RequireFromString("10.50")

	got, err := convertDecimal("10.50")
	if err != nil || !got.(decimal.Decimal).Equal(want) {
		t.Fatalf("convert: %v, %v", got, err)
	}
	// String form is preserved exactly.
	if got.(decimal.Decimal).String() != "10.50" {
		t.Fatalf("trailing zeros lost: %v", got)
	}

	fromNum, err := convertDecimal(json.Number("10.5"))
	if err != nil || !fromNum.(decimal.Decimal).Equal(want) {
		t.Fatalf("json.Number: %v, %v", fromNum, err)
	}
	fromFloat, err := convertDecimal(float64(10.5))
	if err != nil || !fromFloat.(decimal.Decimal).Equal(want) {
		t.Fatalf("float64: %v, %v", fromFloat, err)
	}
	if _, err := convertDecimal("ten"); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := convertDecimal(true); err == nil {
		t.Fatalf("expected type error")
	}
}

func TestConvertUUID(t *testing.T) {
	want := uuid.MustParse("0c9d1af6-43a0-4c8a-9d6b-90a3ab6c63e3")

	got, err := convertUUID(want.String())
	if err != nil || got != want {
		t.Fatalf("convert: %v, %v", got, err)
	}
	same, err := convertUUID(want)
	if err != nil || same != want {
		t.Fatalf("uuids must pass through: %v, %v", same, err)
	}
	if _, err := convertUUID("not-a-uuid"); err == nil {
		t.Fatalf("expected parse error")
	}
}
