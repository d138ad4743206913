package frozen

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type testAddress struct {
	ID   int64  `frozen:"id,pk"`
	Line string `frozen:"line_1"`
	Zip  string
}

func (a testAddress) Label() string {
	return a.Line + ", " + a.Zip
}

type testUser struct {
	ID       int64 `frozen:"id,pk"`
	Email    string
	FullName string
	HTTPAddr string
	JoinedAt time.Time
	Birthday Date
	Balance  decimal.Decimal
	Token    uuid.UUID
	Prefs    map[string]any
	Password string       `frozen:"-"`
	Address  *testAddress `frozen:"address,related"`

	internal string
}

func (u testUser) DisplayName() string {
	return u.FullName
}

func (u *testUser) EmailDomain() (string, error) {
	_, domain, ok := strings.Cut(u.Email, "@")
	if !ok {
		return "", fmt.Errorf("no domain in %q", u.Email)
	}
	return domain, nil
}

func testUserRecord(t *testing.T, u *testUser) *StructRecord {
	t.Helper()
	record, err := NewStructRecord("app.User", u)
	if err != nil {
		t.Fatalf("new struct record: %v", err)
	}
	return record
}

func sampleUser() *testUser {
	return &testUser{
		ID:       1,
		Email:    "ada@example.com",
		FullName: "Ada Lovelace",
		HTTPAddr: "https://example.com",
		JoinedAt: time.Date(2020, 6, 15, 8, 30, 0, 0, time.UTC),
		Birthday: NewDate(1815, time.December, 10),
		Balance:  decimal.RequireFromString("10.50"),
		Token:    uuid.MustParse("0c9d1af6-43a0-4c8a-9d6b-90a3ab6c63e3"),
		Prefs:    map[string]any{"theme": "dark"},
		Password: "secret",
		Address:  &testAddress{ID: 9, Line: "29 Acacia Road", Zip: "N12 9RT"},
		internal: "hidden",
	}
}

func TestStructRecordSchema(t *testing.T) {
	record := testUserRecord(t, sampleUser())
	schema := record.Schema()

	if schema.Identity != "app.User" {
		t.Fatalf("unexpected identity %q", schema.Identity)
	}

	wantTypes := map[string]string{
		"id":        TypeInt,
		"email":     TypeString,
		"full_name": TypeString,
		"http_addr": TypeString,
		"joined_at": TypeTime,
		"birthday":  TypeDate,
		"balance":   TypeDecimal,
		"token":     TypeUUID,
		"prefs":     TypeJSON,
	}
	for name, typeID := range wantTypes {
		field, ok := schema.Field(name)
		if !ok {
			t.Fatalf("missing field %q", name)
		}
		if field.TypeID != typeID {
			t.Fatalf("field %q: want %q, got %q", name, typeID, field.TypeID)
		}
	}

	pk, ok := schema.Primary()
	if !ok || pk.Name != "id" {
		t.Fatalf("unexpected primary key %+v", pk)
	}
	if _, ok := schema.Field("password"); ok {
		t.Fatalf("skipped field must not appear")
	}
	if _, ok := schema.Field("internal"); ok {
		t.Fatalf("unexported field must not appear")
	}

	address, ok := schema.Field("address")
	if !ok || address.Related == nil {
		t.Fatalf("missing related field")
	}
	if address.Related.Identity != "app.Address" {
		t.Fatalf("related identity must inherit the package segment, got %q", address.Related.Identity)
	}

	if !schema.HasProperty("display_name") || !schema.HasProperty("email_domain") {
		t.Fatalf("method properties missing: %v", schema.Properties)
	}
	if schema.HasProperty("label") {
		t.Fatalf("nested methods must not leak onto the parent: %v", schema.Properties)
	}
}

func TestStructRecordValues(t *testing.T) {
	user := sampleUser()
	record := testUserRecord(t, user)

	value, err := record.Value("email")
	if err != nil || value != "ada@example.com" {
		t.Fatalf("Value: %v, %v", value, err)
	}
	value, err = record.Value("balance")
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if !value.(decimal.Decimal).Equal(user.Balance) {
		t.Fatalf("unexpected balance %v", value)
	}
	value, err = record.Value("never_declared")
	if err != nil || value != nil {
		t.Fatalf("undeclared field: %v, %v", value, err)
	}
}

func TestStructRecordRelated(t *testing.T) {
	record := testUserRecord(t, sampleUser())

	nested, err := record.Related("address")
	if err != nil || nested == nil {
		t.Fatalf("Related: %v, %v", nested, err)
	}
	if nested.Schema().Identity != "app.Address" {
		t.Fatalf("unexpected nested identity %q", nested.Schema().Identity)
	}
	line, err := nested.Value("line_1")
	if err != nil || line != "29 Acacia Road" {
		t.Fatalf("nested value: %v, %v", line, err)
	}
	label, err := nested.Property("label")
	if err != nil || label != "29 Acacia Road, N12 9RT" {
		t.Fatalf("nested property: %v, %v", label, err)
	}

	user := sampleUser()
	user.Address = nil
	record = testUserRecord(t, user)
	nested, err = record.Related("address")
	if err != nil || nested != nil {
		t.Fatalf("nil relation must read as nil: %v, %v", nested, err)
	}
}

func TestStructRecordProperties(t *testing.T) {
	record := testUserRecord(t, sampleUser())

	value, err := record.Property("display_name")
	if err != nil || value != "Ada Lovelace" {
		t.Fatalf("display_name: %v, %v", value, err)
	}
	value, err = record.Property("email_domain")
	if err != nil || value != "example.com" {
		t.Fatalf("email_domain: %v, %v", value, err)
	}

	user := sampleUser()
	user.Email = "invalid"
	record = testUserRecord(t, user)
	_, err = record.Property("email_domain")
	if err == nil || !strings.Contains(err.Error(), "property app.User.email_domain") {
		t.Fatalf("expected labelled property error, got %v", err)
	}

	if _, err := record.Property("ghost"); err == nil {
		t.Fatalf("expected unknown property error")
	}
}

func TestStructRecordConstruction(t *testing.T) {
	if _, err := NewStructRecord("", sampleUser()); err == nil {
		t.Fatalf("expected identity error")
	}
	if _, err := NewStructRecord("app.User", (*testUser)(nil)); err == nil {
		t.Fatalf("expected nil pointer error")
	}
	if _, err := NewStructRecord("app.User", 42); err == nil {
		t.Fatalf("expected non-struct error")
	}

	type noPK struct {
		Email string
	}
	if _, err := NewStructRecord("app.NoPK", noPK{}); err == nil || !strings.Contains(err.Error(), "primary key") {
		t.Fatalf("expected primary key error, got %v", err)
	}

	type reserved struct {
		ID   int64 `frozen:"id,pk"`
		Meta string
	}
	if _, err := NewStructRecord("app.Reserved", reserved{}); err == nil {
		t.Fatalf("expected reserved name error")
	}

	type duplicated struct {
		ID    int64  `frozen:"id,pk"`
		Email string `frozen:"contact"`
		Other string `frozen:"contact"`
	}
	if _, err := NewStructRecord("app.Dup", duplicated{}); err == nil || !strings.Contains(err.Error(), "duplicate field") {
		t.Fatalf("expected duplicate field error, got %v", err)
	}
}

type cyclicNode struct {
	ID   int64       `frozen:"id,pk"`
	Next *cyclicNode `frozen:"next,related"`
}

func TestStructRecordRejectsCycles(t *testing.T) {
	_, err := NewStructRecord("app.Node", cyclicNode{ID: 1})
	if err == nil || !strings.Contains(err.Error(), "references itself") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestStructRecordFreezes(t *testing.T) {
	record := testUserRecord(t, sampleUser())

	payload, err := Freeze(record, Selection{
		Exclude:          []string{"prefs"},
		SelectRelated:    []string{"address"},
		SelectProperties: []string{"display_name"},
	}, freezeOpts()...)
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}

	if payload.Values["balance"] != "10.50" {
		t.Fatalf("unexpected balance wire value %v", payload.Values["balance"])
	}
	if payload.Values["display_name"] != "Ada Lovelace" {
		t.Fatalf("unexpected property %v", payload.Values["display_name"])
	}
	if _, ok := payload.Values["prefs"]; ok {
		t.Fatalf("excluded field captured")
	}
	nested, ok := payload.Values["address"].(Payload)
	if !ok {
		t.Fatalf("expected nested payload, got %T", payload.Values["address"])
	}
	if nested.Meta.Model != "app.Address" {
		t.Fatalf("unexpected nested model %q", nested.Meta.Model)
	}
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"ID":          "id",
		"Email":       "email",
		"FullName":    "full_name",
		"HTTPAddr":    "http_addr",
		"JoinedAt":    "joined_at",
		"UserID":      "user_id",
		"APIKeyValue": "api_key_value",
		"A":           "a",
	}
	for in, want := range cases {
		if got := snakeCase(in); got != want {
			t.Fatalf("snakeCase(%q): want %q, got %q", in, want, got)
		}
	}
}
