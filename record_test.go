package codable_test

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/reoring/codable"
	"github.com/reoring/codable/node"
)

type testType int

const (
	typeAge  testType = 1
	typePost testType = 2
)

type attributed struct {
	Text string `json:"text"`
}

type testRecord struct {
	Age    int
	Type   testType
	Dic    map[string]any
	People attributed
}

func newTestRecord() *codable.Record[testRecord] {
	return codable.NewRecord("Test",
		codable.Field("age", codable.AsInt, func(t *testRecord) *int { return &t.Age }, codable.Default(0)),
		codable.Field("type", codable.AsIntEnum(typeAge, typePost), func(t *testRecord) *testType { return &t.Type }, codable.Default(typeAge)),
		codable.AnyMap("dic", func(t *testRecord) *map[string]any { return &t.Dic }),
		codable.Field("people", codable.AsGeneric[attributed](), func(t *testRecord) *attributed { return &t.People }, codable.Ignore()),
	).WithInit(func(t *testRecord) { t.People = attributed{Text: "local"} })
}

func mustParse(t *testing.T, js string) *node.Node {
	t.Helper()
	n, err := codable.ParseJSON([]byte(js))
	if err != nil {
		t.Fatalf("parse %s: %v", js, err)
	}
	return n
}

func TestRecord_DecodeMixedInput(t *testing.T) {
	rec := newTestRecord()
	in := mustParse(t, `{"age": 1, "type": 2, "dic": {"aaa": 11, "bbb": "33"}, "people": {"text": "wire"}}`)

	got, err := rec.Decode(context.Background(), in)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Age != 1 || got.Type != typePost {
		t.Fatalf("unexpected scalars: %+v", got)
	}
	want := map[string]any{"aaa": int64(11), "bbb": "33"}
	if !reflect.DeepEqual(got.Dic, want) {
		t.Fatalf("dic = %#v, want %#v", got.Dic, want)
	}
	if got.People.Text != "local" {
		t.Fatalf("ignored field read from the wire: %+v", got.People)
	}
}

func TestRecord_EnumOutsideSetFallsBackToDefault(t *testing.T) {
	got, err := newTestRecord().Decode(context.Background(), mustParse(t, `{"type": 7}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != typeAge {
		t.Fatalf("type = %d, want default %d", got.Type, typeAge)
	}
}

func TestRecord_EmptyInputEqualsDefaultValue(t *testing.T) {
	rec := newTestRecord()
	got, err := rec.Decode(context.Background(), node.NewMap())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if def := rec.DefaultValue(); !reflect.DeepEqual(got, def) {
		t.Fatalf("decode({}) = %+v, DefaultValue() = %+v", got, def)
	}
}

type aged struct{ Age int }

func agedRecord() *codable.Record[aged] {
	return codable.NewRecord("Aged",
		codable.Field("age", codable.AsInt, func(a *aged) *int { return &a.Age },
			codable.Keys("new_age", "age2"), codable.Default(99)),
	)
}

func TestRecord_AliasKeys(t *testing.T) {
	rec := agedRecord()
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"second alias only", `{"age2": 5}`, 5},
		{"neither alias", `{}`, 99},
		{"field name is not an alias", `{"age": 3}`, 99},
		{"first alias wins", `{"new_age": 1, "age2": 2}`, 1},
		{"malformed first alias falls through", `{"new_age": "abc", "age2": "7"}`, 7},
		{"null first alias falls through", `{"new_age": null, "age2": 8}`, 8},
		{"all malformed", `{"new_age": "x", "age2": true}`, 99},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := rec.Decode(context.Background(), mustParse(t, tc.in))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Age != tc.want {
				t.Fatalf("age = %d, want %d", got.Age, tc.want)
			}
		})
	}
}

func TestRecord_EncodeWritesFirstAliasOnly(t *testing.T) {
	out, err := codable.EncodeJSON(context.Background(), agedRecord(), aged{Age: 4})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != `{"new_age":4}` {
		t.Fatalf("got %s", out)
	}
}

func TestRecord_DecodeWithMeta(t *testing.T) {
	dm, err := agedRecord().DecodeWithMeta(context.Background(), mustParse(t, `{"new_age": "abc", "age2": 7}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p := dm.Presence["/new_age"]
	if p&codable.PresenceSeen == 0 || p&codable.PresenceMalformed == 0 || p&codable.PresenceAlias == 0 {
		t.Fatalf("unexpected presence %s", p)
	}
	if p&codable.PresenceDefaultApplied != 0 {
		t.Fatalf("default should not apply: %s", p)
	}
	if dm.Sources["/new_age"] != "age2" {
		t.Fatalf("source = %q", dm.Sources["/new_age"])
	}

	dm, err = agedRecord().DecodeWithMeta(context.Background(), node.NewMap())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dm.Presence["/new_age"] != codable.PresenceDefaultApplied {
		t.Fatalf("empty input presence = %s", dm.Presence["/new_age"])
	}
}

func TestRecord_IgnoredFieldNeverEncoded(t *testing.T) {
	rec := newTestRecord()
	n, err := rec.Encode(context.Background(), testRecord{Age: 2, People: attributed{Text: "x"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if slices.Contains(n.Keys(), "people") {
		t.Fatalf("ignored key written: %v", n.Keys())
	}
	if slices.Contains(rec.Keys(), "people") {
		t.Fatalf("ignored key enumerated: %v", rec.Keys())
	}
	if got := n.Keys(); !slices.Equal(got, []string{"age", "type", "dic"}) {
		t.Fatalf("keys = %v", got)
	}
}

type profile struct {
	Name *string
	Age  int
}

func profileRecord() *codable.Record[profile] {
	return codable.NewRecord("Profile",
		codable.Optional("name", codable.AsString, func(p *profile) **string { return &p.Name }),
		codable.Field("age", codable.AsInt, func(p *profile) *int { return &p.Age }),
	)
}

func TestRecord_OptionalAbsentIsOmitted(t *testing.T) {
	out, err := codable.EncodeJSON(context.Background(), profileRecord(), profile{Age: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != `{"age":1}` {
		t.Fatalf("got %s", out)
	}

	name := "ann"
	out, err = codable.EncodeJSON(context.Background(), profileRecord(), profile{Name: &name, Age: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != `{"name":"ann","age":1}` {
		t.Fatalf("got %s", out)
	}
}

func TestRecord_OptionalDecode(t *testing.T) {
	got, err := codable.DecodeJSON(context.Background(), profileRecord(), []byte(`{"name": 5, "age": "12"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != nil {
		t.Fatalf("numeric name should be a miss, got %q", *got.Name)
	}
	if got.Age != 12 {
		t.Fatalf("age = %d", got.Age)
	}
}

func TestRecord_EncodeIntoKeepsExistingKeys(t *testing.T) {
	into := node.NewMap().Put("age", node.NewInt(0)).Put("extra", node.NewBool(true))
	if err := profileRecord().EncodeInto(context.Background(), profile{Age: 9}, into); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := codable.MarshalJSON(into)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"age":9,"extra":true}` {
		t.Fatalf("got %s", out)
	}
}

func TestRecord_NotAMap(t *testing.T) {
	_, err := profileRecord().Decode(context.Background(), node.NewSequence())
	iss, ok := codable.AsIssues(err)
	if !ok || iss[0].Code != codable.CodeInvalidType {
		t.Fatalf("expected invalid_type, got %v", err)
	}
}

type strictAge struct{ Age int }

func TestRecord_Required(t *testing.T) {
	rec := codable.NewRecord("Strict",
		codable.Field("age", codable.AsInt, func(s *strictAge) *int { return &s.Age }, codable.Required()),
	)
	_, err := rec.Decode(context.Background(), node.NewMap())
	if !errors.Is(err, codable.ErrRequired) {
		t.Fatalf("expected ErrRequired, got %v", err)
	}
	iss, _ := codable.AsIssues(err)
	if iss[0].Code != codable.CodeRequired || iss[0].Path != "/age" {
		t.Fatalf("unexpected issue %+v", iss[0])
	}

	_, err = rec.Decode(context.Background(), mustParse(t, `{"age": "old"}`))
	iss, _ = codable.AsIssues(err)
	if len(iss) == 0 || iss[0].Code != codable.CodeMalformedScalar {
		t.Fatalf("expected malformed_scalar, got %v", err)
	}
}

type address struct {
	City string
	Tags []any
}

type person struct {
	Name    string
	Home    address
	Work    *address
	Details codable.Value
}

func addressRecord() *codable.Record[address] {
	return codable.NewRecord("Address",
		codable.Field("city", codable.AsString, func(a *address) *string { return &a.City }, codable.Default("nowhere")),
		codable.AnyArray("tags", func(a *address) *[]any { return &a.Tags }),
	)
}

func personRecord(opts ...codable.FieldOption) *codable.Record[person] {
	return codable.NewRecord("Person",
		codable.Field("name", codable.AsString, func(p *person) *string { return &p.Name }),
		codable.Nested("home", addressRecord(), func(p *person) *address { return &p.Home }, opts...),
		codable.OptionalNested("work", addressRecord(), func(p *person) **address { return &p.Work }),
		codable.Dynamic("details", func(p *person) *codable.Value { return &p.Details }),
	)
}

func TestRecord_Nested(t *testing.T) {
	rec := personRecord()
	got, err := rec.Decode(context.Background(), mustParse(t,
		`{"name": "a", "home": {"city": "Oslo", "tags": [1, "x"]}, "details": {"z": 1, "a": [true]}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Home.City != "Oslo" || !reflect.DeepEqual(got.Home.Tags, []any{int64(1), "x"}) {
		t.Fatalf("home = %+v", got.Home)
	}
	if got.Work != nil {
		t.Fatalf("work should be absent: %+v", got.Work)
	}
	if keys := entryKeys(got.Details); !slices.Equal(keys, []string{"z", "a"}) {
		t.Fatalf("dynamic field lost order: %v", keys)
	}

	out, err := codable.EncodeJSON(context.Background(), rec, got)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"name":"a","home":{"city":"Oslo","tags":[1,"x"]},"details":{"z":1,"a":[true]}}`
	if string(out) != want {
		t.Fatalf("got  %s\nwant %s", out, want)
	}
}

func entryKeys(v codable.Value) []string {
	var keys []string
	for _, e := range v.Entries() {
		keys = append(keys, e.Key)
	}
	return keys
}

func TestRecord_NestedNotAMapIsAMiss(t *testing.T) {
	got, err := personRecord().Decode(context.Background(), mustParse(t, `{"home": 3}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Home.City != "nowhere" || got.Home.Tags == nil {
		t.Fatalf("expected nested default, got %+v", got.Home)
	}
}

func TestRecord_NestedErrorPropagatesWithPath(t *testing.T) {
	_, err := personRecord().Decode(context.Background(), mustParse(t, `{"home": {"tags": "nope"}}`))
	iss, ok := codable.AsIssues(err)
	if !ok || iss[0].Code != codable.CodeInvalidType || iss[0].Path != "/home/tags" {
		t.Fatalf("expected invalid_type at /home/tags, got %v", err)
	}
}

func TestRecord_RequiredNested(t *testing.T) {
	_, err := personRecord(codable.Required()).Decode(context.Background(), mustParse(t, `{"name": "a"}`))
	if !errors.Is(err, codable.ErrMissingRequiredNested) {
		t.Fatalf("expected ErrMissingRequiredNested, got %v", err)
	}
	iss, _ := codable.AsIssues(err)
	if iss[0].Code != codable.CodeMissingRequiredNested || iss[0].Path != "/home" {
		t.Fatalf("unexpected issue %+v", iss[0])
	}
}

type base struct {
	ID     int
	Secret string
}

type derived struct {
	base
	Label string
}

func TestExtend_BaseFieldsFirst(t *testing.T) {
	baseRec := codable.NewRecord("Base",
		codable.Field("id", codable.AsInt, func(b *base) *int { return &b.ID }),
		codable.Field("secret", codable.AsString, func(b *base) *string { return &b.Secret }, codable.Ignore()),
	).WithInit(func(b *base) { b.Secret = "s3" })

	rec := codable.Extend("Derived", baseRec, func(d *derived) *base { return &d.base },
		codable.Field("label", codable.AsString, func(d *derived) *string { return &d.Label }),
	)
	if got := rec.Keys(); !slices.Equal(got, []string{"id", "label"}) {
		t.Fatalf("keys = %v", got)
	}
	got, err := codable.DecodeJSON(context.Background(), rec, []byte(`{"label": "x", "id": "4", "secret": "wire"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 4 || got.Label != "x" || got.Secret != "s3" {
		t.Fatalf("got %+v", got)
	}
	out, err := codable.EncodeJSON(context.Background(), rec, got)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != `{"id":4,"label":"x"}` {
		t.Fatalf("got %s", out)
	}
}

func TestRecord_Descriptor(t *testing.T) {
	d := newTestRecord().Descriptor()
	if d.Name != "Test" || len(d.Fields) != 4 {
		t.Fatalf("descriptor = %+v", d)
	}
	people := d.Fields[3]
	if !people.Ignored || people.Type != codable.TypeGeneric {
		t.Fatalf("people = %+v", people)
	}
	d.Fields[0].Keys[0] = "mutated"
	if newTestRecord().Descriptor().Fields[0].Keys[0] != "age" {
		t.Fatalf("descriptor keys are shared")
	}
}

type precision struct {
	Single float32
	Double float64
}

func TestRecord_DescriptorDistinguishesFloatWidths(t *testing.T) {
	rec := codable.NewRecord("Precision",
		codable.Field("single", codable.AsFloat32, func(p *precision) *float32 { return &p.Single }),
		codable.Field("double", codable.AsFloat64, func(p *precision) *float64 { return &p.Double }),
	)
	d := rec.Descriptor()
	if d.Fields[0].Type != codable.TypeFloat32 {
		t.Fatalf("single type = %q, want %q", d.Fields[0].Type, codable.TypeFloat32)
	}
	if d.Fields[1].Type != codable.TypeFloat {
		t.Fatalf("double type = %q, want %q", d.Fields[1].Type, codable.TypeFloat)
	}
}

type ratio struct{ R float64 }

func TestDefault_NumericConversionAndMismatch(t *testing.T) {
	rec := codable.NewRecord("Ratio",
		codable.Field("r", codable.AsFloat64, func(r *ratio) *float64 { return &r.R }, codable.Default(2)),
	)
	if got := rec.DefaultValue().R; got != 2.0 {
		t.Fatalf("default = %v", got)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for string default on float field")
		}
	}()
	codable.Field("r", codable.AsFloat64, func(r *ratio) *float64 { return &r.R }, codable.Default("two"))
}

func TestDefault_OptionalAcceptsElementType(t *testing.T) {
	rec := codable.NewRecord("Profile",
		codable.Optional("name", codable.AsString, func(p *profile) **string { return &p.Name }, codable.Default("anon")),
	)
	got := rec.DefaultValue()
	if got.Name == nil || *got.Name != "anon" {
		t.Fatalf("default name = %v", got.Name)
	}
}

func TestRecord_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := profileRecord().Decode(ctx, node.NewMap()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type bag struct {
	Attrs map[string]any
	Extra map[string]any
	List  []any
	Seq   int
}

func bagRecord() *codable.Record[bag] {
	n := 0
	return codable.NewRecord("Bag",
		codable.AnyMap("attrs", func(b *bag) *map[string]any { return &b.Attrs }, codable.Keys("attrs", "attributes")),
		codable.OptionalAnyMap("extra", func(b *bag) *map[string]any { return &b.Extra }),
		codable.OptionalAnyArray("list", func(b *bag) *[]any { return &b.List }),
		codable.Field("seq", codable.AsInt, func(b *bag) *int { return &b.Seq },
			codable.DefaultFunc(func() int { n++; return n })),
	)
}

func TestAnyMap_NullFallsThroughAndNonMapFails(t *testing.T) {
	rec := bagRecord()
	got, err := rec.Decode(context.Background(), mustParse(t, `{"attrs": null, "attributes": {"k": "v"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Attrs["k"] != "v" || got.Extra != nil || got.List != nil {
		t.Fatalf("unexpected %+v", got)
	}

	_, err = rec.Decode(context.Background(), mustParse(t, `{"attrs": [1]}`))
	iss, ok := codable.AsIssues(err)
	if !ok || iss[0].Code != codable.CodeInvalidType || iss[0].Path != "/attrs" {
		t.Fatalf("expected invalid_type at /attrs, got %v", err)
	}

	out, err := codable.EncodeJSON(context.Background(), rec, bag{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != `{"attrs":{},"seq":0}` {
		t.Fatalf("got %s", out)
	}
}

func TestDefaultFunc_FreshPerDecode(t *testing.T) {
	rec := bagRecord()
	a, _ := rec.Decode(context.Background(), node.NewMap())
	b, _ := rec.Decode(context.Background(), node.NewMap())
	if a.Seq == b.Seq {
		t.Fatalf("DefaultFunc should run per decode: %d %d", a.Seq, b.Seq)
	}
}

func TestWithInit_Chains(t *testing.T) {
	var calls []string
	rec := agedRecord().
		WithInit(func(a *aged) { calls = append(calls, "first") }).
		WithInit(func(a *aged) { calls = append(calls, "second") })
	if _, err := rec.Decode(context.Background(), node.NewMap()); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !slices.Equal(calls, []string{"first", "second"}) {
		t.Fatalf("calls = %v", calls)
	}
}
