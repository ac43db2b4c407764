package codable

import (
	"fmt"
	"reflect"

	"github.com/reoring/codable/node"
)

// FieldDescriptor describes one record field.
type FieldDescriptor struct {
	Name       string
	Type       Type
	Optional   bool
	Keys       []string // alias keys tried in order; Keys[0] is written on encode
	HasDefault bool
	Ignored    bool
	Required   bool
}

// FieldDef binds a field descriptor to an accessor on R. Values are built
// with Field, Optional, AnyMap, AnyArray, Dynamic and Nested.
type FieldDef[R any] interface {
	Descriptor() FieldDescriptor

	resolve(dc *decodeCtx, c *node.Node, path string) (any, resolution, error)
	assign(r *R, v any)
	encode(r *R, into *node.Node, path string) error
	defaultValue() any
	local(r *R)
}

// FieldOption configures a field at construction time.
type FieldOption interface{ apply(*fieldConfig) }

type optionFunc func(*fieldConfig)

func (f optionFunc) apply(c *fieldConfig) { f(c) }

type fieldConfig struct {
	keys     []string
	def      func() any
	ignore   bool
	required bool
}

// Keys replaces the alias keys of a field. Decoding tries them in order and
// encoding writes the first.
func Keys(keys ...string) FieldOption {
	return optionFunc(func(c *fieldConfig) { c.keys = append([]string(nil), keys...) })
}

// Default sets the value used when no alias key resolves. Numeric defaults
// are converted to the field's numeric type; any other type mismatch panics
// when the field is built. Mutable defaults such as maps are shared; use
// DefaultFunc for a fresh value per decode.
func Default(v any) FieldOption {
	return optionFunc(func(c *fieldConfig) { c.def = func() any { return v } })
}

// DefaultFunc sets a function producing the default value.
func DefaultFunc[V any](fn func() V) FieldOption {
	return optionFunc(func(c *fieldConfig) { c.def = func() any { return fn() } })
}

// Ignore excludes a field from the wire. It keeps its local default: the
// Default option when given, otherwise whatever the record initializer sets.
func Ignore() FieldOption { return optionFunc(func(c *fieldConfig) { c.ignore = true }) }

// Required makes decoding fail when no alias key resolves, instead of
// falling back to the default.
func Required() FieldOption { return optionFunc(func(c *fieldConfig) { c.required = true }) }

func buildConfig(name string, opts []FieldOption) fieldConfig {
	var cfg fieldConfig
	for _, o := range opts {
		if o != nil {
			o.apply(&cfg)
		}
	}
	if len(cfg.keys) == 0 {
		cfg.keys = []string{name}
	}
	return cfg
}

// readFunc reads the value under key. ok=false is a miss.
type readFunc[V any] func(dc *decodeCtx, c *node.Node, key, path string) (v V, ok bool, err error)

// writeFunc renders a value. A nil node omits the key.
type writeFunc[V any] func(v V, path string) (*node.Node, error)

type field[R, V any] struct {
	desc    FieldDescriptor
	get     func(*R) *V
	read    readFunc[V]
	write   writeFunc[V]
	def     func() V
	missing string // issue code when a required field does not resolve
}

func newField[R, V any](name string, typ Type, optional bool, get func(*R) *V, read readFunc[V], write writeFunc[V], zero func() V, opts []FieldOption) *field[R, V] {
	if name == "" {
		panic("codable: field name must not be empty")
	}
	if get == nil {
		panic(fmt.Sprintf("codable: field %q has no accessor", name))
	}
	cfg := buildConfig(name, opts)
	f := &field[R, V]{
		desc: FieldDescriptor{
			Name:       name,
			Type:       typ,
			Optional:   optional,
			Keys:       cfg.keys,
			HasDefault: cfg.def != nil,
			Ignored:    cfg.ignore,
			Required:   cfg.required,
		},
		get:     get,
		read:    read,
		write:   write,
		def:     zero,
		missing: CodeRequired,
	}
	if cfg.def != nil {
		f.def = defaultOf[V](name, cfg.def, optional)
	}
	return f
}

// defaultOf adapts a default option to V. Optional fields accept either the
// pointer type or its element type.
func defaultOf[V any](name string, def func() any, optional bool) func() V {
	target := reflect.TypeFor[V]()
	convert := func(x any) V {
		if v, ok := x.(V); ok {
			return v
		}
		if x == nil && nillable(target.Kind()) {
			var zero V
			return zero
		}
		rv := reflect.ValueOf(x)
		if x != nil {
			if optional && target.Kind() == reflect.Pointer {
				if ev, ok := convertValue(rv, target.Elem()); ok {
					p := reflect.New(target.Elem())
					p.Elem().Set(ev)
					return p.Interface().(V)
				}
			} else if cv, ok := convertValue(rv, target); ok {
				return cv.Interface().(V)
			}
		}
		panic(fmt.Sprintf("codable: default for field %q has type %T, want %v", name, x, target))
	}
	convert(def())
	return func() V { return convert(def()) }
}

func convertValue(rv reflect.Value, to reflect.Type) (reflect.Value, bool) {
	if rv.Type().AssignableTo(to) {
		return rv, true
	}
	if isNumeric(rv.Kind()) && isNumeric(to.Kind()) && rv.Type().ConvertibleTo(to) {
		return rv.Convert(to), true
	}
	return reflect.Value{}, false
}

func nillable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

func (f *field[R, V]) Descriptor() FieldDescriptor {
	d := f.desc
	d.Keys = append([]string(nil), f.desc.Keys...)
	return d
}

// resolve tries each alias key in order. The first key that reads wins;
// when none does the default applies, unless the field is required.
func (f *field[R, V]) resolve(dc *decodeCtx, c *node.Node, path string) (any, resolution, error) {
	var res resolution
	for i, key := range f.desc.Keys {
		n, present := c.Get(key)
		if !present {
			continue
		}
		res.seen = true
		if n.IsNull() {
			res.wasNull = true
		}
		v, ok, err := f.read(dc, c, key, join(path, key))
		if err != nil {
			return nil, res, err
		}
		if ok {
			res.key = key
			res.alias = i > 0
			return v, res, nil
		}
		if !n.IsNull() {
			res.malformed = true
		}
	}
	if f.desc.Required {
		code, cause := f.missing, error(ErrRequired)
		if code == CodeMissingRequiredNested {
			cause = ErrMissingRequiredNested
		}
		if res.malformed && code == CodeRequired {
			code = CodeMalformedScalar
		}
		return nil, res, issueAt(join(path, f.desc.Keys[0]), code, cause, map[string]string{
			"key":  f.desc.Keys[0],
			"type": string(f.desc.Type),
		})
	}
	res.defaulted = true
	return f.def(), res, nil
}

func (f *field[R, V]) assign(r *R, v any) { *f.get(r) = v.(V) }

func (f *field[R, V]) defaultValue() any { return f.def() }

func (f *field[R, V]) local(r *R) {
	if f.desc.HasDefault {
		*f.get(r) = f.def()
	}
}

func (f *field[R, V]) encode(r *R, into *node.Node, path string) error {
	key := f.desc.Keys[0]
	p := join(path, key)
	n, err := f.write(*f.get(r), p)
	if err != nil {
		if _, ok := AsIssues(err); ok {
			return err
		}
		return Issues{{Path: p, Code: CodeUnsupportedType, Message: err.Error(), Cause: err}}
	}
	if n != nil {
		into.Put(key, n)
	}
	return nil
}

func zeroOf[V any]() V {
	var v V
	return v
}

// Field declares a non-optional field read and written through co. A field
// that does not resolve takes its Default, or the zero value of V.
func Field[R, V any](name string, co Coercion[V], get func(*R) *V, opts ...FieldOption) FieldDef[R] {
	read := func(_ *decodeCtx, c *node.Node, key, _ string) (V, bool, error) {
		v, ok := co.Coerce(c, key)
		return v, ok, nil
	}
	write := func(v V, _ string) (*node.Node, error) { return co.Encode(v) }
	return newField(name, co.Type, false, get, read, write, zeroOf[V], opts)
}

// Optional declares a field whose absence is represented by a nil pointer.
// A nil value omits the key on encode.
func Optional[R, V any](name string, co Coercion[V], get func(*R) **V, opts ...FieldOption) FieldDef[R] {
	read := func(_ *decodeCtx, c *node.Node, key, _ string) (*V, bool, error) {
		v, ok := co.Coerce(c, key)
		if !ok {
			return nil, false, nil
		}
		return &v, true, nil
	}
	write := func(v *V, _ string) (*node.Node, error) {
		if v == nil {
			return nil, nil
		}
		return co.Encode(*v)
	}
	return newField(name, co.Type, true, get, read, write, zeroOf[*V], opts)
}

// AnyMap declares a field holding an untyped map. The first alias key
// holding a non-null value must be a map; its entries are classified with
// DecodeValue and unwrapped to plain Go values. An absent field becomes its
// Default or an empty map.
func AnyMap[R any](name string, get func(*R) *map[string]any, opts ...FieldOption) FieldDef[R] {
	return newField(name, TypeAnyMap, false, get, readAnyMap, writeAnyMap(false),
		func() map[string]any { return map[string]any{} }, opts)
}

// OptionalAnyMap is AnyMap with nil for absence. A nil map omits the key.
func OptionalAnyMap[R any](name string, get func(*R) *map[string]any, opts ...FieldOption) FieldDef[R] {
	return newField(name, TypeAnyMap, true, get, readAnyMap, writeAnyMap(true), zeroOf[map[string]any], opts)
}

func readAnyMap(_ *decodeCtx, c *node.Node, key, path string) (map[string]any, bool, error) {
	n, _ := c.Get(key)
	if n.IsNull() {
		return nil, false, nil
	}
	if n.Kind() != node.Map {
		return nil, false, issueAt(path, CodeInvalidType, nil, map[string]string{"expected": "map"})
	}
	v, err := decodeValueAt(n, path)
	if err != nil {
		return nil, false, err
	}
	return v.Interface().(map[string]any), true, nil
}

func writeAnyMap(optional bool) writeFunc[map[string]any] {
	return func(m map[string]any, path string) (*node.Node, error) {
		if m == nil {
			if optional {
				return nil, nil
			}
			return node.NewMap(), nil
		}
		v, err := mapOf(m, path)
		if err != nil {
			return nil, err
		}
		return EncodeValue(v), nil
	}
}

// AnyArray declares a field holding an untyped sequence. It follows the
// same rules as AnyMap with a sequence in place of a map.
func AnyArray[R any](name string, get func(*R) *[]any, opts ...FieldOption) FieldDef[R] {
	return newField(name, TypeAnyArray, false, get, readAnyArray, writeAnyArray(false),
		func() []any { return []any{} }, opts)
}

// OptionalAnyArray is AnyArray with nil for absence. A nil slice omits the key.
func OptionalAnyArray[R any](name string, get func(*R) *[]any, opts ...FieldOption) FieldDef[R] {
	return newField(name, TypeAnyArray, true, get, readAnyArray, writeAnyArray(true), zeroOf[[]any], opts)
}

func readAnyArray(_ *decodeCtx, c *node.Node, key, path string) ([]any, bool, error) {
	n, _ := c.Get(key)
	if n.IsNull() {
		return nil, false, nil
	}
	if n.Kind() != node.Sequence {
		return nil, false, issueAt(path, CodeInvalidType, nil, map[string]string{"expected": "sequence"})
	}
	v, err := decodeValueAt(n, path)
	if err != nil {
		return nil, false, err
	}
	return v.Interface().([]any), true, nil
}

func writeAnyArray(optional bool) writeFunc[[]any] {
	return func(s []any, path string) (*node.Node, error) {
		if s == nil {
			if optional {
				return nil, nil
			}
			return node.NewSequence(), nil
		}
		v, err := sequenceOf(len(s), func(i int) any { return s[i] }, path)
		if err != nil {
			return nil, err
		}
		return EncodeValue(v), nil
	}
}

// Dynamic declares a field holding a Value, which keeps map order and the
// exact variant of every element. A present key, null included, always
// resolves; an unrepresentable subtree is an error.
func Dynamic[R any](name string, get func(*R) *Value, opts ...FieldOption) FieldDef[R] {
	read := func(_ *decodeCtx, c *node.Node, key, path string) (Value, bool, error) {
		n, _ := c.Get(key)
		v, err := decodeValueAt(n, path)
		if err != nil {
			return Value{}, false, err
		}
		return v, true, nil
	}
	write := func(v Value, _ string) (*node.Node, error) { return EncodeValue(v), nil }
	return newField(name, TypeDynamic, false, get, read, write, Null, opts)
}

// Nested declares a field holding another record. A present value that is
// not a map is a miss; errors inside the nested record propagate. An absent
// field takes its Default or the nested record's DefaultValue.
func Nested[R, N any](name string, rec *Record[N], get func(*R) *N, opts ...FieldOption) FieldDef[R] {
	f := newField(name, TypeRecord, false, get, nestedRead(rec), func(v N, path string) (*node.Node, error) {
		return rec.encodeAt(&v, path)
	}, rec.DefaultValue, opts)
	f.missing = CodeMissingRequiredNested
	return f
}

// OptionalNested is Nested with nil for absence. A nil value omits the key.
func OptionalNested[R, N any](name string, rec *Record[N], get func(*R) **N, opts ...FieldOption) FieldDef[R] {
	inner := nestedRead(rec)
	read := func(dc *decodeCtx, c *node.Node, key, path string) (*N, bool, error) {
		v, ok, err := inner(dc, c, key, path)
		if !ok || err != nil {
			return nil, ok, err
		}
		return &v, true, nil
	}
	write := func(v *N, path string) (*node.Node, error) {
		if v == nil {
			return nil, nil
		}
		return rec.encodeAt(v, path)
	}
	f := newField(name, TypeRecord, true, get, read, write, zeroOf[*N], opts)
	f.missing = CodeMissingRequiredNested
	return f
}

func nestedRead[N any](rec *Record[N]) readFunc[N] {
	return func(dc *decodeCtx, c *node.Node, key, path string) (N, bool, error) {
		var zero N
		n, _ := c.Get(key)
		if n.Kind() != node.Map {
			return zero, false, nil
		}
		v, err := rec.decodeAt(dc, n, path)
		if err != nil {
			return zero, false, err
		}
		return v, true, nil
	}
}

// projected exposes a field of a base record B through a derived record R.
type projected[R, B any] struct {
	inner   FieldDef[B]
	project func(*R) *B
}

func (p projected[R, B]) Descriptor() FieldDescriptor { return p.inner.Descriptor() }

func (p projected[R, B]) resolve(dc *decodeCtx, c *node.Node, path string) (any, resolution, error) {
	return p.inner.resolve(dc, c, path)
}

func (p projected[R, B]) assign(r *R, v any)  { p.inner.assign(p.project(r), v) }
func (p projected[R, B]) defaultValue() any { return p.inner.defaultValue() }
func (p projected[R, B]) local(r *R)         { p.inner.local(p.project(r)) }

func (p projected[R, B]) encode(r *R, into *node.Node, path string) error {
	return p.inner.encode(p.project(r), into, path)
}
