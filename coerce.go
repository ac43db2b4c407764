package codable

import (
	"encoding/base64"
	"math"
	"net/url"
	"strconv"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"

	eng "github.com/reoring/codable/internal/engine"
	"github.com/reoring/codable/node"
	jsonsrc "github.com/reoring/codable/source/json"
)

// Type names the declared type of a record field.
type Type string

const (
	TypeInteger  Type = "integer"
	TypeFloat    Type = "float"
	TypeFloat32  Type = "float32"
	TypeString   Type = "string"
	TypeBool     Type = "boolean"
	TypeURL      Type = "url"
	TypeUUID     Type = "uuid"
	TypeTime     Type = "timestamp"
	TypeBytes    Type = "bytes"
	TypeEnum     Type = "enum"
	TypeGeneric  Type = "generic"
	TypeAnyMap   Type = "any-map"
	TypeAnyArray Type = "any-array"
	TypeDynamic  Type = "dynamic"
	TypeRecord   Type = "record"
)

// Coercion reads and writes one declared field type.
//
// Coerce looks key up in the container c and returns the value when it can
// be read as V. An absent key or an unreadable value is a miss, never an
// error. Encode writes a value back as a node; a nil node omits the key.
type Coercion[V any] struct {
	Type   Type
	Coerce func(c *node.Node, key string) (V, bool)
	Encode func(v V) (*node.Node, error)
}

var (
	AsInt = Coercion[int]{
		Type: TypeInteger,
		Coerce: func(c *node.Node, key string) (int, bool) {
			i, ok := CoerceInt(c, key)
			if !ok || i < math.MinInt || i > math.MaxInt {
				return 0, false
			}
			return int(i), true
		},
		Encode: func(v int) (*node.Node, error) { return node.NewInt(int64(v)), nil },
	}
	AsInt64 = Coercion[int64]{
		Type:   TypeInteger,
		Coerce: CoerceInt,
		Encode: func(v int64) (*node.Node, error) { return node.NewInt(v), nil },
	}
	AsFloat64 = Coercion[float64]{
		Type:   TypeFloat,
		Coerce: CoerceFloat64,
		Encode: func(v float64) (*node.Node, error) { return node.NewFloat(v), nil },
	}
	AsFloat32 = Coercion[float32]{
		Type:   TypeFloat32,
		Coerce: CoerceFloat32,
		Encode: func(v float32) (*node.Node, error) { return node.NewFloat(float64(v)), nil },
	}
	AsString = Coercion[string]{
		Type:   TypeString,
		Coerce: CoerceString,
		Encode: func(v string) (*node.Node, error) { return node.NewString(v), nil },
	}
	AsBool = Coercion[bool]{
		Type:   TypeBool,
		Coerce: CoerceBool,
		Encode: func(v bool) (*node.Node, error) { return node.NewBool(v), nil },
	}
	AsURL = Coercion[*url.URL]{
		Type:   TypeURL,
		Coerce: CoerceURL,
		Encode: func(v *url.URL) (*node.Node, error) {
			if v == nil {
				return nil, nil
			}
			return node.NewString(v.String()), nil
		},
	}
	AsUUID = Coercion[uuid.UUID]{
		Type:   TypeUUID,
		Coerce: CoerceUUID,
		Encode: func(v uuid.UUID) (*node.Node, error) { return node.NewString(v.String()), nil },
	}
	AsTime = Coercion[time.Time]{
		Type:   TypeTime,
		Coerce: CoerceTime,
		Encode: func(v time.Time) (*node.Node, error) { return node.NewFloat(unixSeconds(v)), nil },
	}
	AsBytes = Coercion[[]byte]{
		Type:   TypeBytes,
		Coerce: CoerceBytes,
		Encode: func(v []byte) (*node.Node, error) {
			return node.NewString(base64.StdEncoding.EncodeToString(v)), nil
		},
	}
)

// CoerceInt accepts an integer number, a float with no fractional part that
// fits in int64, or a string holding a base-10 integer.
func CoerceInt(c *node.Node, key string) (int64, bool) {
	n, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch n.Kind() {
	case node.Number:
		if i, ok := n.Int64(); ok {
			return i, true
		}
		f, ok := n.Float64()
		if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	case node.String:
		s, _ := n.Text()
		i, err := strconv.ParseInt(s, 10, 64)
		return i, err == nil
	}
	return 0, false
}

// CoerceFloat64 accepts any number or a string holding a float literal.
func CoerceFloat64(c *node.Node, key string) (float64, bool) {
	n, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch n.Kind() {
	case node.Number:
		return n.Float64()
	case node.String:
		s, _ := n.Text()
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

// CoerceFloat32 accepts a number within float32 range, or a string parsed as
// a float64 and narrowed.
func CoerceFloat32(c *node.Node, key string) (float32, bool) {
	n, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	if n.Kind() == node.Number {
		f, ok := n.Float64()
		if !ok || math.Abs(f) > math.MaxFloat32 {
			return 0, false
		}
		return float32(f), true
	}
	f, ok := CoerceFloat64(c, key)
	return float32(f), ok
}

// CoerceString accepts native strings only.
func CoerceString(c *node.Node, key string) (string, bool) {
	n, ok := c.Get(key)
	if !ok {
		return "", false
	}
	return n.Text()
}

// CoerceBool accepts native booleans only.
func CoerceBool(c *node.Node, key string) (bool, bool) {
	n, ok := c.Get(key)
	if !ok {
		return false, false
	}
	return n.Bool()
}

// CoerceURL accepts a non-empty string that parses as a URL.
func CoerceURL(c *node.Node, key string) (*url.URL, bool) {
	s, ok := CoerceString(c, key)
	if !ok || s == "" {
		return nil, false
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, false
	}
	return u, true
}

// CoerceUUID accepts the canonical 36 character textual form.
func CoerceUUID(c *node.Node, key string) (uuid.UUID, bool) {
	s, ok := CoerceString(c, key)
	if !ok || len(s) != 36 {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// CoerceTime accepts a native timestamp or a number of seconds since the
// Unix epoch.
func CoerceTime(c *node.Node, key string) (time.Time, bool) {
	n, ok := c.Get(key)
	if !ok {
		return time.Time{}, false
	}
	if t, ok := n.Time(); ok {
		return t, true
	}
	f, ok := n.Float64()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), true
}

// CoerceBytes accepts native binary or a standard base64 string.
func CoerceBytes(c *node.Node, key string) ([]byte, bool) {
	n, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	if b, ok := n.Bytes(); ok {
		return b, true
	}
	s, ok := n.Text()
	if !ok {
		return nil, false
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return b, true
}

// AsIntEnum reads an integer and accepts it only when it is one of valid.
// With no valid values every integer is accepted.
func AsIntEnum[E ~int | ~int8 | ~int16 | ~int32 | ~int64](valid ...E) Coercion[E] {
	return Coercion[E]{
		Type: TypeEnum,
		Coerce: func(c *node.Node, key string) (E, bool) {
			i, ok := CoerceInt(c, key)
			if !ok {
				return 0, false
			}
			e := E(i)
			if int64(e) != i || !member(valid, e) {
				return 0, false
			}
			return e, true
		},
		Encode: func(v E) (*node.Node, error) { return node.NewInt(int64(v)), nil },
	}
}

// AsStringEnum reads a string and accepts it only when it is one of valid.
// With no valid values every string is accepted.
func AsStringEnum[E ~string](valid ...E) Coercion[E] {
	return Coercion[E]{
		Type: TypeEnum,
		Coerce: func(c *node.Node, key string) (E, bool) {
			s, ok := CoerceString(c, key)
			if !ok || !member(valid, E(s)) {
				return "", false
			}
			return E(s), true
		},
		Encode: func(v E) (*node.Node, error) { return node.NewString(string(v)), nil },
	}
}

func member[E comparable](valid []E, e E) bool {
	if len(valid) == 0 {
		return true
	}
	for _, v := range valid {
		if v == e {
			return true
		}
	}
	return false
}

// AsGeneric reads any type go-json can unmarshal. The value under key is
// rendered as JSON and unmarshaled into V; any failure is a miss. Encoding
// marshals V and parses the result back into a node.
func AsGeneric[V any]() Coercion[V] {
	return Coercion[V]{
		Type: TypeGeneric,
		Coerce: func(c *node.Node, key string) (V, bool) {
			var v V
			n, ok := c.Get(key)
			if !ok {
				return v, false
			}
			raw, err := eng.AppendJSON(nil, n, jsonsrc.Quote)
			if err != nil {
				return v, false
			}
			if err := gojson.Unmarshal(raw, &v); err != nil {
				return v, false
			}
			return v, true
		},
		Encode: func(v V) (*node.Node, error) {
			raw, err := gojson.Marshal(v)
			if err != nil {
				return nil, err
			}
			return jsonsrc.Decode(raw)
		},
	}
}
