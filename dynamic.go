package codable

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/codable/node"
)

// scalarShape reads one node as a single Value variant.
type scalarShape func(n *node.Node) (Value, bool)

// shapes lists the attempts DecodeValue makes, in order. The first shape
// that accepts the node decides the variant. Heterogeneous sequences and
// maps are handled after this list.
var shapes = []scalarShape{
	shapeInteger,
	shapeFloat,
	shapeString,
	shapeBool,
	shapeTime,
	shapeBytes,
	homogeneous(shapeInteger),
	homogeneous(shapeFloat),
	homogeneous(shapeString),
	homogeneous(shapeBool),
}

func shapeInteger(n *node.Node) (Value, bool) {
	i, ok := n.Int64()
	if !ok {
		return Value{}, false
	}
	return Integer(i), true
}

func shapeFloat(n *node.Node) (Value, bool) {
	f, ok := n.Float64()
	if !ok {
		return Value{}, false
	}
	return Float(f), true
}

func shapeString(n *node.Node) (Value, bool) {
	s, ok := n.Text()
	if !ok {
		return Value{}, false
	}
	return String(s), true
}

func shapeBool(n *node.Node) (Value, bool) {
	b, ok := n.Bool()
	if !ok {
		return Value{}, false
	}
	return Bool(b), true
}

// shapeTime reads a native timestamp as seconds since the Unix epoch.
func shapeTime(n *node.Node) (Value, bool) {
	t, ok := n.Time()
	if !ok {
		return Value{}, false
	}
	return Float(unixSeconds(t)), true
}

// shapeBytes reads native binary as its base64 text.
func shapeBytes(n *node.Node) (Value, bool) {
	b, ok := n.Bytes()
	if !ok {
		return Value{}, false
	}
	return String(base64.StdEncoding.EncodeToString(b)), true
}

func homogeneous(elem scalarShape) scalarShape {
	return func(n *node.Node) (Value, bool) {
		if n.Kind() != node.Sequence {
			return Value{}, false
		}
		items := make([]Value, 0, n.Len())
		for _, it := range n.Items() {
			v, ok := elem(it)
			if !ok {
				return Value{}, false
			}
			items = append(items, v)
		}
		return Value{kind: ValueSequence, items: items}, true
	}
}

// DecodeValue classifies n into a Value.
//
// Null comes first. Then scalars are tried as integer, float, string and
// boolean, then homogeneous sequences of each of those, then mixed
// sequences and maps recursively. A node no step accepts fails with
// CodeUnsupportedShape at its path.
//
// EncodeValue followed by DecodeValue reproduces every Value except a
// sequence mixing Integer and Float items: integers also read as floats, so
// [1, 2.5] comes back as the float sequence [1.0, 2.5].
func DecodeValue(n *node.Node) (Value, error) { return decodeValueAt(n, "") }

func decodeValueAt(n *node.Node, path string) (Value, error) {
	if n.Kind() == node.Null {
		return Null(), nil
	}
	for _, shape := range shapes {
		if v, ok := shape(n); ok {
			return v, nil
		}
	}
	switch n.Kind() {
	case node.Sequence:
		items := make([]Value, n.Len())
		for i, it := range n.Items() {
			v, err := decodeValueAt(it, join(path, strconv.Itoa(i)))
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Value{kind: ValueSequence, items: items}, nil
	case node.Map:
		entries := make([]Entry, 0, n.Len())
		var err error
		n.Each(func(k string, c *node.Node) bool {
			var v Value
			v, err = decodeValueAt(c, join(path, k))
			entries = append(entries, Entry{Key: k, Value: v})
			return err == nil
		})
		if err != nil {
			return Value{}, err
		}
		return Value{kind: ValueMap, entries: entries}, nil
	}
	return Value{}, issueAt(path, CodeUnsupportedShape, ErrUnsupportedShape, nil)
}

// EncodeValue writes v as a node of the matching kind. Encoding cannot fail.
func EncodeValue(v Value) *node.Node {
	switch v.kind {
	case ValueInteger:
		return node.NewInt(v.i)
	case ValueFloat:
		return node.NewFloat(v.f)
	case ValueString:
		return node.NewString(v.s)
	case ValueBool:
		return node.NewBool(v.b)
	case ValueSequence:
		items := make([]*node.Node, len(v.items))
		for i, it := range v.items {
			items[i] = EncodeValue(it)
		}
		return node.NewSequence(items...)
	case ValueMap:
		m := node.NewMap()
		for _, e := range v.entries {
			m.Put(e.Key, EncodeValue(e.Value))
		}
		return m
	}
	return node.NewNull()
}

// ValueOf converts a plain Go value into a Value. Supported inputs are nil,
// booleans, strings, every integer and float width, json.Number, time.Time
// (as Unix seconds), []byte (as base64), *url.URL and uuid.UUID (as text),
// slices, maps keyed by string (in sorted key order) and Value itself.
// Anything else fails with CodeUnsupportedType.
func ValueOf(x any) (Value, error) { return valueOfAt(x, "") }

func valueOfAt(x any, path string) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case int:
		return Integer(int64(v)), nil
	case int8:
		return Integer(int64(v)), nil
	case int16:
		return Integer(int64(v)), nil
	case int32:
		return Integer(int64(v)), nil
	case int64:
		return Integer(v), nil
	case uint8:
		return Integer(int64(v)), nil
	case uint16:
		return Integer(int64(v)), nil
	case uint32:
		return Integer(int64(v)), nil
	case uint:
		return unsignedValue(uint64(v), path)
	case uint64:
		return unsignedValue(v, path)
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Integer(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return Float(f), nil
		}
	case time.Time:
		return Float(unixSeconds(v)), nil
	case []byte:
		return String(base64.StdEncoding.EncodeToString(v)), nil
	case *url.URL:
		if v == nil {
			return Null(), nil
		}
		return String(v.String()), nil
	case uuid.UUID:
		return String(v.String()), nil
	case []any:
		return sequenceOf(len(v), func(i int) any { return v[i] }, path)
	case map[string]any:
		return mapOf(v, path)
	}
	return reflectValueOf(x, path)
}

// reflectValueOf handles named scalar types by their underlying kind, and
// typed slices and string-keyed maps of any element type, such as []int or
// map[string]string.
func reflectValueOf(x any, path string) (Value, error) {
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Integer(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return unsignedValue(rv.Uint(), path)
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}
		return sequenceOf(rv.Len(), func(i int) any { return rv.Index(i).Interface() }, path)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return Null(), nil
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return mapOf(m, path)
	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
		return valueOfAt(rv.Elem().Interface(), path)
	}
	return Value{}, issueAt(path, CodeUnsupportedType, ErrUnsupportedType, map[string]string{"type": fmt.Sprintf("%T", x)})
}

func unsignedValue(u uint64, path string) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, issueAt(path, CodeUnsupportedType, ErrUnsupportedType, map[string]string{"type": "uint64"})
	}
	return Integer(int64(u)), nil
}

func sequenceOf(n int, at func(int) any, path string) (Value, error) {
	items := make([]Value, n)
	for i := 0; i < n; i++ {
		v, err := valueOfAt(at(i), join(path, strconv.Itoa(i)))
		if err != nil {
			return Value{}, err
		}
		items[i] = v
	}
	return Value{kind: ValueSequence, items: items}, nil
}

// mapOf sorts keys so the produced entry order is deterministic.
func mapOf(m map[string]any, path string) (Value, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	entries := make([]Entry, len(keys))
	for i, k := range keys {
		v, err := valueOfAt(m[k], join(path, k))
		if err != nil {
			return Value{}, err
		}
		entries[i] = Entry{Key: k, Value: v}
	}
	return Value{kind: ValueMap, entries: entries}, nil
}

// EncodeAny converts x with ValueOf and writes it as a node.
func EncodeAny(x any) (*node.Node, error) {
	v, err := ValueOf(x)
	if err != nil {
		return nil, err
	}
	return EncodeValue(v), nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
