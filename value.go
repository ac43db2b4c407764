package codable

import (
	"strconv"
	"strings"

	"github.com/reoring/codable/node"
)

// ValueKind enumerates the variants of a dynamic Value.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueInteger
	ValueFloat
	ValueString
	ValueBool
	ValueSequence
	ValueMap
)

func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueInteger:
		return "integer"
	case ValueFloat:
		return "float"
	case ValueString:
		return "string"
	case ValueBool:
		return "bool"
	case ValueSequence:
		return "sequence"
	case ValueMap:
		return "map"
	}
	return "ValueKind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a self-describing dynamic value. The zero Value is Null.
//
// Values are immutable once built; accessors return copies of composite
// contents.
type Value struct {
	kind    ValueKind
	i       int64
	f       float64
	s       string
	b       bool
	items   []Value
	entries []Entry
}

// Entry is one key/value pair of a Map value.
type Entry struct {
	Key   string
	Value Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Integer returns an integer value.
func Integer(i int64) Value { return Value{kind: ValueInteger, i: i} }

// Float returns a floating value.
func Float(f float64) Value { return Value{kind: ValueFloat, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: ValueString, s: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: ValueBool, b: b} }

// Sequence returns an ordered sequence value.
func Sequence(items ...Value) Value {
	return Value{kind: ValueSequence, items: append([]Value{}, items...)}
}

// Map returns a map value with entries in the given order. A repeated key
// keeps its first position and takes the later value.
func Map(entries ...Entry) Value {
	out := make([]Entry, 0, len(entries))
	pos := make(map[string]int, len(entries))
	for _, e := range entries {
		if i, ok := pos[e.Key]; ok {
			out[i].Value = e.Value
			continue
		}
		pos[e.Key] = len(out)
		out = append(out, e)
	}
	return Value{kind: ValueMap, entries: out}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == ValueNull }

func (v Value) AsInteger() (int64, bool) { return v.i, v.kind == ValueInteger }
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == ValueFloat }
func (v Value) AsString() (string, bool) { return v.s, v.kind == ValueString }
func (v Value) AsBool() (bool, bool)     { return v.b, v.kind == ValueBool }

// Len returns the element count of a sequence or map and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case ValueSequence:
		return len(v.items)
	case ValueMap:
		return len(v.entries)
	}
	return 0
}

// Items returns a copy of the sequence elements.
func (v Value) Items() []Value {
	if v.kind != ValueSequence {
		return nil
	}
	return append([]Value{}, v.items...)
}

// Entries returns a copy of the map entries in order.
func (v Value) Entries() []Entry {
	if v.kind != ValueMap {
		return nil
	}
	return append([]Entry{}, v.entries...)
}

// Get returns the map value stored under key.
func (v Value) Get(key string) (Value, bool) {
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Interface converts v into plain Go values: nil, int64, float64, string,
// bool, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case ValueInteger:
		return v.i
	case ValueFloat:
		return v.f
	case ValueString:
		return v.s
	case ValueBool:
		return v.b
	case ValueSequence:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.Interface()
		}
		return out
	case ValueMap:
		out := make(map[string]any, len(v.entries))
		for _, e := range v.entries {
			out[e.Key] = e.Value.Interface()
		}
		return out
	}
	return nil
}

// Equal reports structural equality. Map entries compare in order and floats
// compare by value, so NaN never equals itself.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueNull:
		return true
	case ValueInteger:
		return v.i == o.i
	case ValueFloat:
		return v.f == o.f
	case ValueString:
		return v.s == o.s
	case ValueBool:
		return v.b == o.b
	case ValueSequence:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case ValueMap:
		if len(v.entries) != len(o.entries) {
			return false
		}
		for i := range v.entries {
			if v.entries[i].Key != o.entries[i].Key || !v.entries[i].Value.Equal(o.entries[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v in a compact JSON-like form for diagnostics.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case ValueNull:
		b.WriteString("null")
	case ValueInteger:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case ValueFloat:
		b.WriteString(node.FormatFloat(v.f))
	case ValueString:
		b.WriteString(strconv.Quote(v.s))
	case ValueBool:
		b.WriteString(strconv.FormatBool(v.b))
	case ValueSequence:
		b.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				b.WriteByte(',')
			}
			it.write(b)
		}
		b.WriteByte(']')
	case ValueMap:
		b.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(e.Key))
			b.WriteByte(':')
			e.Value.write(b)
		}
		b.WriteByte('}')
	}
}
