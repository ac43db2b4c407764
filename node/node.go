// Package node provides the ordered tree exchanged between wire front-ends and
// the record codec.
//
// A Node is one of a closed set of kinds. Maps keep their keys unique and in
// insertion order; sequences keep element order. Numbers are stored as their
// textual literal so that integer and floating representations survive a
// round trip through any front-end.
//
// Nodes are built once per decode or encode call and are not safe for
// concurrent mutation. Concurrent reads are safe.
package node

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind enumerates node shapes.
type Kind uint8

const (
	Invalid Kind = iota
	Null
	Bool
	Number
	String
	Sequence
	Map
	Time  // native timestamp (BSON DateTime, YAML !!timestamp, msgpack ext -1)
	Bytes // native binary (BSON Binary, YAML !!binary, msgpack bin)
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Sequence:
		return "sequence"
	case Map:
		return "map"
	case Time:
		return "time"
	case Bytes:
		return "bytes"
	default:
		return "invalid"
	}
}

// indexThreshold is the map size from which Put maintains a key index.
const indexThreshold = 16

// Node is one element of an ordered value tree.
type Node struct {
	kind  Kind
	text  string // String content or Number literal
	isInt bool   // Number literal has integer form
	b     bool
	t     time.Time
	raw   []byte
	keys  []string // Map keys, parallel to items
	items []*Node  // Sequence elements or Map values
	index map[string]int
}

// NewNull returns a null node.
func NewNull() *Node { return &Node{kind: Null} }

// NewBool returns a boolean node.
func NewBool(b bool) *Node { return &Node{kind: Bool, b: b} }

// NewInt returns an integer number node.
func NewInt(i int64) *Node {
	return &Node{kind: Number, text: strconv.FormatInt(i, 10), isInt: true}
}

// NewUint returns an integer number node for values beyond the int64 range.
func NewUint(u uint64) *Node {
	return &Node{kind: Number, text: strconv.FormatUint(u, 10), isInt: true}
}

// NewFloat returns a floating number node. The literal always carries a
// fraction or exponent so it is never read back as an integer.
func NewFloat(f float64) *Node {
	return &Node{kind: Number, text: FormatFloat(f)}
}

// NewNumber returns a number node from a literal as produced by a parser.
func NewNumber(literal string) *Node {
	return &Node{kind: Number, text: literal, isInt: IsIntegerLiteral(literal)}
}

// NewString returns a string node.
func NewString(s string) *Node { return &Node{kind: String, text: s} }

// NewTime returns a native timestamp node.
func NewTime(t time.Time) *Node { return &Node{kind: Time, t: t} }

// NewBytes returns a native binary node.
func NewBytes(b []byte) *Node { return &Node{kind: Bytes, raw: b} }

// NewSequence returns a sequence node holding items in order.
func NewSequence(items ...*Node) *Node {
	return &Node{kind: Sequence, items: items}
}

// NewMap returns an empty map node.
func NewMap() *Node { return &Node{kind: Map} }

// Kind reports the node shape. A nil node is Invalid.
func (n *Node) Kind() Kind {
	if n == nil {
		return Invalid
	}
	return n.kind
}

// IsNull reports whether n is absent or null.
func (n *Node) IsNull() bool { return n == nil || n.kind == Null }

// Len returns the element count of a sequence or map and 0 otherwise.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.items)
}

// Index returns the i-th element of a sequence or the i-th value of a map.
func (n *Node) Index(i int) *Node {
	if n == nil || i < 0 || i >= len(n.items) {
		return nil
	}
	return n.items[i]
}

// Items returns the sequence elements. The slice must not be modified.
func (n *Node) Items() []*Node {
	if n == nil || n.kind != Sequence {
		return nil
	}
	return n.items
}

// Keys returns a copy of the map keys in insertion order.
func (n *Node) Keys() []string {
	if n == nil || n.kind != Map {
		return nil
	}
	return append([]string(nil), n.keys...)
}

// Get returns the value stored under key in a map node.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.kind != Map {
		return nil, false
	}
	if n.index != nil {
		i, ok := n.index[key]
		if !ok {
			return nil, false
		}
		return n.items[i], true
	}
	for i, k := range n.keys {
		if k == key {
			return n.items[i], true
		}
	}
	return nil, false
}

// Each calls fn for every map entry in order until fn returns false.
func (n *Node) Each(fn func(key string, v *Node) bool) {
	if n == nil || n.kind != Map {
		return
	}
	for i, k := range n.keys {
		if !fn(k, n.items[i]) {
			return
		}
	}
}

// Put stores v under key. An existing key keeps its position and has its
// value replaced. Put panics when n is not a map.
func (n *Node) Put(key string, v *Node) *Node {
	if n.kind != Map {
		panic("node: Put on " + n.kind.String() + " node")
	}
	if v == nil {
		v = NewNull()
	}
	if i, ok := n.position(key); ok {
		n.items[i] = v
		return n
	}
	n.keys = append(n.keys, key)
	n.items = append(n.items, v)
	if n.index != nil {
		n.index[key] = len(n.items) - 1
	} else if len(n.keys) >= indexThreshold {
		n.index = make(map[string]int, len(n.keys)*2)
		for i, k := range n.keys {
			n.index[k] = i
		}
	}
	return n
}

// Append adds v to the end of a sequence node. Append panics when n is not a
// sequence.
func (n *Node) Append(v *Node) *Node {
	if n.kind != Sequence {
		panic("node: Append on " + n.kind.String() + " node")
	}
	if v == nil {
		v = NewNull()
	}
	n.items = append(n.items, v)
	return n
}

func (n *Node) position(key string) (int, bool) {
	if n.index != nil {
		i, ok := n.index[key]
		return i, ok
	}
	for i, k := range n.keys {
		if k == key {
			return i, true
		}
	}
	return -1, false
}

// Text returns the content of a string node.
func (n *Node) Text() (string, bool) {
	if n == nil || n.kind != String {
		return "", false
	}
	return n.text, true
}

// Literal returns the textual literal of a number node.
func (n *Node) Literal() (string, bool) {
	if n == nil || n.kind != Number {
		return "", false
	}
	return n.text, true
}

// IsInteger reports whether n is a number written in integer form.
func (n *Node) IsInteger() bool { return n != nil && n.kind == Number && n.isInt }

// Int64 returns the value of an integer-form number that fits in int64.
func (n *Node) Int64() (int64, bool) {
	if !n.IsInteger() {
		return 0, false
	}
	i, err := strconv.ParseInt(n.text, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Float64 returns the value of any finite number node.
func (n *Node) Float64() (float64, bool) {
	if n == nil || n.kind != Number {
		return 0, false
	}
	f, err := strconv.ParseFloat(n.text, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Bool returns the value of a boolean node.
func (n *Node) Bool() (bool, bool) {
	if n == nil || n.kind != Bool {
		return false, false
	}
	return n.b, true
}

// Time returns the value of a native timestamp node.
func (n *Node) Time() (time.Time, bool) {
	if n == nil || n.kind != Time {
		return time.Time{}, false
	}
	return n.t, true
}

// Bytes returns the value of a native binary node.
func (n *Node) Bytes() ([]byte, bool) {
	if n == nil || n.kind != Bytes {
		return nil, false
	}
	return n.raw, true
}

// Equal reports whether a and b describe the same tree. Map comparison is
// order-sensitive.
func Equal(a, b *Node) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case Invalid, Null:
		return true
	case Bool:
		return a.b == b.b
	case Number:
		return a.text == b.text
	case String:
		return a.text == b.text
	case Time:
		return a.t.Equal(b.t)
	case Bytes:
		return string(a.raw) == string(b.raw)
	case Sequence, Map:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if a.kind == Map && a.keys[i] != b.keys[i] {
				return false
			}
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// IsIntegerLiteral reports whether a number literal has no fraction or
// exponent part.
func IsIntegerLiteral(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, ".eEnNiI")
}

// FormatFloat renders f the way JSON encoders do, keeping a fraction or an
// exponent so the literal never reads back as an integer.
func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if format == 'e' {
		// e-07 becomes e-7
		if n := len(s); n >= 4 && s[n-4] == 'e' && s[n-3] == '-' && s[n-2] == '0' {
			s = s[:n-2] + s[n-1:]
		}
		return s
	}
	if IsIntegerLiteral(s) {
		s += ".0"
	}
	return s
}
