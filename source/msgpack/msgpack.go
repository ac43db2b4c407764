// Package msgpack is the MessagePack front-end built on
// github.com/vmihailenco/msgpack/v5. Maps are read entry by entry so key
// order survives; timestamps (ext -1) and bin values map to native nodes.
package msgpack

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/reoring/codable/node"
)

const maxDepth = 10000

var (
	// ErrNonStringKey reports a map key that is not a string.
	ErrNonStringKey = errors.New("msgpack: map key is not a string")
	// ErrTrailingData reports bytes left after the first value.
	ErrTrailingData = errors.New("msgpack: unexpected data after value")
)

// Decode reads exactly one MessagePack value from b.
func Decode(b []byte) (*node.Node, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	n, err := decodeNode(dec, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.PeekCode(); err != io.EOF {
		if err != nil {
			return nil, err
		}
		return nil, ErrTrailingData
	}
	return n, nil
}

func decodeNode(dec *msgpack.Decoder, depth int) (*node.Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("msgpack: nesting deeper than %d", maxDepth)
	}
	c, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	switch {
	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		return decodeMap(dec, depth)
	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		size, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		seq := node.NewSequence()
		for i := 0; i < size; i++ {
			it, err := decodeNode(dec, depth+1)
			if err != nil {
				return nil, err
			}
			seq.Append(it)
		}
		return seq, nil
	}
	v, err := dec.DecodeInterface()
	if err != nil {
		return nil, err
	}
	return scalar(v)
}

func decodeMap(dec *msgpack.Decoder, depth int) (*node.Node, error) {
	size, err := dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	m := node.NewMap()
	for i := 0; i < size; i++ {
		k, err := dec.DecodeInterface()
		if err != nil {
			return nil, err
		}
		key, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrNonStringKey, k)
		}
		v, err := decodeNode(dec, depth+1)
		if err != nil {
			return nil, err
		}
		m.Put(key, v)
	}
	return m, nil
}

func scalar(v any) (*node.Node, error) {
	switch x := v.(type) {
	case nil:
		return node.NewNull(), nil
	case bool:
		return node.NewBool(x), nil
	case int8:
		return node.NewInt(int64(x)), nil
	case int16:
		return node.NewInt(int64(x)), nil
	case int32:
		return node.NewInt(int64(x)), nil
	case int64:
		return node.NewInt(x), nil
	case uint8:
		return node.NewInt(int64(x)), nil
	case uint16:
		return node.NewInt(int64(x)), nil
	case uint32:
		return node.NewInt(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return node.NewUint(x), nil
		}
		return node.NewInt(int64(x)), nil
	case float32:
		return node.NewFloat(float64(x)), nil
	case float64:
		return node.NewFloat(x), nil
	case string:
		return node.NewString(x), nil
	case []byte:
		return node.NewBytes(x), nil
	case time.Time:
		return node.NewTime(x), nil
	}
	return nil, fmt.Errorf("msgpack: unsupported value of type %T", v)
}

// Encode renders n as MessagePack. Map entries are written in order.
func Encode(n *node.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encodeNode(enc, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeNode(enc *msgpack.Encoder, n *node.Node) error {
	switch n.Kind() {
	case node.Invalid, node.Null:
		return enc.EncodeNil()
	case node.Bool:
		b, _ := n.Bool()
		return enc.EncodeBool(b)
	case node.Number:
		if i, ok := n.Int64(); ok {
			return enc.EncodeInt(i)
		}
		if n.IsInteger() {
			lit, _ := n.Literal()
			if u, err := strconv.ParseUint(lit, 10, 64); err == nil {
				return enc.EncodeUint(u)
			}
		}
		f, ok := n.Float64()
		if !ok {
			lit, _ := n.Literal()
			return fmt.Errorf("msgpack: number %q out of range", lit)
		}
		return enc.EncodeFloat64(f)
	case node.String:
		s, _ := n.Text()
		return enc.EncodeString(s)
	case node.Time:
		t, _ := n.Time()
		return enc.EncodeTime(t)
	case node.Bytes:
		b, _ := n.Bytes()
		return enc.EncodeBytes(b)
	case node.Sequence:
		if err := enc.EncodeArrayLen(n.Len()); err != nil {
			return err
		}
		for _, it := range n.Items() {
			if err := encodeNode(enc, it); err != nil {
				return err
			}
		}
		return nil
	case node.Map:
		if err := enc.EncodeMapLen(n.Len()); err != nil {
			return err
		}
		var err error
		n.Each(func(k string, v *node.Node) bool {
			if err = enc.EncodeString(k); err != nil {
				return false
			}
			err = encodeNode(enc, v)
			return err == nil
		})
		return err
	}
	return fmt.Errorf("msgpack: cannot encode %s node", n.Kind())
}
