// Package bson is the BSON front-end built on go.mongodb.org/mongo-driver.
// Documents are walked element by element so key order survives. DateTime
// and Binary map to native nodes; ObjectID and Decimal128 map to strings
// and number literals respectively.
package bson

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/reoring/codable/node"
)

// ErrNotDocument reports an attempt to encode a non-map node at the top level.
var ErrNotDocument = errors.New("bson: top-level value must be a map")

// Decode reads one BSON document.
func Decode(b []byte) (*node.Node, error) {
	raw := bson.Raw(b)
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	return document(raw, false)
}

func document(raw bson.Raw, array bool) (*node.Node, error) {
	elems, err := raw.Elements()
	if err != nil {
		return nil, err
	}
	out := node.NewMap()
	if array {
		out = node.NewSequence()
	}
	for _, e := range elems {
		v, err := value(e.Value())
		if err != nil {
			return nil, fmt.Errorf("bson: element %q: %w", e.Key(), err)
		}
		if array {
			out.Append(v)
		} else {
			out.Put(e.Key(), v)
		}
	}
	return out, nil
}

func value(rv bson.RawValue) (*node.Node, error) {
	switch rv.Type {
	case bsontype.Null, bsontype.Undefined:
		return node.NewNull(), nil
	case bsontype.Boolean:
		return node.NewBool(rv.Boolean()), nil
	case bsontype.Int32:
		return node.NewInt(int64(rv.Int32())), nil
	case bsontype.Int64:
		return node.NewInt(rv.Int64()), nil
	case bsontype.Double:
		return node.NewFloat(rv.Double()), nil
	case bsontype.Decimal128:
		return node.NewNumber(rv.Decimal128().String()), nil
	case bsontype.String:
		return node.NewString(rv.StringValue()), nil
	case bsontype.Symbol:
		return node.NewString(rv.Symbol()), nil
	case bsontype.ObjectID:
		return node.NewString(rv.ObjectID().Hex()), nil
	case bsontype.DateTime:
		return node.NewTime(rv.Time()), nil
	case bsontype.Binary:
		_, data := rv.Binary()
		return node.NewBytes(data), nil
	case bsontype.EmbeddedDocument:
		return document(rv.Document(), false)
	case bsontype.Array:
		return document(bson.Raw(rv.Value), true)
	}
	return nil, fmt.Errorf("unsupported BSON type %s", rv.Type)
}

// Encode renders a map node as a BSON document.
func Encode(n *node.Node) ([]byte, error) {
	if n.Kind() != node.Map {
		return nil, ErrNotDocument
	}
	v, err := toBSON(n)
	if err != nil {
		return nil, err
	}
	return bson.Marshal(v)
}

func toBSON(n *node.Node) (any, error) {
	switch n.Kind() {
	case node.Invalid, node.Null:
		return nil, nil
	case node.Bool:
		b, _ := n.Bool()
		return b, nil
	case node.Number:
		if i, ok := n.Int64(); ok {
			return i, nil
		}
		if n.IsInteger() {
			lit, _ := n.Literal()
			d, err := primitive.ParseDecimal128(lit)
			if err != nil {
				return nil, err
			}
			return d, nil
		}
		f, ok := n.Float64()
		if !ok {
			lit, _ := n.Literal()
			return nil, fmt.Errorf("bson: number %q out of range", lit)
		}
		return f, nil
	case node.String:
		s, _ := n.Text()
		return s, nil
	case node.Time:
		t, _ := n.Time()
		return primitive.NewDateTimeFromTime(t), nil
	case node.Bytes:
		b, _ := n.Bytes()
		return primitive.Binary{Data: b}, nil
	case node.Sequence:
		arr := make(bson.A, 0, n.Len())
		for _, it := range n.Items() {
			v, err := toBSON(it)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case node.Map:
		doc := make(bson.D, 0, n.Len())
		var err error
		n.Each(func(k string, c *node.Node) bool {
			var v any
			if v, err = toBSON(c); err != nil {
				return false
			}
			doc = append(doc, bson.E{Key: k, Value: v})
			return true
		})
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
	return nil, fmt.Errorf("bson: cannot encode %s node", n.Kind())
}
