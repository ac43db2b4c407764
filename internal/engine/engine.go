package engine

import (
	"encoding/base64"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/reoring/codable/node"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// ErrTrailingData reports input left over after the top-level value.
var ErrTrailingData = errors.New("unexpected data after top-level value")

// BuildNode reads exactly one value from src and returns it as an ordered
// tree. A repeated object key keeps its first position and its last value.
func BuildNode(src TokenSource) (*node.Node, error) {
	tok, err := src.NextToken()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	n, err := buildValue(src, tok)
	if err != nil {
		return nil, err
	}
	if _, err := src.NextToken(); err != io.EOF {
		if err != nil {
			return nil, err
		}
		return nil, ErrTrailingData
	}
	return n, nil
}

func buildValue(src TokenSource, tok Token) (*node.Node, error) {
	switch tok.Kind {
	case KindBeginObject:
		return buildObject(src)
	case KindBeginArray:
		return buildArray(src)
	case KindString:
		return node.NewString(tok.String), nil
	case KindNumber:
		return node.NewNumber(tok.Number), nil
	case KindBool:
		return node.NewBool(tok.Bool), nil
	case KindNull:
		return node.NewNull(), nil
	default:
		return nil, io.ErrUnexpectedEOF
	}
}

func buildObject(src TokenSource) (*node.Node, error) {
	m := node.NewMap()
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, unexpected(err)
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, io.ErrUnexpectedEOF
		}
		vt, err := src.NextToken()
		if err != nil {
			return nil, unexpected(err)
		}
		v, err := buildValue(src, vt)
		if err != nil {
			return nil, err
		}
		m.Put(tok.String, v)
	}
}

func buildArray(src TokenSource) (*node.Node, error) {
	seq := node.NewSequence()
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, unexpected(err)
		}
		if tok.Kind == KindEndArray {
			return seq, nil
		}
		v, err := buildValue(src, tok)
		if err != nil {
			return nil, err
		}
		seq.Append(v)
	}
}

func isEOF(err error) bool { return err == io.EOF }

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// QuoteFunc renders s as a JSON string literal.
type QuoteFunc func(s string) ([]byte, error)

// ErrNonFinite reports a NaN or infinite number that JSON cannot carry.
var ErrNonFinite = errors.New("number is not representable in JSON")

// AppendJSON appends the JSON text of n to dst. Native timestamps are written
// as seconds since the Unix epoch and native binary as base64 strings.
func AppendJSON(dst []byte, n *node.Node, quote QuoteFunc) ([]byte, error) {
	switch n.Kind() {
	case node.Invalid, node.Null:
		return append(dst, "null"...), nil
	case node.Bool:
		b, _ := n.Bool()
		return strconv.AppendBool(dst, b), nil
	case node.Number:
		lit, _ := n.Literal()
		if strings.ContainsAny(lit, "nNiI") {
			return nil, ErrNonFinite
		}
		return append(dst, lit...), nil
	case node.String:
		s, _ := n.Text()
		return appendQuoted(dst, s, quote)
	case node.Time:
		t, _ := n.Time()
		secs := float64(t.UnixNano()) / 1e9
		return append(dst, node.FormatFloat(secs)...), nil
	case node.Bytes:
		b, _ := n.Bytes()
		return appendQuoted(dst, base64.StdEncoding.EncodeToString(b), quote)
	case node.Sequence:
		dst = append(dst, '[')
		for i, it := range n.Items() {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = AppendJSON(dst, it, quote); err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case node.Map:
		dst = append(dst, '{')
		var err error
		first := true
		n.Each(func(k string, v *node.Node) bool {
			if !first {
				dst = append(dst, ',')
			}
			first = false
			if dst, err = appendQuoted(dst, k, quote); err != nil {
				return false
			}
			dst = append(dst, ':')
			dst, err = AppendJSON(dst, v, quote)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		return append(dst, '}'), nil
	}
	return dst, nil
}

func appendQuoted(dst []byte, s string, quote QuoteFunc) ([]byte, error) {
	q, err := quote(s)
	if err != nil {
		return nil, err
	}
	return append(dst, q...), nil
}
