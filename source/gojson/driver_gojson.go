// Package gojson is a JSON front-end backed by goccy/go-json. Install it as
// the process-wide driver with codable.SetJSONDriver(gojson.Driver()).
package gojson

import (
	"bytes"
	"io"

	j "github.com/goccy/go-json"

	"github.com/reoring/codable"
	eng "github.com/reoring/codable/internal/engine"
	"github.com/reoring/codable/node"
)

// Driver returns a codable.JSONDriver backed by goccy/go-json.
func Driver() codable.JSONDriver { return driverGoJSON{} }

type driverGoJSON struct{}

func (driverGoJSON) NewReader(r io.Reader) codable.Source {
	return codable.SourceFromEngine(NewReader(r))
}
func (driverGoJSON) NewBytes(b []byte) codable.Source {
	return codable.SourceFromEngine(NewBytes(b))
}
func (driverGoJSON) Encode(n *node.Node) ([]byte, error) { return Encode(n) }
func (driverGoJSON) Name() string                        { return "go-json" }

// Decode parses one JSON document into an ordered tree.
func Decode(b []byte) (*node.Node, error) { return eng.BuildNode(NewBytes(b)) }

// Encode renders n as compact JSON. HTML characters are left as is.
func Encode(n *node.Node) ([]byte, error) {
	return eng.AppendJSON(nil, n, func(s string) ([]byte, error) { return j.MarshalNoEscape(s) })
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

type source struct {
	dec   *j.Decoder
	stack []frame
}

// NewReader wraps an io.Reader into an engine.TokenSource using go-json.
// Offsets are not tracked, so byte limits cannot be enforced on this source.
func NewReader(r io.Reader) eng.TokenSource {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &source{dec: dec}
}

// NewBytes wraps a byte slice into an engine.TokenSource using go-json.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *source) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		if err == io.EOF && len(s.stack) > 0 {
			err = io.ErrUnexpectedEOF
		}
		return eng.Token{}, err
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return eng.Token{Kind: eng.KindBeginObject, Offset: -1}, nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return eng.Token{Kind: eng.KindBeginArray, Offset: -1}, nil
		case '}':
			s.pop()
			return eng.Token{Kind: eng.KindEndObject, Offset: -1}, nil
		case ']':
			s.pop()
			return eng.Token{Kind: eng.KindEndArray, Offset: -1}, nil
		}
	case string:
		if n := len(s.stack); n > 0 {
			top := &s.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				top.expectingKey = false
				return eng.Token{Kind: eng.KindKey, String: v, Offset: -1}, nil
			}
		}
		s.valueDone()
		return eng.Token{Kind: eng.KindString, String: v, Offset: -1}, nil
	case bool:
		s.valueDone()
		return eng.Token{Kind: eng.KindBool, Bool: v, Offset: -1}, nil
	case j.Number:
		s.valueDone()
		return eng.Token{Kind: eng.KindNumber, Number: string(v), Offset: -1}, nil
	}
	s.valueDone()
	return eng.Token{Kind: eng.KindNull, Offset: -1}, nil
}

func (s *source) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	s.valueDone()
}

func (s *source) valueDone() {
	if n := len(s.stack); n > 0 {
		top := &s.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
		}
	}
}

func (s *source) Location() int64 { return -1 }
