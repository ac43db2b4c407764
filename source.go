package codable

import (
	"context"
	"io"
	"sync"

	eng "github.com/reoring/codable/internal/engine"
	"github.com/reoring/codable/node"
	jsonsrc "github.com/reoring/codable/source/json"
)

// TokenKind enumerates JSON token kinds.
type TokenKind int

const (
	TokenBeginObject TokenKind = iota
	TokenEndObject
	TokenBeginArray
	TokenEndArray
	TokenKey
	TokenString
	TokenNumber
	TokenBool
	TokenNull
)

// Token describes a token in the input stream. Offset records the byte position
// when known (-1 otherwise).
type Token struct {
	Kind   TokenKind
	String string // key or string content
	Number string // number literal
	Bool   bool
	Offset int64
}

// Source abstracts over streaming JSON token producers.
type Source interface {
	NextToken() (Token, error)
	Location() int64 // byte offset; -1 if unknown
}

// JSONDriver converts JSON text to and from ordered trees. The default
// implementation is based on encoding/json and may be swapped with
// SetJSONDriver.
type JSONDriver interface {
	NewReader(r io.Reader) Source
	NewBytes(b []byte) Source
	Encode(n *node.Node) ([]byte, error)
	Name() string
}

var (
	jsonDriverMu      sync.RWMutex
	currentJSONDriver JSONDriver = defaultJSONDriver{}
)

// SetJSONDriver replaces the global JSON driver; nil values are ignored.
func SetJSONDriver(d JSONDriver) {
	if d == nil {
		return
	}
	jsonDriverMu.Lock()
	currentJSONDriver = d
	jsonDriverMu.Unlock()
	emitDriverChanged(context.Background(), d.Name())
}

// UseDefaultJSONDriver restores the default encoding/json-backed driver.
func UseDefaultJSONDriver() { SetJSONDriver(defaultJSONDriver{}) }

// JSONDriverName reports the driver currently in use.
func JSONDriverName() string { return getJSONDriver().Name() }

func getJSONDriver() JSONDriver {
	jsonDriverMu.RLock()
	d := currentJSONDriver
	jsonDriverMu.RUnlock()
	return d
}

type defaultJSONDriver struct{}

func (defaultJSONDriver) NewReader(r io.Reader) Source { return SourceFromEngine(jsonsrc.NewReader(r)) }
func (defaultJSONDriver) NewBytes(b []byte) Source     { return SourceFromEngine(jsonsrc.NewBytes(b)) }
func (defaultJSONDriver) Encode(n *node.Node) ([]byte, error) {
	return jsonsrc.Encode(n)
}
func (defaultJSONDriver) Name() string { return "encoding/json" }

// JSONReader wraps an io.Reader as a JSON Source.
func JSONReader(r io.Reader) Source { return getJSONDriver().NewReader(r) }

// JSONBytes wraps a byte slice as a JSON Source.
func JSONBytes(b []byte) Source { return getJSONDriver().NewBytes(b) }

// SourceFromEngine wraps an engine.TokenSource as a codable.Source.
func SourceFromEngine(inner eng.TokenSource) Source { return &engineSourceAdapter{inner: inner} }

// EnforceSource wraps s with duplicate key, depth and size enforcement.
// Non-fatal issues are forwarded to opt.OnIssue.
func EnforceSource(s Source, opt DecodeOpt) Source {
	var forward func(eng.SimpleIssue)
	if opt.OnIssue != nil {
		forward = func(si eng.SimpleIssue) {
			if si.Code == CodeDuplicateKey && opt.Strictness.OnDuplicateKey == SeverityWarn {
				opt.OnIssue(Issue{Path: si.Path, Code: si.Code, Message: si.Message, Offset: s.Location()})
			}
		}
	}
	return SourceFromEngine(eng.WrapWithEnforcement(engineTokenSource(s), eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		IssueSink:   forward,
	}))
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case SeverityWarn:
		return eng.DupWarn
	case SeverityError:
		return eng.DupError
	}
	return eng.DupIgnore
}

// engineTokenSource unwraps an adapter or bridges a foreign Source.
func engineTokenSource(s Source) eng.TokenSource {
	if ea, ok := s.(*engineSourceAdapter); ok {
		return ea.inner
	}
	return publicSourceBridge{s}
}

type engineSourceAdapter struct{ inner eng.TokenSource }

func (s *engineSourceAdapter) NextToken() (Token, error) {
	t, err := s.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	return Token{Kind: TokenKind(t.Kind), String: t.String, Number: t.Number, Bool: t.Bool, Offset: t.Offset}, nil
}
func (s *engineSourceAdapter) Location() int64 { return s.inner.Location() }

type publicSourceBridge struct{ s Source }

func (b publicSourceBridge) NextToken() (eng.Token, error) {
	t, err := b.s.NextToken()
	if err != nil {
		return eng.Token{}, err
	}
	return eng.Token{Kind: eng.Kind(t.Kind), String: t.String, Number: t.Number, Bool: t.Bool, Offset: t.Offset}, nil
}
func (b publicSourceBridge) Location() int64 { return b.s.Location() }
