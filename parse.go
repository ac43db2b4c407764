package codable

import (
	"context"
	"io"

	eng "github.com/reoring/codable/internal/engine"
	"github.com/reoring/codable/node"
)

// ParseSource builds an ordered tree from src, applying the enforcement in
// opts. Failures are returned as Issues.
func ParseSource(src Source, opts ...DecodeOpt) (*node.Node, error) {
	opt := mergeDecodeOpts(opts)
	if opt.enforced() {
		src = EnforceSource(src, opt)
	}
	n, err := eng.BuildNode(engineTokenSource(src))
	if err != nil {
		return nil, toIssues(err)
	}
	return n, nil
}

// ParseJSON builds an ordered tree from JSON bytes with the current driver.
// MaxBytes is checked against len(data) before parsing, so it holds for
// drivers that do not report offsets.
func ParseJSON(data []byte, opts ...DecodeOpt) (*node.Node, error) {
	if limit := mergeDecodeOpts(opts).MaxBytes; limit > 0 && int64(len(data)) > limit {
		return nil, issueAt("", CodeTruncated, nil, nil)
	}
	return ParseSource(JSONBytes(data), opts...)
}

// ParseJSONReader builds an ordered tree from one JSON document in r. When
// MaxBytes is set the input is read through a limit first and anything
// longer fails with CodeTruncated.
func ParseJSONReader(r io.Reader, opts ...DecodeOpt) (*node.Node, error) {
	limit := mergeDecodeOpts(opts).MaxBytes
	if limit <= 0 {
		return ParseSource(JSONReader(r), opts...)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, toIssues(err)
	}
	return ParseJSON(data, opts...)
}

// DecodeJSON parses data and decodes it with rec.
func DecodeJSON[R any](ctx context.Context, rec *Record[R], data []byte, opts ...DecodeOpt) (R, error) {
	n, err := ParseJSON(data, opts...)
	if err != nil {
		var zero R
		return zero, err
	}
	return rec.Decode(ctx, n)
}

// DecodeJSONReader parses one JSON document from r and decodes it with rec.
func DecodeJSONReader[R any](ctx context.Context, rec *Record[R], r io.Reader, opts ...DecodeOpt) (R, error) {
	n, err := ParseJSONReader(r, opts...)
	if err != nil {
		var zero R
		return zero, err
	}
	return rec.Decode(ctx, n)
}

// DecodeFrom parses src and decodes the result with rec.
func DecodeFrom[R any](ctx context.Context, rec *Record[R], src Source, opts ...DecodeOpt) (R, error) {
	n, err := ParseSource(src, opts...)
	if err != nil {
		var zero R
		return zero, err
	}
	return rec.Decode(ctx, n)
}

// DecodeJSONWithMeta is DecodeJSON that also returns presence metadata.
func DecodeJSONWithMeta[R any](ctx context.Context, rec *Record[R], data []byte, opts ...DecodeOpt) (Decoded[R], error) {
	n, err := ParseJSON(data, opts...)
	if err != nil {
		return Decoded[R]{}, err
	}
	return rec.DecodeWithMeta(ctx, n)
}

// EncodeJSON encodes v with rec and renders it with the current driver.
func EncodeJSON[R any](ctx context.Context, rec *Record[R], v R) ([]byte, error) {
	n, err := rec.Encode(ctx, v)
	if err != nil {
		return nil, err
	}
	return MarshalJSON(n)
}

// MarshalJSON renders an ordered tree with the current driver.
func MarshalJSON(n *node.Node) ([]byte, error) {
	b, err := getJSONDriver().Encode(n)
	if err != nil {
		return nil, toIssues(err)
	}
	return b, nil
}

// DecodeValueJSON parses data and classifies it with DecodeValue.
func DecodeValueJSON(data []byte, opts ...DecodeOpt) (Value, error) {
	n, err := ParseJSON(data, opts...)
	if err != nil {
		return Value{}, err
	}
	return DecodeValue(n)
}
