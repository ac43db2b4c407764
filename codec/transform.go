package codec

import (
	"github.com/reoring/codable"
	"github.com/reoring/codable/node"
)

// Transform derives a Coercion[B] from base. decode runs after base reads a
// value; an error from it is a miss, so the field falls back to its next
// alias key or its default. encode runs before base writes.
func Transform[A, B any](base codable.Coercion[A], typ codable.Type, decode func(A) (B, error), encode func(B) (A, error)) codable.Coercion[B] {
	if typ == "" {
		typ = base.Type
	}
	return codable.Coercion[B]{
		Type: typ,
		Coerce: func(c *node.Node, key string) (B, bool) {
			var zero B
			a, ok := base.Coerce(c, key)
			if !ok {
				return zero, false
			}
			b, err := decode(a)
			if err != nil {
				return zero, false
			}
			return b, true
		},
		Encode: func(b B) (*node.Node, error) {
			a, err := encode(b)
			if err != nil {
				return nil, err
			}
			return base.Encode(a)
		},
	}
}

// Identity returns base unchanged under a different declared type name.
func Identity[T any](base codable.Coercion[T], typ codable.Type) codable.Coercion[T] {
	base.Type = typ
	return base
}
