// Package codec holds coercions layered over the base ones in codable:
// textual timestamps and caller-defined conversions.
package codec

import (
	"time"

	"github.com/reoring/codable"
	"github.com/reoring/codable/node"
)

// TimeRFC3339 reads timestamps written as RFC3339 strings and writes them
// back in canonical form (UTC, RFC3339Nano with trailing zeros trimmed).
// Native time nodes are accepted as well.
func TimeRFC3339() codable.Coercion[time.Time] {
	return codable.Coercion[time.Time]{
		Type: codable.TypeTime,
		Coerce: func(c *node.Node, key string) (time.Time, bool) {
			n, ok := c.Get(key)
			if !ok {
				return time.Time{}, false
			}
			if t, ok := n.Time(); ok {
				return t, true
			}
			s, ok := n.Text()
			if !ok {
				return time.Time{}, false
			}
			t, err := parseRFC3339(s)
			return t, err == nil
		},
		Encode: func(t time.Time) (*node.Node, error) {
			return node.NewString(formatRFC3339Canonical(t)), nil
		},
	}
}

func parseRFC3339(s string) (time.Time, error) {
	// RFC3339Nano also accepts a missing fraction.
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
