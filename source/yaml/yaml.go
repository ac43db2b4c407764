// Package yaml is the gopkg.in/yaml.v3 front-end. Mapping order is kept,
// !!timestamp scalars become native time nodes and !!binary scalars native
// byte nodes.
package yaml

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reoring/codable/node"
)

// maxAliasDepth bounds alias expansion so recursive anchors terminate.
const maxAliasDepth = 512

// ErrNonStringKey reports a mapping key that is not a scalar.
var ErrNonStringKey = errors.New("yaml: mapping key is not a scalar")

// Decode parses the first document in b. An empty document decodes to null.
func Decode(b []byte) (*node.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return node.NewNull(), nil
	}
	return fromYAML(doc.Content[0], 0)
}

func fromYAML(y *yaml.Node, depth int) (*node.Node, error) {
	if depth > maxAliasDepth {
		return nil, fmt.Errorf("yaml: nesting deeper than %d at line %d", maxAliasDepth, y.Line)
	}
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return node.NewNull(), nil
		}
		return fromYAML(y.Content[0], depth+1)
	case yaml.AliasNode:
		return fromYAML(y.Alias, depth+1)
	case yaml.SequenceNode:
		seq := node.NewSequence()
		for _, c := range y.Content {
			n, err := fromYAML(c, depth+1)
			if err != nil {
				return nil, err
			}
			seq.Append(n)
		}
		return seq, nil
	case yaml.MappingNode:
		m := node.NewMap()
		for i := 0; i+1 < len(y.Content); i += 2 {
			k := y.Content[i]
			for k.Kind == yaml.AliasNode {
				k = k.Alias
			}
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w (line %d)", ErrNonStringKey, k.Line)
			}
			v, err := fromYAML(y.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			m.Put(k.Value, v)
		}
		return m, nil
	case yaml.ScalarNode:
		return scalar(y)
	}
	return nil, fmt.Errorf("yaml: unsupported node kind %d at line %d", y.Kind, y.Line)
}

func scalar(y *yaml.Node) (*node.Node, error) {
	switch y.ShortTag() {
	case "!!null":
		return node.NewNull(), nil
	case "!!bool":
		var b bool
		if err := y.Decode(&b); err != nil {
			return nil, err
		}
		return node.NewBool(b), nil
	case "!!int":
		var i int64
		if err := y.Decode(&i); err == nil {
			return node.NewInt(i), nil
		}
		var u uint64
		if err := y.Decode(&u); err != nil {
			return nil, err
		}
		return node.NewUint(u), nil
	case "!!float":
		var f float64
		if err := y.Decode(&f); err != nil {
			return nil, err
		}
		return node.NewFloat(f), nil
	case "!!timestamp":
		var t time.Time
		if err := y.Decode(&t); err != nil {
			return nil, err
		}
		return node.NewTime(t), nil
	case "!!binary":
		var s string
		if err := y.Decode(&s); err != nil {
			return nil, err
		}
		return node.NewBytes([]byte(s)), nil
	}
	return node.NewString(y.Value), nil
}

// Encode renders n as a YAML document.
func Encode(n *node.Node) ([]byte, error) {
	y, err := toYAML(n)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(y)
}

func toYAML(n *node.Node) (*yaml.Node, error) {
	switch n.Kind() {
	case node.Invalid, node.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case node.Bool:
		b, _ := n.Bool()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}, nil
	case node.Number:
		lit, _ := n.Literal()
		if n.IsInteger() {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: lit}, nil
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: floatLiteral(lit)}, nil
	case node.String:
		s, _ := n.Text()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}, nil
	case node.Time:
		t, _ := n.Time()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: t.Format(time.RFC3339Nano)}, nil
	case node.Bytes:
		b, _ := n.Bytes()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: base64.StdEncoding.EncodeToString(b)}, nil
	case node.Sequence:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range n.Items() {
			c, err := toYAML(it)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, c)
		}
		return seq, nil
	case node.Map:
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		var err error
		n.Each(func(k string, v *node.Node) bool {
			var c *yaml.Node
			if c, err = toYAML(v); err != nil {
				return false
			}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, c)
			return true
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("yaml: cannot encode %s node", n.Kind())
}

// floatLiteral maps Go float spellings onto YAML's.
func floatLiteral(lit string) string {
	switch strings.ToLower(strings.TrimPrefix(lit, "+")) {
	case "nan":
		return ".nan"
	case "inf":
		return ".inf"
	case "-inf":
		return "-.inf"
	}
	return lit
}
