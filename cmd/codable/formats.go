package main

import (
	"fmt"
	"slices"

	"github.com/reoring/codable"
	"github.com/reoring/codable/node"
	"github.com/reoring/codable/source/bson"
	"github.com/reoring/codable/source/msgpack"
	"github.com/reoring/codable/source/yaml"
)

type format struct {
	decode func([]byte) (*node.Node, error)
	encode func(*node.Node) ([]byte, error)
}

var formats = map[string]format{
	"yaml":    {yaml.Decode, yaml.Encode},
	"msgpack": {msgpack.Decode, msgpack.Encode},
	"bson":    {bson.Decode, bson.Encode},
}

func formatNames() []string {
	names := []string{"json"}
	for k := range formats {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// readFormat decodes data. JSON goes through the configured driver so the
// enforcement options apply; the other formats ignore opt.
func readFormat(name string, data []byte, opt codable.DecodeOpt) (*node.Node, error) {
	if name == "json" {
		return codable.ParseJSON(data, opt)
	}
	f, ok := formats[name]
	if !ok {
		return nil, fmt.Errorf("unknown format %q", name)
	}
	return f.decode(data)
}

func writeFormat(name string, n *node.Node) ([]byte, error) {
	if name == "json" {
		return codable.MarshalJSON(n)
	}
	f, ok := formats[name]
	if !ok {
		return nil, fmt.Errorf("unknown format %q", name)
	}
	return f.encode(n)
}
