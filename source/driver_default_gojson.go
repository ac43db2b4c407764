// Package source switches the process-wide JSON driver to goccy/go-json when
// imported for its side effect:
//
//	import _ "github.com/reoring/codable/source"
package source

import (
	"github.com/reoring/codable"
	drvgojson "github.com/reoring/codable/source/gojson"
)

// init lives outside the root package to avoid an import cycle.
func init() { codable.SetJSONDriver(drvgojson.Driver()) }
