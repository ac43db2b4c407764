//go:build gojson

package codable_test

import (
	"github.com/reoring/codable"
	drv "github.com/reoring/codable/source/gojson"
)

func init() {
	codable.SetJSONDriver(drv.Driver())
}
