package source_test

import (
	"testing"

	"github.com/reoring/codable"
	_ "github.com/reoring/codable/source"
)

func TestImportSelectsGoJSON(t *testing.T) {
	if got := codable.JSONDriverName(); got != "go-json" {
		t.Fatalf("driver = %s, want go-json", got)
	}
	v, err := codable.DecodeValueJSON([]byte(`{"a":[1,"x"]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Kind() != codable.ValueMap || v.Len() != 1 {
		t.Fatalf("unexpected value %s", v)
	}
}
