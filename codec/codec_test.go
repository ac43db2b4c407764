package codec

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/reoring/codable"
	"github.com/reoring/codable/node"
)

func TestTimeRFC3339_Coerce(t *testing.T) {
	c := TimeRFC3339()
	in := node.NewMap().
		Put("s", node.NewString("2025-01-01T09:00:00+09:00")).
		Put("n", node.NewTime(time.Unix(0, 0))).
		Put("bad", node.NewString("yesterday")).
		Put("num", node.NewInt(0))

	got, ok := c.Coerce(in, "s")
	if !ok || !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %v %v", got, ok)
	}
	if _, ok := c.Coerce(in, "n"); !ok {
		t.Fatalf("native time should be accepted")
	}
	for _, k := range []string{"bad", "num", "missing"} {
		if _, ok := c.Coerce(in, k); ok {
			t.Fatalf("%s: expected a miss", k)
		}
	}
}

func TestTimeRFC3339_EncodeCanonical(t *testing.T) {
	n, err := TimeRFC3339().Encode(time.Date(2025, 1, 1, 9, 0, 0, 500000000, time.FixedZone("JST", 9*3600)))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if s, _ := n.Text(); s != "2025-01-01T00:00:00.5Z" {
		t.Fatalf("got %q", s)
	}
}

type event struct {
	At   time.Time
	Tags []string
}

func TestTransform_InRecord(t *testing.T) {
	csv := Transform(codable.AsString, "csv",
		func(s string) ([]string, error) {
			if s == "" {
				return nil, errors.New("empty")
			}
			return strings.Split(s, ","), nil
		},
		func(v []string) (string, error) { return strings.Join(v, ","), nil })

	rec := codable.NewRecord("Event",
		codable.Field("at", TimeRFC3339(), func(e *event) *time.Time { return &e.At }),
		codable.Field("tags", csv, func(e *event) *[]string { return &e.Tags }, codable.Keys("tags", "labels")),
	)
	ctx := context.Background()
	got, err := codable.DecodeJSON(ctx, rec, []byte(`{"at":"2025-01-01T00:00:00Z","tags":"","labels":"a,b"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Tags) != 2 || got.Tags[1] != "b" {
		t.Fatalf("tags = %v", got.Tags)
	}
	out, err := codable.EncodeJSON(ctx, rec, got)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != `{"at":"2025-01-01T00:00:00Z","tags":"a,b"}` {
		t.Fatalf("got %s", out)
	}
	if d := rec.Descriptor(); d.Fields[1].Type != "csv" {
		t.Fatalf("type = %s", d.Fields[1].Type)
	}
}

func TestIdentity(t *testing.T) {
	c := Identity(codable.AsString, "name")
	if c.Type != "name" || codable.AsString.Type != codable.TypeString {
		t.Fatalf("identity must copy the coercion")
	}
}
