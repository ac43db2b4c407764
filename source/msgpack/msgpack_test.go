package msgpack

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/reoring/codable/node"
)

func TestRoundTrip_KeepsOrderAndNativeKinds(t *testing.T) {
	in := node.NewMap().
		Put("z", node.NewInt(-3)).
		Put("a", node.NewFloat(2.5)).
		Put("big", node.NewUint(math.MaxUint64)).
		Put("when", node.NewTime(time.Unix(1700000000, 0).UTC())).
		Put("raw", node.NewBytes([]byte("hi"))).
		Put("list", node.NewSequence(node.NewString("x"), node.NewNull(), node.NewBool(false)))
	b, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !node.Equal(in, out) {
		t.Fatalf("round trip changed the tree: %v", out.Keys())
	}
}

func TestDecode_FromLibraryEncoding(t *testing.T) {
	b, err := msgpack.Marshal([]any{int8(1), float32(0.5), "s"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	n, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n.Len() != 3 || !n.Index(0).IsInteger() || n.Index(1).IsInteger() {
		t.Fatalf("unexpected shape")
	}
}

func TestDecode_Errors(t *testing.T) {
	b, _ := msgpack.Marshal(map[int]int{1: 2})
	if _, err := Decode(b); !errors.Is(err, ErrNonStringKey) {
		t.Fatalf("expected ErrNonStringKey, got %v", err)
	}
	one, _ := msgpack.Marshal(1)
	if _, err := Decode(append(one, one...)); !errors.Is(err, ErrTrailingData) {
		t.Fatalf("expected ErrTrailingData, got %v", err)
	}
	if _, err := Decode(nil); err == nil {
		t.Fatalf("expected error on empty input")
	}
}
