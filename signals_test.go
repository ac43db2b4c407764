package codable_test

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/capitan"

	"github.com/reoring/codable"
	"github.com/reoring/codable/source/gojson"
)

type signalled struct {
	Age int
}

// hookEvents collects events for sig; delivery is asynchronous on the default instance.
func hookEvents(t *testing.T, sig capitan.Signal) <-chan *capitan.Event {
	t.Helper()
	ch := make(chan *capitan.Event, 16)
	l := capitan.Hook(sig, func(_ context.Context, e *capitan.Event) {
		select {
		case ch <- e.Clone():
		default:
		}
	})
	t.Cleanup(l.Close)
	return ch
}

func waitEvent(t *testing.T, ch <-chan *capitan.Event, match func(*capitan.Event) bool) *capitan.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-ch:
			if match(e) {
				return e
			}
		case <-deadline:
			t.Fatalf("no matching event delivered")
			return nil
		}
	}
}

func TestSignals_DecodeFailureCarriesError(t *testing.T) {
	events := hookEvents(t, codable.SignalDecodeComplete)
	rec := codable.NewRecord("SignalledFailure",
		codable.Field("age", codable.AsInt, func(s *signalled) *int { return &s.Age }, codable.Required()),
	)

	_, decodeErr := rec.Decode(context.Background(), mustParse(t, `{}`))
	if decodeErr == nil {
		t.Fatalf("expected missing required field to fail")
	}

	e := waitEvent(t, events, func(e *capitan.Event) bool {
		name, _ := codable.KeyRecord.From(e)
		return name == "SignalledFailure"
	})
	if e.Severity() != capitan.SeverityError {
		t.Fatalf("severity = %s, want %s", e.Severity(), capitan.SeverityError)
	}
	got, ok := codable.KeyError.From(e)
	if !ok || got == nil {
		t.Fatalf("decode event has no error field")
	}
	if got.Error() != decodeErr.Error() {
		t.Fatalf("event error = %q, want %q", got, decodeErr)
	}
	if n, _ := codable.KeyFields.From(e); n != 1 {
		t.Fatalf("fields = %d, want 1", n)
	}
}

func TestSignals_DecodeSuccessHasNoError(t *testing.T) {
	events := hookEvents(t, codable.SignalDecodeComplete)
	rec := codable.NewRecord("SignalledSuccess",
		codable.Field("age", codable.AsInt, func(s *signalled) *int { return &s.Age }, codable.Default(3)),
	)

	if _, err := rec.Decode(context.Background(), mustParse(t, `{}`)); err != nil {
		t.Fatalf("decode: %v", err)
	}

	e := waitEvent(t, events, func(e *capitan.Event) bool {
		name, _ := codable.KeyRecord.From(e)
		return name == "SignalledSuccess"
	})
	if _, ok := codable.KeyError.From(e); ok {
		t.Fatalf("successful decode carried an error field")
	}
	if n, _ := codable.KeyDefaulted.From(e); n != 1 {
		t.Fatalf("defaulted = %d, want 1", n)
	}
}

func TestSignals_DriverChangedNamesDriver(t *testing.T) {
	events := hookEvents(t, codable.SignalDriverChanged)
	t.Cleanup(codable.UseDefaultJSONDriver)

	codable.SetJSONDriver(gojson.Driver())
	waitEvent(t, events, func(e *capitan.Event) bool {
		name, _ := codable.KeyDriver.From(e)
		return name == "go-json"
	})

	codable.UseDefaultJSONDriver()
	waitEvent(t, events, func(e *capitan.Event) bool {
		name, _ := codable.KeyDriver.From(e)
		return name == "encoding/json"
	})
}

func TestSignals_NilDriverEmitsNothing(t *testing.T) {
	events := hookEvents(t, codable.SignalDriverChanged)

	codable.SetJSONDriver(nil)
	select {
	case e := <-events:
		name, _ := codable.KeyDriver.From(e)
		t.Fatalf("unexpected driver event for %q", name)
	case <-time.After(50 * time.Millisecond):
	}
}
