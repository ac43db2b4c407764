package codable

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for codec events.
var (
	SignalRecordCreated  = capitan.NewSignal("codable.record.created", "Record codec built")
	SignalDecodeComplete = capitan.NewSignal("codable.decode.complete", "Record decode finished")
	SignalEncodeComplete = capitan.NewSignal("codable.encode.complete", "Record encode finished")
	SignalDriverChanged  = capitan.NewSignal("codable.driver.changed", "JSON driver replaced")
)

// Keys for typed event data.
var (
	KeyRecord    = capitan.NewStringKey("record")
	KeyFields    = capitan.NewIntKey("fields")
	KeyDefaulted = capitan.NewIntKey("defaulted")
	KeyDriver    = capitan.NewStringKey("driver")
	KeyDuration  = capitan.NewDurationKey("duration")
	KeyError     = capitan.NewErrorKey("error")
)

func emitRecordCreated(ctx context.Context, record string, fields int) {
	capitan.Emit(ctx, SignalRecordCreated,
		KeyRecord.Field(record),
		KeyFields.Field(fields),
	)
}

// emitDecodeComplete reports a top-level decode; nested records do not emit.
func emitDecodeComplete(ctx context.Context, record string, fields, defaulted int, duration time.Duration, err error) {
	data := []capitan.Field{
		KeyRecord.Field(record),
		KeyFields.Field(fields),
		KeyDefaulted.Field(defaulted),
		KeyDuration.Field(duration),
	}
	if err != nil {
		data = append(data, KeyError.Field(err))
		capitan.Error(ctx, SignalDecodeComplete, data...)
		return
	}
	capitan.Emit(ctx, SignalDecodeComplete, data...)
}

func emitEncodeComplete(ctx context.Context, record string, fields int, duration time.Duration, err error) {
	data := []capitan.Field{
		KeyRecord.Field(record),
		KeyFields.Field(fields),
		KeyDuration.Field(duration),
	}
	if err != nil {
		data = append(data, KeyError.Field(err))
		capitan.Error(ctx, SignalEncodeComplete, data...)
		return
	}
	capitan.Emit(ctx, SignalEncodeComplete, data...)
}

func emitDriverChanged(ctx context.Context, driver string) {
	capitan.Emit(ctx, SignalDriverChanged, KeyDriver.Field(driver))
}
