package codable

import (
	"context"
	"fmt"
	"time"

	"github.com/reoring/codable/node"
)

// RecordDescriptor describes a record shape.
type RecordDescriptor struct {
	Name   string
	Fields []FieldDescriptor
}

// Record decodes and encodes values of R according to an ordered list of
// field definitions. A Record is immutable after construction and safe for
// concurrent use.
type Record[R any] struct {
	name    string
	fields  []FieldDef[R]
	ignored []bool
	init    func(*R)
}

// decodeCtx carries per-call state through nested records.
type decodeCtx struct {
	ctx       context.Context
	presence  PresenceMap
	sources   map[string]string
	defaulted int
}

// NewRecord builds a record codec from fields, in declaration order.
func NewRecord[R any](name string, fields ...FieldDef[R]) *Record[R] {
	rc := &Record[R]{name: name}
	for _, f := range fields {
		if f == nil {
			continue
		}
		rc.fields = append(rc.fields, f)
		rc.ignored = append(rc.ignored, f.Descriptor().Ignored)
	}
	emitRecordCreated(context.Background(), name, len(rc.fields))
	return rc
}

// Extend builds a record whose leading fields come from base, reached in R
// through project. The base initializer runs on the projected value before
// any initializer set on the result.
func Extend[R, B any](name string, base *Record[B], project func(*R) *B, fields ...FieldDef[R]) *Record[R] {
	all := make([]FieldDef[R], 0, len(base.fields)+len(fields))
	for _, f := range base.fields {
		all = append(all, projected[R, B]{inner: f, project: project})
	}
	rc := NewRecord(name, append(all, fields...)...)
	if base.init != nil {
		binit := base.init
		rc.init = func(r *R) { binit(project(r)) }
	}
	return rc
}

// WithInit returns a copy of rc that runs fn on every freshly constructed
// value before decoded fields are assigned. It is where ignored fields get
// their local defaults.
func (rc *Record[R]) WithInit(fn func(*R)) *Record[R] {
	cp := *rc
	if prev := rc.init; prev != nil && fn != nil {
		cp.init = func(r *R) {
			prev(r)
			fn(r)
		}
	} else if fn != nil {
		cp.init = fn
	}
	return &cp
}

func (rc *Record[R]) Name() string { return rc.name }

// Descriptor returns a copy of the record shape.
func (rc *Record[R]) Descriptor() RecordDescriptor {
	d := RecordDescriptor{Name: rc.name, Fields: make([]FieldDescriptor, len(rc.fields))}
	for i, f := range rc.fields {
		d.Fields[i] = f.Descriptor()
	}
	return d
}

// Keys enumerates every alias key of every non-ignored field, in order.
func (rc *Record[R]) Keys() []string {
	var keys []string
	for i, f := range rc.fields {
		if rc.ignored[i] {
			continue
		}
		keys = append(keys, f.Descriptor().Keys...)
	}
	return keys
}

// DefaultValue returns the value decoding an empty map would produce.
func (rc *Record[R]) DefaultValue() R {
	r := rc.fresh()
	for i, f := range rc.fields {
		if !rc.ignored[i] {
			f.assign(&r, f.defaultValue())
		}
	}
	return r
}

// fresh returns R after the initializer and ignored-field defaults.
func (rc *Record[R]) fresh() R {
	var r R
	if rc.init != nil {
		rc.init(&r)
	}
	for i, f := range rc.fields {
		if rc.ignored[i] {
			f.local(&r)
		}
	}
	return r
}

// Decode reads a value of R from the map node c.
func (rc *Record[R]) Decode(ctx context.Context, c *node.Node) (R, error) {
	v, _, err := rc.decodeTop(ctx, c, false)
	return v, err
}

// DecodeWithMeta is Decode that also reports, per field, which keys were
// seen and whether the default was applied.
func (rc *Record[R]) DecodeWithMeta(ctx context.Context, c *node.Node) (Decoded[R], error) {
	v, dc, err := rc.decodeTop(ctx, c, true)
	if err != nil {
		return Decoded[R]{}, err
	}
	return Decoded[R]{Value: v, Presence: dc.presence, Sources: dc.sources}, nil
}

func (rc *Record[R]) decodeTop(ctx context.Context, c *node.Node, meta bool) (R, *decodeCtx, error) {
	start := time.Now()
	if ctx == nil {
		ctx = context.Background()
	}
	dc := &decodeCtx{ctx: ctx}
	if meta {
		dc.presence = PresenceMap{}
		dc.sources = map[string]string{}
	}
	v, err := rc.decodeAt(dc, c, "")
	emitDecodeComplete(ctx, rc.name, len(rc.fields), dc.defaulted, time.Since(start), err)
	return v, dc, err
}

// decodeAt resolves every field into a positional buffer and only then
// constructs R, so a failure leaves nothing half built.
func (rc *Record[R]) decodeAt(dc *decodeCtx, c *node.Node, path string) (R, error) {
	var zero R
	if err := dc.ctx.Err(); err != nil {
		return zero, err
	}
	if c.Kind() != node.Map {
		return zero, issueAt(path, CodeInvalidType, nil, map[string]string{"expected": "map"})
	}
	vals := make([]any, len(rc.fields))
	for i, f := range rc.fields {
		if rc.ignored[i] {
			continue
		}
		v, res, err := f.resolve(dc, c, path)
		if err != nil {
			return zero, err
		}
		vals[i] = v
		if res.defaulted {
			dc.defaulted++
		}
		if dc.presence != nil {
			keys := f.Descriptor().Keys
			p := join(path, keys[0])
			dc.presence[p] = res.flags()
			if res.key != "" {
				dc.sources[p] = res.key
			}
		}
	}
	r := rc.fresh()
	for i, f := range rc.fields {
		if !rc.ignored[i] {
			f.assign(&r, vals[i])
		}
	}
	return r, nil
}

// Encode writes v as a new map node.
func (rc *Record[R]) Encode(ctx context.Context, v R) (*node.Node, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	n, err := rc.encodeAt(&v, "")
	emitEncodeComplete(ctx, rc.name, len(rc.fields), time.Since(start), err)
	return n, err
}

// EncodeInto writes the fields of v into an existing map node. Keys already
// in into keep their position and take the new value.
func (rc *Record[R]) EncodeInto(ctx context.Context, v R, into *node.Node) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	err := rc.encodeFields(&v, into, "")
	emitEncodeComplete(ctx, rc.name, len(rc.fields), time.Since(start), err)
	return err
}

func (rc *Record[R]) encodeAt(v *R, path string) (*node.Node, error) {
	m := node.NewMap()
	if err := rc.encodeFields(v, m, path); err != nil {
		return nil, err
	}
	return m, nil
}

func (rc *Record[R]) encodeFields(v *R, into *node.Node, path string) error {
	if into.Kind() != node.Map {
		return issueAt(path, CodeInvalidType, nil, map[string]string{"expected": "map"})
	}
	for i, f := range rc.fields {
		if rc.ignored[i] {
			continue
		}
		if err := f.encode(v, into, path); err != nil {
			return err
		}
	}
	return nil
}

func (rc *Record[R]) String() string {
	return fmt.Sprintf("Record(%s, %d fields)", rc.name, len(rc.fields))
}
