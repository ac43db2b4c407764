// Package codable decodes loosely-typed key/value trees into typed Go values
// and encodes them back, driven by caller-declared record shapes.
//
// It provides:
//
// - Records built from field definitions with alias keys, defaults and
//   ignored fields (NewRecord, Field, Optional, Nested, Extend)
// - Tolerant scalar coercion: numeric strings read as numbers, missing or
//   unreadable keys fall back to defaults (Coercion, AsInt, AsFloat64, ...)
// - A self-describing dynamic value for untyped substructures that keeps
//   map order and number representation (Value, DecodeValue, EncodeValue)
// - An error model via Issues (JSON Pointer, code, message)
// - Wire front-ends under source/ that turn JSON, YAML, MessagePack and
//   BSON into the ordered node tree and back
//
// Typical usage:
//
//	rec := codable.NewRecord("Person",
//		codable.Field("age", codable.AsInt, func(p *Person) *int { return &p.Age }),
//		codable.Optional("name", codable.AsString, func(p *Person) **string { return &p.Name },
//			codable.Keys("name", "fullName")),
//	)
//	p, err := codable.DecodeJSON(ctx, rec, data)
//	wire, err := codable.EncodeJSON(ctx, rec, p)
package codable
