// Package middleware decodes HTTP request bodies with a codable.Record and
// hands the result to the next handler through the request context.
package middleware

import (
	"context"
	"net/http"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/codable"
)

// ctxKeyDecoded is a typed context key for storing Decoded[T].
// Using a generic struct type ensures uniqueness per T.
type ctxKeyDecoded[T any] struct{}

// ContextWithDecoded attaches a Decoded[T] to the context.
func ContextWithDecoded[T any](ctx context.Context, db codable.Decoded[T]) context.Context {
	return context.WithValue(ctx, ctxKeyDecoded[T]{}, db)
}

// DecodedFromContext retrieves a Decoded[T] from context.
func DecodedFromContext[T any](ctx context.Context) (codable.Decoded[T], bool) {
	v, ok := ctx.Value(ctxKeyDecoded[T]{}).(codable.Decoded[T])
	return v, ok
}

// DefaultDecodeOpt returns the options used at HTTP JSON boundaries:
// duplicate keys are errors and bodies are capped at 1 MiB.
func DefaultDecodeOpt() codable.DecodeOpt {
	return codable.DecodeOpt{
		Strictness: codable.Strictness{OnDuplicateKey: codable.SeverityError},
		MaxBytes:   1 << 20,
	}
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues []codable.Issue) map[string]any {
	out := make([]map[string]any, 0, len(issues))
	for _, it := range issues {
		out = append(out, map[string]any{
			"path":    pointerOrRoot(it.Path),
			"code":    it.Code,
			"message": it.Message,
		})
	}
	return map[string]any{"issues": out}
}

// DecodeJSON returns middleware that decodes the request body with rec. On
// success the Decoded[R] is stored in the request context; on failure the
// request is answered with 400 and the issues.
func DecodeJSON[R any](rec *codable.Record[R], opts ...codable.DecodeOpt) func(http.Handler) http.Handler {
	if len(opts) == 0 {
		opts = []codable.DecodeOpt{DefaultDecodeOpt()}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n, err := codable.ParseJSONReader(r.Body, opts...)
			var dm codable.Decoded[R]
			if err == nil {
				dm, err = rec.DecodeWithMeta(r.Context(), n)
			}
			if err != nil {
				if iss, ok := codable.AsIssues(err); ok {
					writeJSON(w, http.StatusBadRequest, ErrorPayload(iss))
					return
				}
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithDecoded(r.Context(), dm)))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := gojson.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func pointerOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
