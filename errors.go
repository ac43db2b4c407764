package codable

import (
	"errors"
	"fmt"
	"strings"

	eng "github.com/reoring/codable/internal/engine"
	"github.com/reoring/codable/i18n"
)

// Issue codes.
const (
	CodeUnsupportedShape      = "unsupported_shape"
	CodeUnsupportedType       = "unsupported_type"
	CodeMalformedScalar       = "malformed_scalar"
	CodeMissingRequiredNested = "missing_required_nested"
	CodeRequired              = "required"
	CodeInvalidType           = "invalid_type"
	CodeParseError            = "parse_error"
	CodeDuplicateKey          = "duplicate_key"
	CodeTruncated             = "truncated"
)

// Sentinel causes carried by issues, for use with errors.Is.
var (
	ErrUnsupportedShape      = errors.New("codable: unsupported shape")
	ErrUnsupportedType       = errors.New("codable: unsupported type")
	ErrMissingRequiredNested = errors.New("codable: missing required nested record")
	ErrRequired              = errors.New("codable: required key missing")
)

// Issue is a single decode or encode failure.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string
	Message string
	Cause   error  // Optional: underlying error.
	Offset  int64  // Byte offset in the input when known, else 0.
}

func (i Issue) Error() string {
	if i.Message == "" {
		return fmt.Sprintf("%s at %s", i.Code, pointerOrRoot(i.Path))
	}
	return fmt.Sprintf("%s at %s: %s", i.Code, pointerOrRoot(i.Path), i.Message)
}

// Issues is a collection of failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", iss[i].Code, pointerOrRoot(iss[i].Path))
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// Unwrap exposes each issue's cause so errors.Is matches sentinels.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

func issueAt(path, code string, cause error, data map[string]string) Issues {
	return Issues{{Path: path, Code: code, Message: i18n.T(code, data), Cause: cause}}
}

func pointerOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

func join(base, key string) string { return eng.JoinPointer(base, key) }

// toIssues converts front-end and enforcement errors into Issues.
func toIssues(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsIssues(err); ok {
		return err
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		path := ie.Path
		if path == "/" {
			path = ""
		}
		return Issues{{Path: path, Code: ie.Code, Message: ie.Message, Cause: err}}
	}
	return Issues{{Code: CodeParseError, Message: err.Error(), Cause: err}}
}
