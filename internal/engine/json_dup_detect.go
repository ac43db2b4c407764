package engine

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
}

// DetectDuplicateKeys drains src and reports every repeated object key with
// the JSON Pointer of the repetition. maxIssues <= 0 means unlimited; when the
// limit is reached a trailing "truncated" issue is added and scanning stops.
// A syntax error ends the scan with a parse_error issue.
func DetectDuplicateKeys(src TokenSource, maxIssues int) []SimpleIssue {
	var issues []SimpleIssue
	full := false
	wrapped := WrapWithEnforcement(src, EnforceOptions{
		OnDuplicate: DupWarn,
		IssueSink: func(si SimpleIssue) {
			if full {
				return
			}
			issues = append(issues, si)
			if maxIssues > 0 && len(issues) >= maxIssues {
				issues = append(issues, SimpleIssue{Code: "truncated", Path: "/", Message: "max issues reached"})
				full = true
			}
		},
	})
	for !full {
		if _, err := wrapped.NextToken(); err != nil {
			if !isEOF(err) {
				issues = append(issues, SimpleIssue{Code: "parse_error", Path: "/", Message: err.Error()})
			}
			break
		}
	}
	return issues
}
