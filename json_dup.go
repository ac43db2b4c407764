package codable

import (
	"io"

	eng "github.com/reoring/codable/internal/engine"
)

// DetectJSONDuplicateKeys scans a JSON document with the current driver and
// reports every repeated object key at its JSON Pointer. maxIssues <= 0
// means unlimited. Syntax errors are reported as a parse_error issue.
func DetectJSONDuplicateKeys(data []byte, maxIssues int) Issues {
	return detectDuplicates(JSONBytes(data), maxIssues)
}

// DetectJSONDuplicateKeysReader is DetectJSONDuplicateKeys over a reader.
// The reader is consumed fully.
func DetectJSONDuplicateKeysReader(r io.Reader, maxIssues int) Issues {
	return detectDuplicates(JSONReader(r), maxIssues)
}

func detectDuplicates(src Source, maxIssues int) Issues {
	var iss Issues
	for _, s := range eng.DetectDuplicateKeys(engineTokenSource(src), maxIssues) {
		iss = AppendIssues(iss, Issue{Code: s.Code, Path: s.Path, Message: s.Message})
	}
	return iss
}
