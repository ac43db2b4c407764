package codable

// Strictness configures front-end enforcement.
type Strictness struct {
	OnDuplicateKey Severity // Duplicate JSON object keys.
}

// Severity expresses the severity level for issues.
type Severity int

const (
	SeverityIgnore Severity = iota
	SeverityWarn
	SeverityError
)

// DecodeOpt bundles options for decoding wire input. The zero value
// enforces nothing and lets a repeated key take its last value.
type DecodeOpt struct {
	Strictness Strictness
	MaxDepth   int   // 0 disables the check.
	MaxBytes   int64 // 0 disables the check; other Sources than ParseJSON[Reader] need offsets.
	// OnIssue receives non-fatal issues such as duplicate keys under SeverityWarn.
	OnIssue func(Issue)
}

// StrictDecodeOpt rejects duplicate keys and bounds nesting depth.
func StrictDecodeOpt() DecodeOpt {
	return DecodeOpt{Strictness: Strictness{OnDuplicateKey: SeverityError}, MaxDepth: 256}
}

func (o DecodeOpt) enforced() bool {
	return o.Strictness.OnDuplicateKey != SeverityIgnore || o.MaxDepth > 0 || o.MaxBytes > 0
}

func mergeDecodeOpts(opts []DecodeOpt) DecodeOpt {
	if len(opts) == 0 {
		return DecodeOpt{}
	}
	return opts[len(opts)-1]
}
