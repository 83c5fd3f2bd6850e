package domain

import "fmt"

// FailureKind categorizes why a resolution or download did not succeed
type FailureKind string

const (
	KindNone                FailureKind = ""
	KindInvalidInput        FailureKind = "invalid_input"
	KindExtractionExhausted FailureKind = "extraction_exhausted"
	KindNetwork             FailureKind = "network"
	KindSizeValidation      FailureKind = "size_validation"
	KindFilesystem          FailureKind = "filesystem"
	KindExtractor           FailureKind = "extractor"
	KindNotSupported        FailureKind = "not_supported"
	KindNoApplicableMethod  FailureKind = "no_applicable_method"
	KindCancelled           FailureKind = "cancelled"
)

// ReasonNoApplicableMethod is returned when the chain and the fallback are both unavailable
const ReasonNoApplicableMethod = "no applicable method"

// Outcome is the result of a download attempt. Handlers never return errors;
// every failure is folded into an Outcome at the handler boundary.
type Outcome struct {
	Success bool        `json:"success"`
	Path    string      `json:"path,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Kind    FailureKind `json:"kind,omitempty"`
}

// Succeeded creates a successful outcome for the given file path
func Succeeded(path string) Outcome {
	return Outcome{Success: true, Path: path}
}

// Failed creates a failed outcome with a formatted reason
func Failed(kind FailureKind, format string, args ...interface{}) Outcome {
	return Outcome{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Result returns the path on success or the reason on failure
func (o Outcome) Result() string {
	if o.Success {
		return o.Path
	}
	return o.Reason
}

// String implements fmt.Stringer
func (o Outcome) String() string {
	if o.Success {
		return "success: " + o.Path
	}
	return fmt.Sprintf("failure (%s): %s", o.Kind, o.Reason)
}
