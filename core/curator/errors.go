package curator

import "errors"

// The only two errors allowed to surface to callers. Everything else is
// absorbed into a fallback CurationResult.
var (
	// ErrInsufficientHistory means no usable play data exists at all.
	ErrInsufficientHistory = errors.New("no listening history found")

	// ErrNoCandidates means history exists but nothing survives the
	// re-discovery filters.
	ErrNoCandidates = errors.New("no tracks found for re-discovery")
)

// FailureKind classifies a recoverable pipeline failure.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailureConfigMissing: no AI credential configured. Short-circuits
	// before any network attempt.
	FailureConfigMissing
	// FailureTransport: network or HTTP error talking to the AI provider.
	FailureTransport
	// FailureMalformedResponse: the AI reply failed JSON, structural or
	// bounds validation.
	FailureMalformedResponse
)

// FailureReason carries a recoverable failure from a pipeline stage to the
// orchestrator, which decides whether to absorb it into a fallback result.
type FailureReason struct {
	Kind   FailureKind
	Detail string
}

// Failed reports whether the reason describes an actual failure.
func (f FailureReason) Failed() bool {
	return f.Kind != FailureNone
}

// Message renders the human-readable reasoning string for fallback results.
func (f FailureReason) Message() string {
	switch f.Kind {
	case FailureConfigMissing:
		return "No AI API key configured, algorithmic selection used"
	case FailureTransport:
		return "Network error: " + f.Detail
	case FailureMalformedResponse:
		return "AI returned invalid JSON: " + f.Detail
	default:
		return f.Detail
	}
}
