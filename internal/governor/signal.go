package governor

import (
	"errors"
	"fmt"
)

// ErrInvalidSignal indicates a reasoning signal that violates its
// contract (confidence outside [0,1] or a missing intent). This is a bug
// in the upstream reasoning component, not a runtime condition; callers
// should surface it loudly rather than coerce the value.
var ErrInvalidSignal = errors.New("invalid reasoning signal")

// ReasoningSignal is the upstream reasoner's estimate for a query: an
// intent label (e.g. "tutor", "fast"), a confidence scalar in [0,1], and
// the key concepts it detected.
//
// The governor treats the signal as trusted external input. Its
// confidence is on a higher-is-better scale and is unrelated to the
// vector scope distance (lower-is-better); the two are never compared.
//
// Construct signals with NewReasoningSignal so range violations are
// caught at the boundary instead of deep inside decision logic.
type ReasoningSignal struct {
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Concepts   []string `json:"detected_concepts"`
}

// NewReasoningSignal validates and constructs a ReasoningSignal.
// Out-of-range confidence is rejected, never clamped: clamping would hide
// upstream reasoner bugs.
func NewReasoningSignal(intent string, confidence float64, concepts []string) (ReasoningSignal, error) {
	if intent == "" {
		return ReasoningSignal{}, fmt.Errorf("%w: intent must not be empty", ErrInvalidSignal)
	}
	if confidence < 0 || confidence > 1 {
		return ReasoningSignal{}, fmt.Errorf("%w: confidence %.4f outside [0,1]", ErrInvalidSignal, confidence)
	}
	return ReasoningSignal{
		Intent:     intent,
		Confidence: confidence,
		Concepts:   concepts,
	}, nil
}

// MustReasoningSignal is like NewReasoningSignal but panics on invalid
// input. For tests and literals only.
func MustReasoningSignal(intent string, confidence float64, concepts []string) ReasoningSignal {
	sig, err := NewReasoningSignal(intent, confidence, concepts)
	if err != nil {
		panic(err)
	}
	return sig
}

// valid reports whether the signal satisfies its range invariants.
func (s ReasoningSignal) valid() bool {
	return s.Intent != "" && s.Confidence >= 0 && s.Confidence <= 1
}
