// Package governor implements admission control for student queries.
//
// Every query passes through the governor exactly once before any answer
// is generated. Two gates run in order:
//
//  1. Integrity gate: prompt-injection/abuse detection on the raw query.
//     Unconditional; no confidence value bypasses it.
//  2. Scope gate, confidence-weighted. A high-confidence reasoning signal
//     is trusted to have already judged topical relevance and skips the
//     vector check (the vector search produces false negatives for
//     paraphrased questions that an LLM-based reasoner classifies
//     correctly). A low-confidence signal triggers a top-1 similarity
//     search; a distance above the configured threshold rejects the query.
//
// The governor is a pure function of its inputs and collaborators: no
// state survives a call, so each query evaluation is independent and the
// type is safe for concurrent use.
package governor

import (
	"context"
	"fmt"

	"github.com/AazainKhan/luminate-ai-sub002/internal/log"
	"github.com/AazainKhan/luminate-ai-sub002/internal/security"
)

// Rejection reasons surfaced to the calling pipeline. OutOfScopeReason and
// ScopeUnavailableReason are worded for direct display to the student.
const (
	// IntegrityReason explains an integrity-gate rejection.
	IntegrityReason = "the query was flagged by the content integrity check and cannot be processed"

	// OutOfScopeReason explains a scope-gate rejection. Keep the
	// "not clearly covered" phrasing: the web client matches on it.
	OutOfScopeReason = "this question is not clearly covered by the indexed course material"

	// ScopeUnavailableReason explains a fail-closed rejection when the
	// scope check itself failed. Distinct from OutOfScopeReason so an
	// infrastructure outage is never presented as an off-topic question.
	ScopeUnavailableReason = "the course material index is temporarily unavailable, please try again shortly"

	// scopeBypassedNote annotates fail-open approvals for the caller's logs.
	scopeBypassedNote = "scope verification unavailable, admitted by fail-open policy"
)

// ScopeChecker is the vector-similarity collaborator consulted when the
// reasoning confidence is too low to trust on its own.
//
// BestMatch returns the top-1 distance between the query and the indexed
// course corpus: lower is better, with values observed in [0,1]. An
// unavailable store or empty index must surface as an error, never as a
// fabricated score.
type ScopeChecker interface {
	BestMatch(ctx context.Context, query string) (float64, error)
}

// Policy holds the governor's tunable thresholds. Values come from
// config.GovernorConfig; they are injected here so tests can exercise the
// gates without a config file.
type Policy struct {
	// BypassConfidence is the reasoning-confidence floor at or above
	// which the vector scope check is skipped.
	BypassConfidence float64

	// MaxScopeDistance is the largest top-1 distance still considered a
	// match. Distances above it reject the query as out of scope.
	MaxScopeDistance float64

	// FailOpen selects the policy when the scope check errors:
	// true approves with a warning, false rejects.
	FailOpen bool
}

// Decision is the terminal output of one admission evaluation.
// Reason is always populated when Approved is false.
type Decision struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// Governor is the single admission-control point in front of answer
// generation.
type Governor struct {
	validator *security.QueryValidator
	scope     ScopeChecker
	policy    Policy
	logger    log.Logger
}

// New creates a Governor with the given collaborators and policy.
// All dependencies are explicit; there is no package-level instance.
func New(validator *security.QueryValidator, scope ScopeChecker, policy Policy, logger log.Logger) *Governor {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Governor{
		validator: validator,
		scope:     scope,
		policy:    policy,
		logger:    logger,
	}
}

// CheckPolicies evaluates the admission gates for one query and returns
// the terminal decision. No retries, no partial approval; the caller
// presents Reason to the student when Approved is false.
//
// A signal that violates its range contract panics: it means the upstream
// reasoner handed over garbage, and continuing would turn a bug into a
// silent policy outcome.
func (g *Governor) CheckPolicies(ctx context.Context, query string, sig ReasoningSignal) Decision {
	if !sig.valid() {
		panic(fmt.Sprintf("BUG: reasoning signal violates contract: intent=%q confidence=%.4f", sig.Intent, sig.Confidence))
	}

	// Gate 1: integrity. Never bypassed.
	if result := g.validator.Validate(query); !result.Safe {
		g.logger.Warn("query rejected by integrity gate",
			"patterns", len(result.Patterns))
		return Decision{Approved: false, Reason: IntegrityReason}
	}

	// Gate 2: confidence-weighted scope check.
	if sig.Confidence >= g.policy.BypassConfidence {
		g.logger.Debug("scope check bypassed",
			"intent", sig.Intent,
			"confidence", sig.Confidence,
			"concepts", len(sig.Concepts))
		return Decision{Approved: true}
	}

	distance, err := g.scope.BestMatch(ctx, query)
	if err != nil {
		if g.policy.FailOpen {
			g.logger.Warn("scope check unavailable, failing open", "error", err)
			return Decision{Approved: true, Reason: scopeBypassedNote}
		}
		g.logger.Error("scope check unavailable, failing closed", "error", err)
		return Decision{Approved: false, Reason: ScopeUnavailableReason}
	}

	if distance > g.policy.MaxScopeDistance {
		g.logger.Info("query rejected as out of scope",
			"distance", distance,
			"max_distance", g.policy.MaxScopeDistance)
		return Decision{Approved: false, Reason: OutOfScopeReason}
	}

	g.logger.Debug("query admitted via scope check", "distance", distance)
	return Decision{Approved: true}
}
