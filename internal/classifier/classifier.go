// Package classifier assigns an operating mode to each student query.
//
// Two modes exist: navigate (find an existing resource) and educate
// (teach a concept). Classification is
// purely lexical so it can run synchronously on every query with no
// network call, and it is deterministic: the same query always yields the
// same result.
//
// The keyword lists are configuration data (config.ClassifierConfig), not
// code; the constructor lower-cases them once so Classify only does
// substring scans.
package classifier

import (
	"fmt"
	"strings"
)

// Mode is the operating mode selected for a query.
type Mode string

const (
	// ModeNavigate handles lookup-style queries (find/show/locate).
	ModeNavigate Mode = "navigate"

	// ModeEducate handles tutoring-style queries (explain/derive/teach).
	ModeEducate Mode = "educate"
)

// Confidence bounds produced by Classify. Every classification lands in
// [MinConfidence, CoreTopicConfidence].
const (
	// CoreTopicConfidence is assigned when a core course topic appears in
	// the query. The topic allow-list overrides keyword counting entirely.
	CoreTopicConfidence = 0.95

	// StrongKeywordCap caps the confidence from keyword counting.
	StrongKeywordCap = 0.85

	// WeakNavigateConfidence is assigned when navigate leads by a single
	// weak signal.
	WeakNavigateConfidence = 0.65

	// MinConfidence is the default-mode confidence for ambiguous queries.
	MinConfidence = 0.60
)

// Classification is the classifier's verdict for one query.
// It feeds downstream agent selection; it plays no part in admission.
type Classification struct {
	Mode       Mode    `json:"mode"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classifier labels queries with an operating mode using a course-topic
// allow-list and two disjoint keyword sets.
//
// Classifier is stateless after construction and safe for concurrent use.
type Classifier struct {
	coreTopics []string
	navigate   []string
	educate    []string
}

// New creates a Classifier from the given lexical routing data.
// All entries are matched case-insensitively as substrings.
func New(coreTopics, navigateKeywords, educateKeywords []string) *Classifier {
	return &Classifier{
		coreTopics: lowerAll(coreTopics),
		navigate:   lowerAll(navigateKeywords),
		educate:    lowerAll(educateKeywords),
	}
}

// Classify assigns a mode to the query. It never fails: lexical matching
// against static lists has no error path, and an empty query simply falls
// through to the educate default.
//
// Priority order:
//  1. Core-topic match → educate at 0.95, regardless of keyword counts.
//  2. Clear keyword majority (strict, count ≥ 2) → that mode, confidence
//     scaled with the count and capped at 0.85.
//  3. Navigate leading by a single hit → navigate at 0.65.
//  4. Everything else (ties, educate-leaning, no hits) → educate at 0.60.
//
// The asymmetry is deliberate: the system exists to teach, so navigate is
// only chosen on a clear retrieval signal and ambiguity defaults to
// tutoring.
func (c *Classifier) Classify(query string) Classification {
	lowered := strings.ToLower(query)

	for _, topic := range c.coreTopics {
		if strings.Contains(lowered, topic) {
			return Classification{
				Mode:       ModeEducate,
				Confidence: CoreTopicConfidence,
				Reasoning:  fmt.Sprintf("query mentions core course topic %q", topic),
			}
		}
	}

	navCount := countMatches(lowered, c.navigate)
	eduCount := countMatches(lowered, c.educate)

	switch {
	case navCount > eduCount && navCount >= 2:
		return Classification{
			Mode:       ModeNavigate,
			Confidence: scaledConfidence(navCount),
			Reasoning:  fmt.Sprintf("%d navigate indicators vs %d educate indicators", navCount, eduCount),
		}
	case eduCount > navCount && eduCount >= 2:
		return Classification{
			Mode:       ModeEducate,
			Confidence: scaledConfidence(eduCount),
			Reasoning:  fmt.Sprintf("%d educate indicators vs %d navigate indicators", eduCount, navCount),
		}
	case navCount > eduCount:
		return Classification{
			Mode:       ModeNavigate,
			Confidence: WeakNavigateConfidence,
			Reasoning:  "single navigate indicator",
		}
	default:
		return Classification{
			Mode:       ModeEducate,
			Confidence: MinConfidence,
			Reasoning:  "default to tutoring mode",
		}
	}
}

// scaledConfidence maps a keyword count to a confidence:
// 0.6 + 0.1 per matched keyword, capped at StrongKeywordCap.
func scaledConfidence(count int) float64 {
	return min(StrongKeywordCap, 0.6+0.1*float64(count))
}

// countMatches counts how many keywords occur in the lowered query.
// Overlapping keyword roots are counted independently, no deduplication.
func countMatches(lowered string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			n++
		}
	}
	return n
}

func lowerAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.ToLower(s)
	}
	return out
}
