// Package security provides input validation for student queries before
// they reach any model call.
package security

import (
	"regexp"
	"strings"
	"unicode"
)

// QueryIntegrityResult contains details about detected integrity violations.
type QueryIntegrityResult struct {
	Safe     bool     // True if no violation patterns detected
	Patterns []string // List of detected patterns (empty if safe)
}

// QueryValidator detects prompt-injection attempts and off-policy requests
// in raw student queries. It is the governor's unconditional first gate.
//
// Note: no filter is perfect. This catches common patterns but
// sophisticated attacks may bypass detection; system prompt hardening and
// output filtering remain necessary.
//
// Known limitation: homoglyph attacks are NOT detected. Visually similar
// Unicode characters (Greek 'Ι' for Latin 'I', Cyrillic 'а' for Latin 'a')
// pass through pattern matching. Full homoglyph normalization requires the
// Unicode confusables mapping; see
// https://unicode.org/reports/tr39/#Confusable_Detection
type QueryValidator struct {
	patterns []*regexp.Regexp
}

// NewQueryValidator creates a QueryValidator with the default pattern set.
func NewQueryValidator() *QueryValidator {
	patterns := []string{
		// System prompt override attempts
		`(?i)ignore\s+(all\s+)?(previous|above|prior)\s+(instructions?|prompts?|rules?)`,
		`(?i)disregard\s+(all\s+)?(previous|above|prior)\s+(instructions?|prompts?)`,
		`(?i)forget\s+(all\s+)?(previous|above|prior)\s+(instructions?|context)`,
		`(?i)override\s+(all\s+)?(previous|above|prior)\s+(instructions?|rules?)`,

		// Role-playing attacks
		`(?i)^(pretend|act|behave|imagine)\s+(you\s+are|to\s+be|as\s+if|like)`,
		`(?i)^you\s+are\s+now\s+a`,
		`(?i)^from\s+now\s+on,?\s+you\s+(are|will|must)`,

		// Instruction injection
		`(?i)^\s*(important|critical|urgent|system)\s*:\s*`,
		`(?i)^new\s+(instruction|task|rule)\s*:`,
		`(?i)^admin\s*(mode|override|command)\s*:`,

		// Delimiter manipulation (trying to escape context)
		`(?i)\]\s*\[\s*(system|assistant|instruction)`,
		`(?i)</?(system|instruction|prompt)>`,
		`(?i)---+\s*(system|new\s+instruction)`,

		// Jailbreak attempts
		`(?i)do\s+anything\s+now`,
		`(?i)jailbreak`,
		`(?i)bypass\s+(safety|filter|restrictions?)`,

		// Academic-integrity violations: asking the tutor to do graded
		// work rather than teach it
		`(?i)(give|send|write)\s+me\s+(all\s+)?the\s+answers?\s+(to|for)\s+(the\s+)?(exam|quiz|test|midterm|final)`,
		`(?i)answers?\s+(to|for)\s+(the\s+)?(midterm|final)\s+exam`,
		`(?i)(do|complete|solve)\s+my\s+(homework|assignment|take-?home)\s+for\s+me`,
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			compiled = append(compiled, re)
		}
	}

	return &QueryValidator{patterns: compiled}
}

// Validate checks the query for integrity violation patterns.
func (v *QueryValidator) Validate(input string) QueryIntegrityResult {
	normalized := normalizeInput(input)

	var detected []string
	for _, re := range v.patterns {
		if re.MatchString(normalized) {
			detected = append(detected, re.String())
		}
	}

	return QueryIntegrityResult{
		Safe:     len(detected) == 0,
		Patterns: detected,
	}
}

// IsSafe is a convenience method that returns true if no patterns detected.
func (v *QueryValidator) IsSafe(input string) bool {
	return v.Validate(input).Safe
}

// normalizeInput prepares input for pattern matching:
// zero-width and format characters are stripped (they would otherwise
// split a keyword and evade detection) and all whitespace runs collapse
// to single spaces.
func normalizeInput(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Cf, r) || unicode.Is(unicode.Mn, r) {
			continue
		}
		if unicode.IsSpace(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
