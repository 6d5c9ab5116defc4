package executor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/quillhq/promptforge/internal/genome"
)

// HeuristicValidator is the default Validator (spec.md §4.6 step 7): a
// composite of output length, keyword overlap with the prompt, and a
// crude schema-presence check (does the output look like JSON when the
// intent suggests structured output).
type HeuristicValidator struct{}

// Score returns a heuristic composite score in [0,1].
func (HeuristicValidator) Score(spec genome.PromptSpec, outputText string) float64 {
	trimmed := strings.TrimSpace(outputText)
	if trimmed == "" {
		return 0.0
	}

	lengthScore := 1.0
	if n := len(trimmed); n < 5 {
		lengthScore = float64(n) / 5.0
	}

	overlapScore := keywordOverlap(spec.Prompt, trimmed)

	schemaScore := 1.0
	if spec.Intent == "tool_call" {
		schemaScore = 0.0
		if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
			schemaScore = 1.0
		}
	}

	return clamp01((lengthScore + overlapScore + schemaScore) / 3.0)
}

func keywordOverlap(prompt, output string) float64 {
	promptWords := wordSet(prompt)
	if len(promptWords) == 0 {
		return 0.0
	}
	outputWords := wordSet(output)
	matched := 0
	for w := range promptWords {
		if outputWords[w] {
			matched++
		}
	}
	return float64(matched) / float64(len(promptWords))
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if len(w) > 3 {
			set[w] = true
		}
	}
	return set
}

// DefaultComparator dispatches to an intent-specific comparison
// strategy: exact match for tool_call, normalized token-F1 for qa, and a
// stubbed execution-equivalence check for code (spec.md §4.6 step 6,
// §6.1). The execution-equivalence stub falls back to exact match: no
// sandboxed interpreter is wired, so it cannot actually run code.
type DefaultComparator struct{}

// Compare returns a score in [0,1].
func (DefaultComparator) Compare(expected, outputText, intent string) float64 {
	expected = strings.TrimSpace(expected)
	outputText = strings.TrimSpace(outputText)

	switch intent {
	case "tool_call", "code":
		if expected == outputText {
			return 1.0
		}
		return 0.0
	default: // "qa" and anything else: normalized token-F1
		return tokenF1(expected, outputText)
	}
}

func tokenF1(expected, output string) float64 {
	expWords := strings.Fields(strings.ToLower(expected))
	outWords := strings.Fields(strings.ToLower(output))
	if len(expWords) == 0 && len(outWords) == 0 {
		return 1.0
	}
	if len(expWords) == 0 || len(outWords) == 0 {
		return 0.0
	}

	expCounts := counts(expWords)
	outCounts := counts(outWords)

	overlap := 0
	for w, c := range outCounts {
		if ec, ok := expCounts[w]; ok {
			overlap += min(c, ec)
		}
	}
	if overlap == 0 {
		return 0.0
	}

	precision := float64(overlap) / float64(len(outWords))
	recall := float64(overlap) / float64(len(expWords))
	return 2 * precision * recall / (precision + recall)
}

func counts(words []string) map[string]int {
	m := make(map[string]int, len(words))
	for _, w := range words {
		m[w]++
	}
	return m
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// unsafePatterns are the deterministic regex rules applied by
// DefaultSafety (spec.md §4.6 step 5: "deterministic rule set + regex").
var unsafePatterns = map[string]*regexp.Regexp{
	"credentials_leak":  regexp.MustCompile(`(?i)(api[_-]?key|password|secret)\s*[:=]\s*\S+`),
	"pii_ssn":           regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	"destructive_shell": regexp.MustCompile(`(?i)\brm\s+-rf\s+/`),
}

// DefaultSafety is the default Safety implementation: a fixed set of
// regex rules, evaluated independently so multiple flags can fire on
// the same output.
type DefaultSafety struct{}

// Flags returns the sorted set of rule names that matched outputText.
func (DefaultSafety) Flags(outputText string) []string {
	var flags []string
	for name, pattern := range unsafePatterns {
		if pattern.MatchString(outputText) {
			flags = append(flags, name)
		}
	}
	sort.Strings(flags)
	return flags
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
