package genome

import "fmt"

// PromptSpec is the task to evaluate or serve: an intent label, the raw
// user prompt, the tool names available to the executor, and (offline
// only) the expected output used for scoring (spec.md §3.1).
type PromptSpec struct {
	Intent   string   `json:"intent"`
	Prompt   string   `json:"prompt"`
	Tools    []string `json:"tools,omitempty"`
	Expected string   `json:"expected,omitempty"`
}

// Validate checks the invariants a PromptSpec must satisfy before it can
// be handed to an Executor: Intent and Prompt are required.
func (p PromptSpec) Validate() error {
	if p.Intent == "" {
		return fmt.Errorf("genome: prompt_spec.intent is required")
	}
	if p.Prompt == "" {
		return fmt.Errorf("genome: prompt_spec.prompt is required")
	}
	return nil
}

// ExecutionMetrics is the result of one Executor run against one
// PromptSpec with one Genome, the raw material the fitness aggregator
// reduces to a scalar (spec.md §3.1, §4.2).
type ExecutionMetrics struct {
	SchemaOK       bool     `json:"schema_ok"`
	SafetyFlags    []string `json:"safety_flags,omitempty"`
	ValidatorScore float64  `json:"validator_score"`
	Accuracy       float64  `json:"accuracy"`
	LatencyMS      float64  `json:"latency_ms"`
	TokensTotal    int      `json:"tokens_total"`
	Repairs        int      `json:"repairs"`
	CostUSD        float64  `json:"cost_usd"`
}

// Safe reports whether no safety flags were raised during execution.
func (m ExecutionMetrics) Safe() bool {
	return len(m.SafetyFlags) == 0
}

// GoldenExample is one labeled row of a golden set: a prompt paired with
// its expected answer, used to evaluate genomes offline (spec.md §3.1,
// §6.8). Golden examples are not added to the hybrid retriever's corpus.
type GoldenExample struct {
	Prompt       string            `json:"prompt"`
	Expected     string            `json:"expected"`
	Intent       string            `json:"intent"`
	Context      string            `json:"context,omitempty"`
	QualityScore float64           `json:"quality_score"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Validate checks the invariants from spec.md §6.8: prompt, expected and
// intent are required, and quality_score must fall in [0,1].
func (e GoldenExample) Validate() error {
	if e.Prompt == "" {
		return fmt.Errorf("genome: golden_example.prompt is required")
	}
	if e.Expected == "" {
		return fmt.Errorf("genome: golden_example.expected is required")
	}
	if e.Intent == "" {
		return fmt.Errorf("genome: golden_example.intent is required")
	}
	if e.QualityScore < 0.0 || e.QualityScore > 1.0 {
		return fmt.Errorf("genome: golden_example.quality_score out of range [0,1]: %v", e.QualityScore)
	}
	return nil
}
