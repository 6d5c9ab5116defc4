package genome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptSpec_Validate(t *testing.T) {
	valid := PromptSpec{Intent: "qa", Prompt: "What is the capital of France?"}
	assert.NoError(t, valid.Validate())

	noIntent := valid
	noIntent.Intent = ""
	assert.Error(t, noIntent.Validate())

	noPrompt := valid
	noPrompt.Prompt = ""
	assert.Error(t, noPrompt.Validate())
}

func TestExecutionMetrics_Safe(t *testing.T) {
	clean := ExecutionMetrics{SchemaOK: true}
	assert.True(t, clean.Safe())

	flagged := ExecutionMetrics{SchemaOK: true, SafetyFlags: []string{"pii_leak"}}
	assert.False(t, flagged.Safe())
}

func TestGoldenExample_Validate(t *testing.T) {
	valid := GoldenExample{
		Prompt:       "What is 2+2?",
		Expected:     "4",
		Intent:       "qa",
		QualityScore: 0.9,
	}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(e GoldenExample) GoldenExample
	}{
		{"missing prompt", func(e GoldenExample) GoldenExample { e.Prompt = ""; return e }},
		{"missing expected", func(e GoldenExample) GoldenExample { e.Expected = ""; return e }},
		{"missing intent", func(e GoldenExample) GoldenExample { e.Intent = ""; return e }},
		{"quality_score below zero", func(e GoldenExample) GoldenExample { e.QualityScore = -0.1; return e }},
		{"quality_score above one", func(e GoldenExample) GoldenExample { e.QualityScore = 1.1; return e }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.mutate(valid).Validate())
		})
	}
}
