package evo

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/quillhq/promptforge/internal/executor"
	"github.com/quillhq/promptforge/internal/genome"
)

// rewriteRubricMetaPrompt is the fixed prompt used to ask the generator
// for a rewritten rubric variant (spec.md §4.3: "rewrite_rubric invokes
// the generator with a fixed meta-prompt").
const rewriteRubricMetaPrompt = "Rewrite the following prompt rubric to be clearer and more effective at eliciting a correct response, without changing its intent:\n\n%s"

// operators are the five mutation kinds, chosen uniformly at random
// (spec.md §4.3).
var operators = []string{"toggle_cot", "adjust_temperature", "change_model", "resize_tokens", "rewrite_rubric"}

// Mutate applies one uniformly-chosen operator to g and returns the
// offspring stamped with the given generation. rewrite_rubric is the only operator that
// calls gen; every other operator is a pure field perturbation. If gen is
// nil, rewrite_rubric falls back to adjust_temperature.
func Mutate(ctx context.Context, g genome.Genome, generation int, modelKeys []string, gen executor.Generator, rng *rand.Rand) (genome.Genome, error) {
	op := operators[rng.Intn(len(operators))]
	if op == "rewrite_rubric" && gen == nil {
		op = "adjust_temperature"
	}

	f := g.Fields()

	switch op {
	case "toggle_cot":
		f.CoT = !f.CoT
	case "adjust_temperature":
		f.Temp = clip(f.Temp+rng.NormFloat64()*0.15, 0.0, 2.0)
	case "change_model":
		if len(modelKeys) > 0 {
			f.ModelKey = modelKeys[rng.Intn(len(modelKeys))]
		}
	case "resize_tokens":
		delta := 1.0 + (rng.Float64()*0.5 - 0.25)
		f.MaxTokens = clampInt(int(float64(f.MaxTokens)*delta), 1, 8192)
	case "rewrite_rubric":
		resp, err := gen.Generate(ctx, executor.GenerateRequest{
			ModelKey:    f.ModelKey,
			Prompt:      fmt.Sprintf(rewriteRubricMetaPrompt, f.Rubric),
			Temperature: 0.7,
			MaxTokens:   512,
			NSamples:    1,
		})
		if err != nil {
			return genome.Genome{}, fmt.Errorf("evo: rewrite_rubric generate: %w", err)
		}
		if len(resp.Texts) > 0 {
			f.Rubric = resp.Texts[0]
		}
	}

	return genome.New(f, generation)
}
