package executor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/quillhq/promptforge/internal/genome"
	"github.com/quillhq/promptforge/pkg/apperr"
	"github.com/quillhq/promptforge/pkg/config"
)

const (
	maxInjectedDocs   = 5
	perSourceCharsMax = 500
	defaultConsensus  = 1
	useConsensusN     = 3
)

// cotScaffold is spliced into the prompt when genome.CoT is set
// (spec.md §4.6 step 1).
const cotScaffold = "Think step by step before giving your final answer.\n"

// Executor assembles prompts, calls the Generator under the executor's
// timeout/retry/repair policy, and reduces the result to an
// ExecutionMetrics sample. It owns no persistent state: every field is a
// plug-in dependency, and Execute is a pure function of its arguments
// (spec.md §4.6, §3.3: "the Executor owns no persistent state").
type Executor struct {
	Generator  Generator
	Retriever  Retriever // nil disables retrieval regardless of genome.RetrieverTopK
	Validator  Validator
	Comparator Comparator
	Safety     Safety
	Cfg        *config.ExecutorConfig

	// RequiresSchema reports whether intent requires structured output,
	// triggering the repair loop on parse failure. Defaults to "false for
	// everything" if nil.
	RequiresSchema func(intent string) bool
}

// New constructs an Executor with the default Validator/Comparator/Safety
// plug-ins (spec.md §4.6 [FULL]: "ship with a default implementation
// apiece").
func New(gen Generator, retriever Retriever, cfg *config.ExecutorConfig) *Executor {
	return &Executor{
		Generator:  gen,
		Retriever:  retriever,
		Validator:  HeuristicValidator{},
		Comparator: DefaultComparator{},
		Safety:     DefaultSafety{},
		Cfg:        cfg,
		RequiresSchema: func(intent string) bool {
			return intent == "tool_call"
		},
	}
}

// Execute runs spec against g and returns ExecutionMetrics. It never
// returns an error: every failure mode is folded into the returned
// metrics (schema_ok=false, latency_ms=elapsed, repairs=attempted), per
// the propagation policy in spec.md §7 ("Executor converts downstream
// errors into ExecutionMetrics during offline evaluation, never raises
// into the Population Loop").
func (e *Executor) Execute(ctx context.Context, g genome.Genome, spec genome.PromptSpec) genome.ExecutionMetrics {
	start := time.Now()

	prompt := e.assemblePrompt(ctx, g, spec)

	resp, repairs, err := e.generateWithRepairs(ctx, g, spec, prompt)
	elapsed := time.Since(start)

	if err != nil {
		return genome.ExecutionMetrics{
			SchemaOK:  false,
			LatencyMS: float64(elapsed.Milliseconds()),
			Repairs:   repairs,
		}
	}

	outputText := ""
	if len(resp.Texts) > 0 {
		outputText = resp.Texts[0]
	}

	schemaOK := true
	if e.RequiresSchema != nil && e.RequiresSchema(spec.Intent) {
		schemaOK = looksLikeJSON(outputText)
	}

	metrics := genome.ExecutionMetrics{
		SchemaOK:       schemaOK,
		SafetyFlags:    e.Safety.Flags(outputText),
		ValidatorScore: e.Validator.Score(spec, outputText),
		LatencyMS:      float64(elapsed.Milliseconds()),
		TokensTotal:    resp.TokensIn + resp.TokensOut,
		Repairs:        repairs,
		CostUSD:        resp.CostUSD,
	}

	switch {
	case spec.Expected != "":
		metrics.Accuracy = e.Comparator.Compare(spec.Expected, outputText, spec.Intent)
	case schemaOK:
		// No ground truth to compare against: spec.md §3.1 treats accuracy
		// as 1.0 iff schema_ok, so a well-formed live response (the
		// Router's §4.15 path has no Expected) still yields an informative
		// bandit reward instead of silently scoring 0.
		metrics.Accuracy = 1.0
	}

	return metrics
}

// assemblePrompt builds the final prompt per spec.md §4.6 step 1:
// rubric, CoT scaffold (if genome.cot), retrieved context (if
// retriever_topk>0), then spec.prompt.
func (e *Executor) assemblePrompt(ctx context.Context, g genome.Genome, spec genome.PromptSpec) string {
	var b strings.Builder
	b.WriteString(g.Rubric)
	b.WriteString("\n")

	if g.CoT {
		b.WriteString(cotScaffold)
	}

	if g.RetrieverTopK > 0 && e.Retriever != nil {
		docs, err := e.Retriever.Query(ctx, spec.Prompt, g.RetrieverTopK)
		if err == nil {
			inject := docs
			if len(inject) > maxInjectedDocs {
				inject = inject[:maxInjectedDocs]
			}
			for _, d := range inject {
				text := d.Text
				if len(text) > perSourceCharsMax {
					text = text[:perSourceCharsMax]
				}
				b.WriteString(text)
				b.WriteString("\n")
			}
		}
	}

	b.WriteString(spec.Prompt)
	return b.String()
}

// generateWithRepairs calls the generator, retrying on transient
// failure per the fixed backoff schedule, and attempts up to
// Cfg.MaxRepairs additional calls if the output fails a schema check
// (spec.md §4.6 steps 3-4).
func (e *Executor) generateWithRepairs(ctx context.Context, g genome.Genome, spec genome.PromptSpec, prompt string) (GenerateResponse, int, error) {
	nSamples := defaultConsensus
	if g.UseConsensus {
		nSamples = useConsensusN
	}

	req := GenerateRequest{
		ModelKey:    g.ModelKey,
		Prompt:      prompt,
		Temperature: g.Temp,
		MaxTokens:   g.MaxTokens,
		NSamples:    nSamples,
	}

	resp, err := e.callWithRetry(ctx, req)
	if err != nil {
		return GenerateResponse{}, 0, err
	}

	repairs := 0
	requiresSchema := e.RequiresSchema != nil && e.RequiresSchema(spec.Intent)
	for requiresSchema && !e.schemaOK(resp) && repairs < e.Cfg.MaxRepairs {
		repairs++
		resp, err = e.callWithRetry(ctx, req)
		if err != nil {
			return GenerateResponse{}, repairs, err
		}
	}

	return resp, repairs, nil
}

// schemaOK mirrors Execute's schema check: a structured-output response
// must be non-empty and look like JSON before the repair loop stops
// retrying (spec.md §4.6 step 4).
func (e *Executor) schemaOK(resp GenerateResponse) bool {
	if len(resp.Texts) == 0 {
		return false
	}
	return looksLikeJSON(resp.Texts[0])
}

// callWithRetry calls the generator with a hard per-call timeout,
// retrying up to len(RetryScheduleMS) additional times on error with the
// fixed backoff schedule (spec.md §4.6: "bounded retries (3, exponential
// backoff 100/300/900 ms)").
func (e *Executor) callWithRetry(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	var lastErr error
	attempts := len(e.Cfg.RetryScheduleMS) + 1

	for attempt := 0; attempt < attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, time.Duration(e.Cfg.TimeoutMS)*time.Millisecond)
		resp, err := e.Generator.Generate(callCtx, req)
		cancel()

		if err == nil {
			return resp, nil
		}
		lastErr = err

		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled) {
			break
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return GenerateResponse{}, apperr.Wrap(apperr.KindGeneratorTimeout, err, "generator call timed out")
		}

		if attempt < len(e.Cfg.RetryScheduleMS) {
			if sleepErr := sleepBackoff(ctx, e.Cfg.RetryScheduleMS, attempt); sleepErr != nil {
				lastErr = sleepErr
				break
			}
		}
	}

	return GenerateResponse{}, apperr.Wrap(apperr.KindGeneratorUnavailable, lastErr, "generator unavailable after retries")
}

func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")
}
