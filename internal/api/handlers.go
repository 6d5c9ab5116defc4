package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quillhq/promptforge/internal/executor"
	"github.com/quillhq/promptforge/internal/genome"
	"github.com/quillhq/promptforge/pkg/apperr"
	"github.com/quillhq/promptforge/pkg/version"
)

// miproMetaPrompt is the fixed one-shot rewrite prompt applied to the
// base rubric before the Population Loop when use_mipro is requested
// (spec.md §8: "MIPROv2 prompt-text optimization... a one-shot rewrite
// of the base rubric").
const miproMetaPrompt = "Rewrite the following prompt rubric to maximize clarity and task performance, preserving its original intent:\n\n%s"

// optimizeRequest is POST /optimize's body (spec.md §4.13).
type optimizeRequest struct {
	NumGenerations int  `json:"num_generations"`
	UseMIPRO       bool `json:"use_mipro"`
}

// optimizeResponse is POST /optimize's body (spec.md §4.13).
type optimizeResponse struct {
	BestGenome genome.Genome   `json:"best_genome"`
	History    []historyRecord `json:"history"`
}

type historyRecord struct {
	Generation   int     `json:"generation"`
	BestScore    float64 `json:"best_score"`
	MeanScore    float64 `json:"mean_score"`
	BestGenomeID string  `json:"best_genome_id"`
	Timestamp    int64   `json:"timestamp"`
}

// handleOptimize handles POST /optimize.
func (s *Server) handleOptimize(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, apperr.Wrap(apperr.KindInvalidInput, err, "invalid optimize request body"))
		return
	}

	base := s.baseGenome
	if req.UseMIPRO && s.generator != nil {
		rewritten, err := s.rewriteBaseRubric(c.Request.Context(), base)
		if err != nil {
			writeError(c, apperr.Wrap(apperr.KindInternal, err, "mipro rewrite failed"))
			return
		}
		base = rewritten
	}

	outcome, err := s.optimizer.Execute(c.Request.Context(), base, req.NumGenerations)
	if err != nil {
		writeError(c, err)
		return
	}

	if s.registry != nil {
		s.registry(outcome.Best)
	}

	history := make([]historyRecord, len(outcome.Records))
	for i, r := range outcome.Records {
		history[i] = historyRecord(r)
	}

	c.JSON(http.StatusOK, optimizeResponse{BestGenome: outcome.Best, History: history})
}

func (s *Server) rewriteBaseRubric(ctx context.Context, base genome.Genome) (genome.Genome, error) {
	resp, err := s.generator.Generate(ctx, executor.GenerateRequest{
		ModelKey:    base.ModelKey,
		Prompt:      fmt.Sprintf(miproMetaPrompt, base.Rubric),
		Temperature: 0.3,
		MaxTokens:   512,
		NSamples:    1,
	})
	if err != nil {
		return genome.Genome{}, err
	}
	f := base.Fields()
	if len(resp.Texts) > 0 {
		f.Rubric = resp.Texts[0]
	}
	return genome.New(f, base.Generation)
}

// generateRequest is POST /generate's body: a live, per-request call
// routed through the bandit-fronted Router (spec.md §4.15).
type generateRequest struct {
	Intent   string            `json:"intent"`
	Prompt   string            `json:"prompt" binding:"required"`
	Tools    []string          `json:"tools,omitempty"`
	Expected string            `json:"expected,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// handleGenerate handles POST /generate.
func (s *Server) handleGenerate(c *gin.Context) {
	if s.router == nil {
		writeError(c, apperr.New(apperr.KindInternal, "router is not configured"))
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Wrap(apperr.KindInvalidInput, err, "invalid generate request body"))
		return
	}

	spec := genome.PromptSpec{
		Intent:   req.Intent,
		Prompt:   req.Prompt,
		Tools:    req.Tools,
		Expected: req.Expected,
	}
	if err := spec.Validate(); err != nil {
		writeError(c, apperr.Wrap(apperr.KindInvalidInput, err, "invalid prompt spec"))
		return
	}

	m, err := s.router.Route(c.Request.Context(), spec)
	if err != nil {
		writeError(c, apperr.Wrap(apperr.KindInternal, err, "route failed"))
		return
	}

	c.JSON(http.StatusOK, m)
}

// ragQueryRequest is POST /rag/query's body (spec.md §4.13).
type ragQueryRequest struct {
	Query  string `json:"query" binding:"required"`
	K      int    `json:"k"`
	Method string `json:"method"`
}

// handleRAGQuery handles POST /rag/query.
func (s *Server) handleRAGQuery(c *gin.Context) {
	var req ragQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Wrap(apperr.KindInvalidInput, err, "invalid rag query request body"))
		return
	}
	if req.K <= 0 {
		req.K = 10
	}

	result, err := s.ragSvc.Query(c.Request.Context(), req.Query, req.K, methodFromString(req.Method))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":    result.Results,
		"latency_ms": result.LatencyMS,
		"cache_hit":  result.CacheHit,
	})
}

// handleRAGMetrics handles GET /rag/metrics.
func (s *Server) handleRAGMetrics(c *gin.Context) {
	m := s.ragSvc.Metrics()
	c.JSON(http.StatusOK, gin.H{
		"cache_hit_ratio": m.CacheHitRatio,
		"avg_latency_ms":  m.AvgLatencyMS,
		"total_queries":   m.TotalQueries,
		"doc_count":       m.DocCount,
	})
}

// handleBanditStats handles GET /bandit/stats.
func (s *Server) handleBanditStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"arms": s.bandit.Stats()})
}

// handleHealth handles GET /health (spec.md §4.13: "component readiness
// flags").
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": version.Full(),
		"components": gin.H{
			"optimizer": s.optimizer != nil,
			"rag":       s.ragSvc != nil,
			"bandit":    s.bandit != nil,
			"router":    s.router != nil,
		},
	})
}
