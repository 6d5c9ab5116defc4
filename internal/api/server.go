// Package api implements the HTTP Façade (C13): the externally callable
// surface over the Population Loop, RAG Service, and Bandit, plus health
// and metrics endpoints (spec.md §4.13).
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quillhq/promptforge/internal/bandit"
	"github.com/quillhq/promptforge/internal/evo"
	"github.com/quillhq/promptforge/internal/executor"
	"github.com/quillhq/promptforge/internal/genome"
	"github.com/quillhq/promptforge/internal/rag"
	"github.com/quillhq/promptforge/internal/retrieval/hybrid"
	"github.com/quillhq/promptforge/internal/router"
	"github.com/quillhq/promptforge/pkg/config"
)

// OptimizeRunner runs an optimize request and returns its outcome. Bound
// to internal/evo.Run by the caller that wires the server. generations
// overrides the configured generation count when positive; 0 keeps the
// caller's default.
type OptimizeRunner interface {
	Execute(ctx context.Context, base genome.Genome, generations int) (evo.Outcome, error)
}

// Server is the HTTP façade, wiring the gin engine to the optimizer,
// RAG facade, and bandit (spec.md §4.13).
type Server struct {
	engine *gin.Engine
	http   *http.Server

	cfg        *config.ServerConfig
	optimizer  OptimizeRunner
	baseGenome genome.Genome
	ragSvc     *rag.Service
	bandit     *bandit.Bandit
	router     *router.Router
	generator  executor.Generator   // optional, powers the use_mipro one-shot rewrite
	registry   func(genome.Genome)  // upserts a genome into whatever keeps genome_id -> Genome
	reg        *prometheus.Registry
}

// New constructs the Server and registers every route (spec.md §4.13).
func New(cfg *config.ServerConfig, optimizer OptimizeRunner, base genome.Genome, ragSvc *rag.Service, b *bandit.Bandit, reg *prometheus.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:     engine,
		cfg:        cfg,
		optimizer:  optimizer,
		baseGenome: base,
		ragSvc:     ragSvc,
		bandit:     b,
		reg:        reg,
	}
	s.setupRoutes()
	return s
}

// SetRouter wires the bandit-fronted Router (C15) used by POST /generate.
// Without it, /generate responds 500.
func (s *Server) SetRouter(r *router.Router) {
	s.router = r
}

// SetGenerator wires the LLM generator used for the use_mipro one-shot
// rubric rewrite; without it, use_mipro requests are a no-op.
func (s *Server) SetGenerator(gen executor.Generator) {
	s.generator = gen
}

// SetGenomeRegistry wires a callback invoked with every new best genome
// an /optimize run produces, so the Router's GenomeRegistry stays current.
func (s *Server) SetGenomeRegistry(fn func(genome.Genome)) {
	s.registry = fn
}

func (s *Server) setupRoutes() {
	s.engine.POST("/optimize", s.handleOptimize)
	s.engine.POST("/generate", s.handleGenerate)
	s.engine.POST("/rag/query", s.handleRAGQuery)
	s.engine.GET("/rag/metrics", s.handleRAGMetrics)
	s.engine.GET("/bandit/stats", s.handleBanditStats)
	s.engine.GET("/health", s.handleHealth)
	if s.reg != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})))
	}
}

// Start begins serving on cfg.Addr in a goroutine.
func (s *Server) Start() {
	s.http = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Engine exposes the underlying gin.Engine, e.g. for tests using
// httptest.NewServer(s.Engine()).
func (s *Server) Engine() http.Handler {
	return s.engine
}

// methodFromString converts a wire method string to hybrid.Method,
// defaulting to hybrid.MethodHybrid for unknown or empty values.
func methodFromString(s string) hybrid.Method {
	switch hybrid.Method(s) {
	case hybrid.MethodDense, hybrid.MethodLexical, hybrid.MethodHybrid:
		return hybrid.Method(s)
	default:
		return hybrid.MethodHybrid
	}
}
