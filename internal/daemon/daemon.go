// Package daemon implements the Improvement Daemon (C11): a background
// loop that periodically (or on explicit request) re-runs the Population
// Loop against the golden set and gates promotion of its result into the
// live serving population (spec.md §4.11).
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quillhq/promptforge/internal/evo"
	"github.com/quillhq/promptforge/internal/genome"
	"github.com/quillhq/promptforge/pkg/config"
)

// PromotionEvent carries the top genomes of an improvement run that beat
// the live baseline by at least Delta (spec.md §4.11). Consumers such as
// the Router are not required to act on it.
type PromotionEvent struct {
	NewBestScore  float64
	LiveBestScore float64
	TopGenomes    []genome.Genome
}

// Sink receives promotion events. Defined here (consumer side) so a
// router package can implement it without daemon depending on router.
type Sink interface {
	Promote(event PromotionEvent)
}

// Daemon runs improvement cycles on a schedule and on demand.
type Daemon struct {
	cfg      *config.DaemonConfig
	base     genome.Genome
	newRun   func(runID string) (*evo.Run, error) // factory so each cycle gets a fresh history log
	liveBest func() float64                       // current live baseline score, supplied by the caller
	sink     Sink

	triggerCh chan struct{}
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// New constructs a Daemon. newRun must build a *evo.Run wired to a fresh
// history log for the given run id; liveBest reports the live baseline's
// current best score for the promotion gate.
func New(cfg *config.DaemonConfig, base genome.Genome, newRun func(runID string) (*evo.Run, error), liveBest func() float64, sink Sink) *Daemon {
	return &Daemon{
		cfg:       cfg,
		base:      base,
		newRun:    newRun,
		liveBest:  liveBest,
		sink:      sink,
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start begins the scheduling loop in a goroutine.
func (d *Daemon) Start(ctx context.Context) {
	d.wg.Add(1)
	go d.run(ctx)
}

// Stop signals the loop to exit and waits for it to finish. Safe to call
// more than once.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
	d.wg.Wait()
}

// TriggerNow requests an out-of-schedule improvement cycle. Non-blocking:
// if a trigger is already pending, this is a no-op.
func (d *Daemon) TriggerNow() {
	select {
	case d.triggerCh <- struct{}{}:
	default:
	}
}

func (d *Daemon) run(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := slog.With("component", "daemon")
	log.Info("improvement daemon started", "interval_seconds", d.cfg.IntervalSeconds)

	for {
		select {
		case <-d.stopCh:
			log.Info("improvement daemon stopping")
			return
		case <-ctx.Done():
			log.Info("improvement daemon context cancelled")
			return
		case <-ticker.C:
			d.runCycle(ctx, log)
		case <-d.triggerCh:
			d.runCycle(ctx, log)
			ticker.Reset(interval)
		}
	}
}

// runCycle executes one Population Loop run and applies the promotion
// gate: if best_score_new >= best_score_live + Delta, emit a
// PromotionEvent; otherwise it is a no-op (spec.md §4.11).
func (d *Daemon) runCycle(ctx context.Context, log *slog.Logger) {
	runID := time.Now().UTC().Format("20060102T150405.000000000Z")
	run, err := d.newRun(runID)
	if err != nil {
		log.Error("improvement cycle aborted: run setup failed", "error", err)
		return
	}

	outcome, err := run.Execute(ctx, d.base)
	if err != nil {
		log.Error("improvement cycle failed", "error", err)
		return
	}
	if len(outcome.Records) == 0 {
		return
	}

	newBest := outcome.Records[len(outcome.Records)-1].BestScore
	liveBest := 0.0
	if d.liveBest != nil {
		liveBest = d.liveBest()
	}

	log.Info("improvement cycle complete", "run_id", runID, "new_best", newBest, "live_best", liveBest)

	if newBest >= liveBest+d.cfg.PromotionDelta {
		log.Info("promotion gate passed", "run_id", runID, "delta", newBest-liveBest)
		if d.sink != nil {
			d.sink.Promote(PromotionEvent{
				NewBestScore:  newBest,
				LiveBestScore: liveBest,
				TopGenomes:    []genome.Genome{outcome.Best},
			})
		}
	}
}
