// Package jobs runs scheduled maintenance work.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"community/internal/middleware"
	"community/internal/observability"
	"community/internal/repository"

	"github.com/robfig/cron/v3"
)

const reconcileTimeout = 5 * time.Minute

// StatsReconciler periodically recomputes board_stats counters from the like and comment tables.
// The toggle keeps counters exact on its own; this catches drift from manual edits or restores.
type StatsReconciler struct {
	store    repository.Store
	schedule string
	engine   *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewStatsReconciler builds a reconciler for a standard five-field cron schedule or a descriptor
// such as "@every 1h". An empty schedule disables it.
func NewStatsReconciler(store repository.Store, schedule string) *StatsReconciler {
	return &StatsReconciler{
		store:    store,
		schedule: schedule,
		engine:   cron.New(),
	}
}

// Start registers the job and starts the cron engine.
func (r *StatsReconciler) Start() error {
	if r.schedule == "" {
		middleware.Logger.Info("stats reconciliation disabled")
		return nil
	}
	if _, err := r.engine.AddJob(r.schedule, r); err != nil {
		return err
	}
	middleware.Logger.Info("stats reconciliation scheduled", slog.String("schedule", r.schedule))
	r.engine.Start()
	return nil
}

// Stop stops scheduling and waits for a running reconciliation to finish or ctx to expire.
func (r *StatsReconciler) Stop(ctx context.Context) {
	done := r.engine.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Run implements cron.Job.
func (r *StatsReconciler) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()
	if _, err := r.RunOnce(ctx); err != nil {
		middleware.Logger.Error("stats reconciliation failed", slog.String("error", err.Error()))
	}
}

// RunOnce reconciles every counter now. Overlapping runs are skipped.
func (r *StatsReconciler) RunOnce(ctx context.Context) (repository.ReconcileResult, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		observability.StatsReconcileRuns.WithLabelValues("skipped").Inc()
		return repository.ReconcileResult{}, nil
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	start := time.Now()
	result, err := r.store.Stats().ReconcileCounts(ctx)
	if err != nil {
		observability.StatsReconcileRuns.WithLabelValues("error").Inc()
		return result, err
	}
	observability.StatsReconcileRuns.WithLabelValues("ok").Inc()
	observability.StatsCorrections.Add(float64(result.Total()))

	level := slog.LevelInfo
	if result.Total() > 0 {
		level = slog.LevelWarn
	}
	middleware.Logger.Log(ctx, level, "stats reconciliation finished",
		slog.Int64("like_rows", result.LikeRows),
		slog.Int64("comment_rows", result.CommentRows),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}
