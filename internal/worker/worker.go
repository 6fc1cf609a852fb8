// Package worker drains the persisted job queue: it claims pending solve
// jobs on a tick, runs the allocation pipeline, stores the result, and
// publishes lifecycle events.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/Qini/internal/catalog"
	"github.com/MikeSquared-Agency/Qini/internal/config"
	"github.com/MikeSquared-Agency/Qini/internal/events"
	"github.com/MikeSquared-Agency/Qini/internal/metrics"
	"github.com/MikeSquared-Agency/Qini/internal/solver"
	"github.com/MikeSquared-Agency/Qini/internal/store"
)

type Worker struct {
	store  store.Store
	events events.Client
	solver *solver.Solver
	cfg    *config.Config
	logger *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wakeCh   chan struct{}
	wg       sync.WaitGroup
}

func New(s store.Store, ev events.Client, sol *solver.Solver, cfg *config.Config, logger *slog.Logger) *Worker {
	return &Worker{
		store:  s,
		events: ev,
		solver: sol,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		wakeCh: make(chan struct{}, 1),
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(2)
	go w.jobLoop(ctx)
	go w.staleLoop(ctx)
}

func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// SetupSubscriptions registers NATS subscriptions so freshly created jobs
// are claimed right away instead of waiting out the next tick.
func (w *Worker) SetupSubscriptions() {
	if w.events == nil {
		return
	}

	_ = w.events.Subscribe("qini.job.*.created", func(_ string, data []byte) {
		var evt events.JobCreatedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			w.logger.Warn("invalid job created event", "error", err)
			return
		}
		w.logger.Debug("job created event received", "job_id", evt.JobID)
		select {
		case w.wakeCh <- struct{}{}:
		default:
		}
	})
}

func (w *Worker) jobLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPendingJobs(ctx)
		case <-w.wakeCh:
			w.processPendingJobs(ctx)
		}
	}
}

func (w *Worker) processPendingJobs(ctx context.Context) {
	jobs, err := w.store.ClaimPendingJobs(ctx, w.cfg.Worker.BatchSize)
	if err != nil {
		w.logger.Error("failed to claim pending jobs", "error", err)
		return
	}

	for _, job := range jobs {
		w.publish(events.SubjectJobStarted(job.ID.String()), events.JobStartedEvent{JobID: job.ID.String()})
		w.runJob(ctx, job)
	}
}

func (w *Worker) runJob(ctx context.Context, job *store.Job) {
	start := time.Now()

	if job.Request == nil {
		w.failJob(ctx, job, "job has no request payload")
		return
	}

	dataset, err := catalog.FromNested(job.Request.Treatments, job.Request.Rewards, job.Request.Costs)
	if err != nil {
		w.failJob(ctx, job, "invalid request: "+err.Error())
		return
	}

	path, err := w.solver.Solve(ctx, dataset.Units, job.Budget)
	if err != nil {
		w.failJob(ctx, job, "solve: "+err.Error())
		return
	}

	result := &store.JobResult{
		Steps:    make([]store.ResultStep, 0, len(path.Steps)),
		Complete: path.Complete,
	}
	for _, step := range path.Steps {
		result.Steps = append(result.Steps, store.ResultStep{
			Unit:      step.Unit,
			Treatment: dataset.Label(step.TreatmentID),
			Spend:     step.Spend,
			Reward:    step.Reward,
		})
	}

	now := time.Now()
	job.Status = store.StatusCompleted
	job.CompletedAt = &now
	job.Result = result
	job.PathSteps = len(result.Steps)
	job.TotalSpend = path.TotalSpend()
	job.TotalReward = path.TotalReward()

	if err := w.store.UpdateJob(ctx, job); err != nil {
		w.logger.Error("failed to store job result", "job_id", job.ID, "error", err)
		return
	}

	elapsed := time.Since(start)
	metrics.ObserveSolve(true, elapsed, len(result.Steps))
	w.logger.Info("job solved",
		"job_id", job.ID,
		"units", job.Units,
		"steps", len(result.Steps),
		"complete", path.Complete,
		"duration_ms", elapsed.Milliseconds(),
	)
	w.publish(events.SubjectJobCompleted(job.ID.String()), events.JobCompletedEvent{
		JobID:       job.ID.String(),
		Steps:       len(result.Steps),
		Complete:    path.Complete,
		TotalSpend:  job.TotalSpend,
		TotalReward: job.TotalReward,
		DurationMs:  elapsed.Milliseconds(),
	})
}

func (w *Worker) failJob(ctx context.Context, job *store.Job, reason string) {
	now := time.Now()
	job.Status = store.StatusFailed
	job.CompletedAt = &now
	job.Error = reason

	if err := w.store.UpdateJob(ctx, job); err != nil {
		w.logger.Error("failed to mark job failed", "job_id", job.ID, "error", err)
		return
	}

	metrics.ObserveSolve(false, 0, 0)
	w.logger.Warn("job failed", "job_id", job.ID, "reason", reason)
	w.publish(events.SubjectJobFailed(job.ID.String()), events.JobFailedEvent{
		JobID: job.ID.String(),
		Error: reason,
	})
}

func (w *Worker) publish(subject string, data interface{}) {
	if w.events == nil {
		return
	}
	if err := w.events.Publish(subject, data); err != nil {
		w.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
