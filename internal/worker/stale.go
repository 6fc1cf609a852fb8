package worker

import (
	"context"
	"time"

	"github.com/MikeSquared-Agency/Qini/internal/events"
	"github.com/MikeSquared-Agency/Qini/internal/store"
)

// staleLoop fails jobs stuck in running beyond the configured timeout:
// a worker crash mid-solve must not strand its claims forever.
func (w *Worker) staleLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.checkStaleJobs(ctx)
		}
	}
}

func (w *Worker) checkStaleJobs(ctx context.Context) {
	jobs, err := w.store.GetRunningJobs(ctx)
	if err != nil {
		w.logger.Error("failed to get running jobs for stale check", "error", err)
		return
	}

	now := time.Now()
	timeout := w.cfg.JobTimeout()
	for _, job := range jobs {
		if job.StartedAt == nil || now.Sub(*job.StartedAt) <= timeout {
			continue
		}

		w.logger.Warn("job exceeded solve timeout", "job_id", job.ID, "started_at", job.StartedAt)

		job.Status = store.StatusFailed
		job.CompletedAt = &now
		job.Error = "solve timed out"
		if err := w.store.UpdateJob(ctx, job); err != nil {
			w.logger.Error("failed to fail stale job", "job_id", job.ID, "error", err)
			continue
		}
		w.publish(events.SubjectJobFailed(job.ID.String()), events.JobFailedEvent{
			JobID: job.ID.String(),
			Error: "solve timed out",
		})
	}
}
