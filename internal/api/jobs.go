package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Qini/internal/catalog"
	"github.com/MikeSquared-Agency/Qini/internal/events"
	"github.com/MikeSquared-Agency/Qini/internal/store"
)

type JobsHandler struct {
	store    store.Store
	events   events.Client
	maxUnits int
	logger   *slog.Logger
}

func NewJobsHandler(s store.Store, ev events.Client, maxUnits int, logger *slog.Logger) *JobsHandler {
	return &JobsHandler{store: s, events: ev, maxUnits: maxUnits, logger: logger}
}

// Create enqueues a solve job. The request is validated up front so callers
// learn about ragged arrays at submission, not from a failed job later.
func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Budget < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "budget must be non-negative"})
		return
	}
	if h.maxUnits > 0 && len(req.Treatments) > h.maxUnits {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "too many units"})
		return
	}
	if _, err := catalog.FromNested(req.Treatments, req.Rewards, req.Costs); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	job := &store.Job{
		SubmittedBy: r.Header.Get("X-Client-ID"),
		Budget:      req.Budget,
		Status:      store.StatusPending,
		Units:       len(req.Treatments),
		Request: &store.JobRequest{
			Treatments: req.Treatments,
			Rewards:    req.Rewards,
			Costs:      req.Costs,
		},
	}
	if err := h.store.CreateJob(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.events != nil {
		err := h.events.Publish(events.SubjectJobCreated(job.ID.String()), events.JobCreatedEvent{
			JobID:       job.ID.String(),
			SubmittedBy: job.SubmittedBy,
			Units:       job.Units,
			Budget:      job.Budget,
		})
		if err != nil {
			h.logger.Warn("failed to publish job created event", "job_id", job.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, job)
}

func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.JobFilter{
		SubmittedBy: r.URL.Query().Get("submitted_by"),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := store.JobStatus(s)
		filter.Status = &status
	}

	jobs, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if jobs == nil {
		jobs = []*store.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job id"})
		return
	}

	job, err := h.store.GetJob(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if job == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// CurveResponse is the spend/reward series of a job's path, ready for
// charting as a Qini curve.
type CurveResponse struct {
	Spend    []float64 `json:"spend"`
	Reward   []float64 `json:"reward"`
	Complete bool      `json:"complete"`
}

func (h *JobsHandler) Curve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job id"})
		return
	}

	job, err := h.store.GetJob(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if job == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	if job.Result == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "job has no result yet"})
		return
	}

	resp := CurveResponse{
		Spend:    make([]float64, 0, len(job.Result.Steps)),
		Reward:   make([]float64, 0, len(job.Result.Steps)),
		Complete: job.Result.Complete,
	}
	for _, step := range job.Result.Steps {
		resp.Spend = append(resp.Spend, step.Spend)
		resp.Reward = append(resp.Reward, step.Reward)
	}
	writeJSON(w, http.StatusOK, resp)
}
