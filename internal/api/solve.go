package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/Qini/internal/catalog"
	"github.com/MikeSquared-Agency/Qini/internal/metrics"
	"github.com/MikeSquared-Agency/Qini/internal/solver"
)

// SolveRequest carries the nested ingestion shape: parallel per-unit lists
// of treatment labels, rewards, and costs, plus the budget ceiling.
type SolveRequest struct {
	Treatments [][]string  `json:"treatments"`
	Rewards    [][]float64 `json:"rewards"`
	Costs      [][]float64 `json:"costs"`
	Budget     float64     `json:"budget"`
}

type SolveStep struct {
	Unit      int     `json:"unit"`
	Treatment string  `json:"treatment"`
	Spend     float64 `json:"spend"`
	Reward    float64 `json:"reward"`
}

type SolveResponse struct {
	Steps       []SolveStep `json:"steps"`
	Complete    bool        `json:"complete"`
	TotalSpend  float64     `json:"total_spend"`
	TotalReward float64     `json:"total_reward"`
}

type SolveHandler struct {
	solver   *solver.Solver
	maxUnits int
	logger   *slog.Logger
}

func NewSolveHandler(sol *solver.Solver, maxUnits int, logger *slog.Logger) *SolveHandler {
	return &SolveHandler{solver: sol, maxUnits: maxUnits, logger: logger}
}

// Solve runs the allocation pipeline synchronously and returns the full
// path. Large or repeated workloads belong on the job queue instead.
func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
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

	dataset, err := catalog.FromNested(req.Treatments, req.Rewards, req.Costs)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	start := time.Now()
	path, err := h.solver.Solve(r.Context(), dataset.Units, req.Budget)
	if err != nil {
		metrics.ObserveSolve(false, 0, 0)
		h.logger.Error("solve failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	metrics.ObserveSolve(true, time.Since(start), len(path.Steps))

	resp := SolveResponse{
		Steps:       make([]SolveStep, 0, len(path.Steps)),
		Complete:    path.Complete,
		TotalSpend:  path.TotalSpend(),
		TotalReward: path.TotalReward(),
	}
	for _, step := range path.Steps {
		resp.Steps = append(resp.Steps, SolveStep{
			Unit:      step.Unit,
			Treatment: dataset.Label(step.TreatmentID),
			Spend:     step.Spend,
			Reward:    step.Reward,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
