package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// JobRequest is the persisted solve input in the nested ingestion shape.
type JobRequest struct {
	Treatments [][]string  `json:"treatments"`
	Rewards    [][]float64 `json:"rewards"`
	Costs      [][]float64 `json:"costs"`
}

// ResultStep is one allocation decision with the treatment label resolved.
type ResultStep struct {
	Unit      int     `json:"unit"`
	Treatment string  `json:"treatment"`
	Spend     float64 `json:"spend"`
	Reward    float64 `json:"reward"`
}

// JobResult is the persisted solution path.
type JobResult struct {
	Steps    []ResultStep `json:"steps"`
	Complete bool         `json:"complete"`
}

type Job struct {
	ID          uuid.UUID `json:"job_id"`
	SubmittedBy string    `json:"submitted_by,omitempty"`
	Budget      float64   `json:"budget"`
	Status      JobStatus `json:"status"`

	Request *JobRequest `json:"request,omitempty"`
	Result  *JobResult  `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`

	// Summary columns, set on completion.
	Units       int     `json:"units"`
	PathSteps   int     `json:"path_steps"`
	TotalSpend  float64 `json:"total_spend"`
	TotalReward float64 `json:"total_reward"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type JobFilter struct {
	Status      *JobStatus
	SubmittedBy string
	Limit       int
	Offset      int
}

type JobStats struct {
	TotalPending   int     `json:"total_pending"`
	TotalRunning   int     `json:"total_running"`
	TotalCompleted int     `json:"total_completed"`
	TotalFailed    int     `json:"total_failed"`
	AvgSolveMs     float64 `json:"avg_solve_ms"`
}

type Store interface {
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*Job, error)
	UpdateJob(ctx context.Context, job *Job) error

	// ClaimPendingJobs atomically flips up to limit pending jobs to running
	// and returns them; concurrent workers never claim the same job.
	ClaimPendingJobs(ctx context.Context, limit int) ([]*Job, error)
	GetRunningJobs(ctx context.Context) ([]*Job, error)

	GetStats(ctx context.Context) (*JobStats, error)
	Close() error
}
