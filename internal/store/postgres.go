package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const jobColumns = `job_id, submitted_by, budget, status,
	request, result, error,
	units, path_steps, total_spend, total_reward,
	created_at, started_at, completed_at, updated_at`

func (s *PostgresStore) CreateJob(ctx context.Context, job *Job) error {
	requestJSON, _ := json.Marshal(job.Request)

	return s.pool.QueryRow(ctx, `
		INSERT INTO qini_jobs (submitted_by, budget, status, request, units)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING job_id, created_at, updated_at`,
		job.SubmittedBy, job.Budget, job.Status, requestJSON, job.Units,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM qini_jobs WHERE job_id = $1`, id)
	job, err := scanJob(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM qini_jobs WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, *filter.Status)
	}
	if filter.SubmittedBy != "" {
		n++
		query += fmt.Sprintf(" AND submitted_by = $%d", n)
		args = append(args, filter.SubmittedBy)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *PostgresStore) UpdateJob(ctx context.Context, job *Job) error {
	resultJSON, _ := json.Marshal(job.Result)

	_, err := s.pool.Exec(ctx, `
		UPDATE qini_jobs
		SET status = $2, result = $3, error = $4,
			path_steps = $5, total_spend = $6, total_reward = $7,
			started_at = $8, completed_at = $9, updated_at = now()
		WHERE job_id = $1`,
		job.ID, job.Status, resultJSON, job.Error,
		job.PathSteps, job.TotalSpend, job.TotalReward,
		job.StartedAt, job.CompletedAt,
	)
	return err
}

func (s *PostgresStore) ClaimPendingJobs(ctx context.Context, limit int) ([]*Job, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE qini_jobs
		SET status = 'running', started_at = now(), updated_at = now()
		WHERE job_id IN (
			SELECT job_id FROM qini_jobs
			WHERE status = 'pending'
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *PostgresStore) GetRunningJobs(ctx context.Context) ([]*Job, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM qini_jobs WHERE status = 'running'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *PostgresStore) GetStats(ctx context.Context) (*JobStats, error) {
	stats := &JobStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'running'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - started_at)) * 1000)
				FILTER (WHERE status = 'completed'), 0)
		FROM qini_jobs`,
	).Scan(&stats.TotalPending, &stats.TotalRunning, &stats.TotalCompleted, &stats.TotalFailed, &stats.AvgSolveMs)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*Job, error) {
	j := &Job{}
	var requestJSON, resultJSON []byte
	var submittedBy, jobError sql.NullString
	err := row.Scan(
		&j.ID, &submittedBy, &j.Budget, &j.Status,
		&requestJSON, &resultJSON, &jobError,
		&j.Units, &j.PathSteps, &j.TotalSpend, &j.TotalReward,
		&j.CreatedAt, &j.StartedAt, &j.CompletedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if submittedBy.Valid {
		j.SubmittedBy = submittedBy.String
	}
	if jobError.Valid {
		j.Error = jobError.String
	}
	if len(requestJSON) > 0 && string(requestJSON) != "null" {
		j.Request = &JobRequest{}
		_ = json.Unmarshal(requestJSON, j.Request)
	}
	if len(resultJSON) > 0 && string(resultJSON) != "null" {
		j.Result = &JobResult{}
		_ = json.Unmarshal(resultJSON, j.Result)
	}
	return j, nil
}

func scanJobs(rows pgx.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
