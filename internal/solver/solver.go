// Package solver sequences the allocation pipeline: catalog output goes
// through hull reduction, then through the budget-ordered path merge.
package solver

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Qini/internal/maq"
)

// Hooks are optional callbacks fired at pipeline stage boundaries. They are
// the observability seam: metrics and debug timing attach here instead of
// being wired into the kernel.
type Hooks struct {
	// StageDone fires after each stage ("reduce", "path") with its wall time.
	StageDone func(stage string, d time.Duration)
}

// Solver runs the two-stage pipeline. Hull reduction is a parallel
// work-sharing map over units (each unit reads only its own input and
// writes only its own slot); the path merge is inherently sequential, its
// single priority queue being the serialization point.
type Solver struct {
	parallelism int
	hooks       Hooks
	logger      *slog.Logger
}

// New creates a Solver. parallelism <= 0 means one worker per CPU.
func New(parallelism int, hooks Hooks, logger *slog.Logger) *Solver {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return &Solver{parallelism: parallelism, hooks: hooks, logger: logger}
}

// Solve reduces every unit to its efficient frontier and merges the
// frontiers into the allocation path for the given budget. The units slices
// are filtered in place; callers must treat them as consumed.
func (s *Solver) Solve(ctx context.Context, units [][]maq.Treatment, budget float64) (*maq.Path, error) {
	if budget < 0 {
		return nil, fmt.Errorf("budget must be non-negative, got %v", budget)
	}

	start := time.Now()
	if err := s.reduce(ctx, units); err != nil {
		return nil, err
	}
	s.stageDone("reduce", time.Since(start))

	start = time.Now()
	path, err := maq.BuildPath(units, budget)
	if err != nil {
		return nil, fmt.Errorf("build path: %w", err)
	}
	s.stageDone("path", time.Since(start))

	return path, nil
}

func (s *Solver) reduce(ctx context.Context, units [][]maq.Treatment) error {
	if len(units) == 0 {
		return nil
	}
	workers := s.parallelism
	if workers > len(units) {
		workers = len(units)
	}
	if workers == 1 {
		maq.Reduce(units)
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(units) + workers - 1) / workers
	for lo := 0; lo < len(units); lo += chunk {
		hi := min(lo+chunk, len(units))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				units[i] = maq.ReduceUnit(units[i])
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Solver) stageDone(stage string, d time.Duration) {
	if s.logger != nil {
		s.logger.Debug("solver stage done", "stage", stage, "duration_ms", d.Milliseconds())
	}
	if s.hooks.StageDone != nil {
		s.hooks.StageDone(stage, d)
	}
}
