package maq

import (
	"errors"
	"math"
	"testing"
)

func reducedUnits(t *testing.T, units [][]Treatment) [][]Treatment {
	t.Helper()
	Reduce(units)
	return units
}

func TestBuildPathMonotonicity(t *testing.T) {
	units := reducedUnits(t, [][]Treatment{
		{{ID: 1, Reward: 15, Cost: 10}, {ID: 2, Reward: 30, Cost: 21}},
		{{ID: 3, Reward: 18, Cost: 14}},
		{{ID: 4, Reward: 10, Cost: 8}, {ID: 5, Reward: 19, Cost: 16}},
	})
	path, err := BuildPath(units, 100)
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	if len(path.Steps) == 0 {
		t.Fatal("expected non-empty path")
	}
	for i := 1; i < len(path.Steps); i++ {
		if path.Steps[i].Spend < path.Steps[i-1].Spend {
			t.Errorf("spend decreased at step %d: %v -> %v", i, path.Steps[i-1].Spend, path.Steps[i].Spend)
		}
		if path.Steps[i].Reward < path.Steps[i-1].Reward {
			t.Errorf("reward decreased at step %d: %v -> %v", i, path.Steps[i-1].Reward, path.Steps[i].Reward)
		}
	}
}

func TestBuildPathUpgradeRetractsPriorContribution(t *testing.T) {
	units := reducedUnits(t, [][]Treatment{
		{{ID: 1, Reward: 15, Cost: 10}, {ID: 2, Reward: 30, Cost: 21}},
	})
	path, err := BuildPath(units, 100)
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	if len(path.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(path.Steps))
	}
	// After upgrading, the totals reflect only the new assignment.
	if path.Steps[1].Spend != 21 {
		t.Errorf("expected spend 21 after upgrade, got %v", path.Steps[1].Spend)
	}
	if path.Steps[1].Reward != 30 {
		t.Errorf("expected reward 30 after upgrade, got %v", path.Steps[1].Reward)
	}
	if !path.Complete {
		t.Error("expected complete path")
	}
}

func TestBuildPathSingleActiveContribution(t *testing.T) {
	units := reducedUnits(t, [][]Treatment{
		{{ID: 1, Reward: 15, Cost: 10}, {ID: 2, Reward: 30, Cost: 21}},
		{{ID: 3, Reward: 18, Cost: 15}, {ID: 4, Reward: 32, Cost: 25}},
		{{ID: 5, Reward: 10, Cost: 8}, {ID: 6, Reward: 19, Cost: 16}},
	})
	path, err := BuildPath(units, 1000)
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}

	// Replay the path: at every prefix the running totals must equal the sum
	// over units of the most recently committed treatment only.
	active := make(map[int]Step)
	for i, step := range path.Steps {
		active[step.Unit] = step
		var spend, reward float64
		for unit, s := range active {
			cost, rew := treatmentByID(t, units[unit], s.TreatmentID)
			spend += cost
			reward += rew
		}
		if math.Abs(spend-step.Spend) > 1e-9 {
			t.Errorf("step %d: spend %v, expected %v from active assignments", i, step.Spend, spend)
		}
		if math.Abs(reward-step.Reward) > 1e-9 {
			t.Errorf("step %d: reward %v, expected %v from active assignments", i, step.Reward, reward)
		}
	}
}

func treatmentByID(t *testing.T, frontier []Treatment, id uint32) (cost, reward float64) {
	t.Helper()
	for _, tr := range frontier {
		if tr.ID == id {
			return tr.Cost, tr.Reward
		}
	}
	t.Fatalf("treatment %d not found in frontier", id)
	return 0, 0
}

func TestBuildPathZeroBudget(t *testing.T) {
	units := reducedUnits(t, [][]Treatment{
		{{ID: 1, Reward: 10, Cost: 5}},
	})
	path, err := BuildPath(units, 0)
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	if len(path.Steps) != 0 {
		t.Errorf("expected empty path at zero budget, got %d steps", len(path.Steps))
	}
	if path.Complete {
		t.Error("expected incomplete path: a non-empty frontier was never exhausted")
	}
}

func TestBuildPathZeroBudgetAllEmpty(t *testing.T) {
	path, err := BuildPath([][]Treatment{nil, {}}, 0)
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	if len(path.Steps) != 0 || !path.Complete {
		t.Errorf("expected empty complete path, got %d steps, complete=%v", len(path.Steps), path.Complete)
	}
}

func TestBuildPathLargeBudgetComplete(t *testing.T) {
	units := reducedUnits(t, [][]Treatment{
		{{ID: 1, Reward: 15, Cost: 10}, {ID: 2, Reward: 30, Cost: 21}},
		{{ID: 3, Reward: 18, Cost: 15}, {ID: 4, Reward: 32, Cost: 25}},
	})
	path, err := BuildPath(units, 1e9)
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	if !path.Complete {
		t.Error("expected complete path with an exhausting budget")
	}
	assigned := path.FinalAssignments(len(units))
	if assigned[0] != 2 || assigned[1] != 4 {
		t.Errorf("expected final assignments [2 4], got %v", assigned)
	}
}

func TestBuildPathBudgetOvershootByOneStep(t *testing.T) {
	units := reducedUnits(t, [][]Treatment{
		{{ID: 1, Reward: 10, Cost: 6}},
		{{ID: 2, Reward: 8, Cost: 6}},
		{{ID: 3, Reward: 6, Cost: 6}},
	})
	path, err := BuildPath(units, 13)
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	// Steps at spend 6, 12, 18: the loop commits the step that crosses the
	// bound, then stops.
	if len(path.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(path.Steps))
	}
	if path.Steps[len(path.Steps)-2].Spend > 13 {
		t.Errorf("second-to-last step overshoots budget: %v", path.Steps[len(path.Steps)-2].Spend)
	}
	if path.Steps[len(path.Steps)-1].Spend != 18 {
		t.Errorf("expected final spend 18, got %v", path.Steps[len(path.Steps)-1].Spend)
	}
}

func TestBuildPathTieBreakAscendingUnit(t *testing.T) {
	units := [][]Treatment{
		{{ID: 1, Reward: 10, Cost: 5}},
		{{ID: 2, Reward: 10, Cost: 5}},
		{{ID: 3, Reward: 10, Cost: 5}},
	}
	for run := 0; run < 10; run++ {
		path, err := BuildPath(units, 100)
		if err != nil {
			t.Fatalf("BuildPath failed: %v", err)
		}
		for i, step := range path.Steps {
			if step.Unit != i {
				t.Fatalf("run %d: expected equal-priority units in ascending order, got unit %d at step %d", run, step.Unit, i)
			}
		}
	}
}

func TestBuildPathZeroCostOpeningEntry(t *testing.T) {
	units := [][]Treatment{
		{{ID: 1, Reward: 5, Cost: 0}, {ID: 2, Reward: 8, Cost: 4}},
		{{ID: 3, Reward: 100, Cost: 10}},
	}
	path, err := BuildPath(units, 1)
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	// The free improvement allocates before anything else, regardless of how
	// attractive other units look.
	if len(path.Steps) == 0 || path.Steps[0].TreatmentID != 1 {
		t.Fatalf("expected zero-cost treatment first, got %+v", path.Steps)
	}
	if path.Steps[0].Spend != 0 || path.Steps[0].Reward != 5 {
		t.Errorf("expected step (spend 0, reward 5), got (%v, %v)", path.Steps[0].Spend, path.Steps[0].Reward)
	}
}

func TestBuildPathFrontierOrderViolation(t *testing.T) {
	// Equal consecutive costs can never come out of a correct reduction;
	// BuildPath must refuse rather than divide by zero.
	units := [][]Treatment{
		{{ID: 1, Reward: 10, Cost: 5}, {ID: 2, Reward: 20, Cost: 5}},
	}
	_, err := BuildPath(units, 100)
	if !errors.Is(err, ErrFrontierOrder) {
		t.Fatalf("expected ErrFrontierOrder, got %v", err)
	}
}

func TestDominatedTreatmentNeverSelected(t *testing.T) {
	for _, budget := range []float64{1, 5, 10, 15, 20, 100} {
		units := reducedUnits(t, [][]Treatment{
			{{ID: 1, Reward: 10, Cost: 5}, {ID: 2, Reward: 12, Cost: 10}, {ID: 3, Reward: 30, Cost: 15}},
		})
		path, err := BuildPath(units, budget)
		if err != nil {
			t.Fatalf("budget %v: BuildPath failed: %v", budget, err)
		}
		for _, step := range path.Steps {
			if step.TreatmentID == 2 {
				t.Errorf("budget %v: dominated treatment 2 appeared in path", budget)
			}
		}
	}
}

func TestPathCurveAndTotals(t *testing.T) {
	units := reducedUnits(t, [][]Treatment{
		{{ID: 1, Reward: 10, Cost: 5}, {ID: 2, Reward: 20, Cost: 10}},
	})
	path, err := BuildPath(units, 100)
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	spend, reward := path.Curve()
	if len(spend) != len(path.Steps) || len(reward) != len(path.Steps) {
		t.Fatalf("curve length mismatch: %d spend, %d reward, %d steps", len(spend), len(reward), len(path.Steps))
	}
	if path.TotalSpend() != spend[len(spend)-1] {
		t.Errorf("TotalSpend %v != last curve point %v", path.TotalSpend(), spend[len(spend)-1])
	}
	if path.TotalReward() != reward[len(reward)-1] {
		t.Errorf("TotalReward %v != last curve point %v", path.TotalReward(), reward[len(reward)-1])
	}

	empty := &Path{}
	if empty.TotalSpend() != 0 || empty.TotalReward() != 0 {
		t.Error("expected zero totals for empty path")
	}
}
