package maq

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
)

// ErrFrontierOrder reports a frontier whose costs are not strictly
// increasing. A correct hull reduction can never produce one, so observing
// it means the caller handed BuildPath something that skipped reduction or
// was mutated afterwards.
var ErrFrontierOrder = errors.New("frontier costs not strictly increasing")

// queueElement references a frontier entry structurally by (unit, position)
// rather than holding the entry itself. Frontiers are never mutated once
// reduced, so the indices stay valid across any number of pops and pushes.
type queueElement struct {
	unit     int
	position int
	priority float64
}

// candidateQueue is a max-heap on priority. Equal priorities pop in
// ascending unit order so the output path is deterministic across runs.
type candidateQueue []queueElement

func (q candidateQueue) Len() int { return len(q) }

func (q candidateQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].unit < q[j].unit
}

func (q candidateQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *candidateQueue) Push(x interface{}) {
	*q = append(*q, x.(queueElement))
}

func (q *candidateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}

// seedPriority is the raw value density of a frontier's opening entry. Cost
// zero with positive reward is a free improvement and outranks everything;
// the infinity is assigned explicitly rather than via float division.
func seedPriority(t Treatment) float64 {
	if t.Cost == 0 {
		return math.Inf(1)
	}
	return t.Reward / t.Cost
}

// BuildPath merges the per-unit frontiers into the global budget-ordered
// allocation path via a lazy priority merge. Frontiers are consumed
// read-only and must already satisfy the reduction invariant; BuildPath
// returns ErrFrontierOrder (wrapped) when it observes a violation.
//
// Each unit's queue candidate is keyed by the marginal reward/cost ratio of
// upgrading the unit from its current assignment to the candidate, not the
// raw ratio. The reduction guarantees that ratio strictly decreases along a
// frontier, which is what keeps the greedy merge globally optimal at every
// prefix of the path.
//
// The final committed step may overshoot the budget by its own cost delta:
// the path stops at the nearest feasible step past the bound, never short
// of it.
func BuildPath(frontiers [][]Treatment, budget float64) (*Path, error) {
	// Active assignment per unit: index of the committed frontier entry,
	// offset by one. Zero means no assignment yet.
	active := make([]int, len(frontiers))

	pq := make(candidateQueue, 0, len(frontiers))
	for unit, frontier := range frontiers {
		if len(frontier) == 0 {
			continue
		}
		pq = append(pq, queueElement{unit: unit, position: 0, priority: seedPriority(frontier[0])})
	}
	heap.Init(&pq)

	path := &Path{}
	var spend, reward float64
	for pq.Len() > 0 && spend < budget {
		top := heap.Pop(&pq).(queueElement)
		frontier := frontiers[top.unit]
		cand := frontier[top.position]

		// Upgrade: retract the unit's previous contribution so it counts
		// once, not cumulatively.
		if prev := active[top.unit]; prev > 0 {
			spend -= frontier[prev-1].Cost
			reward -= frontier[prev-1].Reward
		}

		spend += cand.Cost
		reward += cand.Reward
		path.Steps = append(path.Steps, Step{
			Unit:        top.unit,
			TreatmentID: cand.ID,
			Spend:       spend,
			Reward:      reward,
		})
		active[top.unit] = top.position + 1

		if next := top.position + 1; next < len(frontier) {
			costDelta := frontier[next].Cost - cand.Cost
			if costDelta <= 0 {
				return nil, fmt.Errorf("unit %d entries %d-%d: %w", top.unit, top.position, next, ErrFrontierOrder)
			}
			heap.Push(&pq, queueElement{
				unit:     top.unit,
				position: next,
				priority: (frontier[next].Reward - cand.Reward) / costDelta,
			})
		}
	}

	path.Complete = pq.Len() == 0
	return path, nil
}
