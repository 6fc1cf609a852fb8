// Package maq implements the two-stage multi-armed Qini kernel: per-unit
// efficient-frontier reduction on the (cost, reward) plane followed by a
// budget-ordered greedy merge of all frontiers into one allocation path.
//
// The package is a pure function of its inputs. It holds no state between
// calls, performs no I/O, and never errors on well-formed input; the only
// error it can return reports a broken frontier-ordering invariant, which is
// a programming defect upstream, not a runtime condition.
package maq

// Treatment is one selectable option for a unit: a dense treatment id plus
// the estimated reward of assigning it and the cost of doing so. Reward may
// be zero or negative; cost is non-negative by the surrounding contract.
type Treatment struct {
	ID     uint32  `json:"id"`
	Reward float64 `json:"reward"`
	Cost   float64 `json:"cost"`
}

// Step is one committed allocation decision: the unit and treatment chosen,
// plus the cumulative spend and reward after the decision took effect.
type Step struct {
	Unit        int     `json:"unit"`
	TreatmentID uint32  `json:"treatment_id"`
	Spend       float64 `json:"spend"`
	Reward      float64 `json:"reward"`
}

// Path is the full allocation sequence as cumulative spend rises from zero
// toward the budget. Every prefix of it is the optimal allocation for the
// corresponding intermediate spend level, so one path answers "what is
// optimal at any budget up to B". Complete is true when every unit's
// frontier was exhausted before the budget bound was hit.
type Path struct {
	Steps    []Step `json:"steps"`
	Complete bool   `json:"complete"`
}

// Curve returns the cumulative spend and reward series traced by the path,
// which is the Qini curve this kernel exists to compute.
func (p *Path) Curve() (spend, reward []float64) {
	spend = make([]float64, len(p.Steps))
	reward = make([]float64, len(p.Steps))
	for i, s := range p.Steps {
		spend[i] = s.Spend
		reward[i] = s.Reward
	}
	return spend, reward
}

// FinalAssignments returns each unit's last committed treatment id, or -1
// for units that never entered the path. Later steps supersede earlier ones:
// a unit appearing twice was upgraded, not treated twice.
func (p *Path) FinalAssignments(numUnits int) []int {
	out := make([]int, numUnits)
	for i := range out {
		out[i] = -1
	}
	for _, s := range p.Steps {
		out[s.Unit] = int(s.TreatmentID)
	}
	return out
}

// TotalSpend returns the cumulative spend after the final step, or 0 for an
// empty path.
func (p *Path) TotalSpend() float64 {
	if len(p.Steps) == 0 {
		return 0
	}
	return p.Steps[len(p.Steps)-1].Spend
}

// TotalReward returns the cumulative reward after the final step, or 0 for
// an empty path.
func (p *Path) TotalReward() float64 {
	if len(p.Steps) == 0 {
		return 0
	}
	return p.Steps[len(p.Steps)-1].Reward
}
