package maq

import "sort"

// dominates reports whether the candidate makes the current top of the
// selection stack redundant. With j = next-to-top, k = top, l = candidate
// (ordered by cost), k is popped when the slope from k to l exceeds the
// slope from j to k. The comparison is done in cross-multiplied form so no
// division is involved; when the stack holds a single entry a zero-origin
// dummy stands in for j.
func dominates(selections []Treatment, cand Treatment) bool {
	var below Treatment
	if len(selections) >= 2 {
		below = selections[len(selections)-2]
	}
	top := selections[len(selections)-1]
	if top.Reward <= 0 {
		return true
	}
	return (cand.Reward-top.Reward)*(top.Cost-below.Cost) > (top.Reward-below.Reward)*(cand.Cost-top.Cost)
}

// ReduceUnit filters one unit's treatments down to its efficient frontier:
// the upper-left concave envelope on the (cost, reward) plane. Only frontier
// treatments can ever be selected by the path builder at any budget level.
//
// The result is sorted by strictly increasing cost with strictly increasing
// reward and strictly decreasing marginal reward/cost ratio between
// consecutive entries. It reuses the input slice's backing array; callers
// must treat the input as consumed. Running ReduceUnit on its own output is
// a no-op.
func ReduceUnit(treatments []Treatment) []Treatment {
	candidates := append([]Treatment(nil), treatments...)
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Cost < candidates[j].Cost
	})

	// Entries with no positive reward can never open the frontier.
	first := 0
	for first < len(candidates) && candidates[first].Reward <= 0 {
		first++
	}
	selections := treatments[:0]
	if first == len(candidates) {
		return selections
	}
	selections = append(selections, candidates[first])

	for _, cand := range candidates[first+1:] {
		for len(selections) > 0 && dominates(selections, cand) {
			selections = selections[:len(selections)-1]
		}
		if cand.Reward > 0 && (len(selections) == 0 || cand.Reward > selections[len(selections)-1].Reward) {
			selections = append(selections, cand)
		}
	}
	return selections
}

// Reduce applies ReduceUnit to every unit, in place. Each unit's reduction
// is independent of all others.
func Reduce(units [][]Treatment) {
	for i := range units {
		units[i] = ReduceUnit(units[i])
	}
}
