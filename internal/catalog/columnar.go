package catalog

import (
	"fmt"

	"github.com/MikeSquared-Agency/Qini/internal/maq"
)

// FromColumnar ingests the flat columnar layout: rewards and costs are
// parallel arrays over all treatments, listOffsets[i]..listOffsets[i+1]
// delimits unit i's slice of them, and strOffsets delimits each treatment's
// label bytes inside strData. This shape lets externally-owned columnar
// buffers (Arrow-style) be ingested without per-unit reshaping; the value
// arrays are read in place.
//
// Dense id assignment is identical to FromNested for the same logical input.
func FromColumnar(numUnits int, listOffsets []int32, rewards, costs []float64, strOffsets []int32, strData []byte) (*Dataset, error) {
	if numUnits < 0 {
		return nil, fmt.Errorf("negative unit count %d", numUnits)
	}
	if len(listOffsets) != numUnits+1 {
		return nil, fmt.Errorf("expected %d list offsets for %d units, got %d", numUnits+1, numUnits, len(listOffsets))
	}
	if len(listOffsets) > 0 && listOffsets[0] != 0 {
		return nil, fmt.Errorf("list offsets must start at 0, got %d", listOffsets[0])
	}
	total := int(listOffsets[numUnits])
	if len(rewards) != total || len(costs) != total {
		return nil, fmt.Errorf("offset table covers %d treatments, got %d rewards and %d costs", total, len(rewards), len(costs))
	}
	if len(strOffsets) != total+1 {
		return nil, fmt.Errorf("expected %d label offsets for %d treatments, got %d", total+1, total, len(strOffsets))
	}
	// The whole chain is checked before any ingestion: a non-monotone entry
	// anywhere would otherwise send an earlier unit's loop out of bounds.
	for i := 0; i < numUnits; i++ {
		if listOffsets[i] > listOffsets[i+1] {
			return nil, fmt.Errorf("unit %d: list offsets not non-decreasing: %d > %d", i, listOffsets[i], listOffsets[i+1])
		}
		if int(listOffsets[i+1]) > total {
			return nil, fmt.Errorf("unit %d: list offset %d exceeds treatment total %d", i, listOffsets[i+1], total)
		}
	}

	in := newInterner()
	units := make([][]maq.Treatment, numUnits)
	for i := 0; i < numUnits; i++ {
		start, end := listOffsets[i], listOffsets[i+1]
		treatments := make([]maq.Treatment, 0, end-start)
		for j := start; j < end; j++ {
			lo, hi := strOffsets[j], strOffsets[j+1]
			if lo > hi || int(hi) > len(strData) || lo < 0 {
				return nil, fmt.Errorf("treatment %d: label offsets [%d, %d) out of bounds for %d label bytes", j, lo, hi, len(strData))
			}
			if costs[j] < 0 {
				return nil, fmt.Errorf("unit %d treatment %q: negative cost %v", i, string(strData[lo:hi]), costs[j])
			}
			treatments = append(treatments, maq.Treatment{
				ID:     in.intern(string(strData[lo:hi])),
				Reward: rewards[j],
				Cost:   costs[j],
			})
		}
		units[i] = treatments
	}

	return &Dataset{Units: units, Labels: in.labels}, nil
}
