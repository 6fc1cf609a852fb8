// Package catalog normalizes raw treatment records into the dense,
// solver-ready form the maq kernel consumes. It owns treatment-label
// interning and all input validation: the kernel assumes well-formed
// triples, so ragged arrays, negative costs, and malformed offset tables
// are rejected here.
package catalog

import (
	"fmt"

	"github.com/MikeSquared-Agency/Qini/internal/maq"
)

// Dataset is the interned form of a treatment catalog: per-unit treatment
// slices with dense ids, plus the id-to-label mapping that inverts the
// interning. Both ingestion shapes produce identical Datasets for the same
// logical input.
type Dataset struct {
	Units  [][]maq.Treatment
	Labels []string
}

// Label returns the original label for a dense treatment id, or "" when the
// id is out of range.
func (d *Dataset) Label(id uint32) string {
	if int(id) >= len(d.Labels) {
		return ""
	}
	return d.Labels[id]
}

// interner assigns dense ids in strict first-encounter order. It is scoped
// to a single ingestion call and discarded with it; no interning state is
// shared across datasets.
type interner struct {
	ids    map[string]uint32
	labels []string
}

func newInterner() *interner {
	return &interner{ids: make(map[string]uint32)}
}

func (in *interner) intern(label string) uint32 {
	if id, ok := in.ids[label]; ok {
		return id
	}
	id := uint32(len(in.labels))
	in.ids[label] = id
	in.labels = append(in.labels, label)
	return id
}

// FromNested ingests nested per-unit lists: labels[i][j], rewards[i][j], and
// costs[i][j] describe unit i's j-th treatment option. Units are scanned in
// order and treatments within each unit in order, so dense ids follow strict
// first-encounter order across the whole input.
func FromNested(labels [][]string, rewards, costs [][]float64) (*Dataset, error) {
	if len(rewards) != len(labels) || len(costs) != len(labels) {
		return nil, fmt.Errorf("unit count mismatch: %d label lists, %d reward lists, %d cost lists",
			len(labels), len(rewards), len(costs))
	}

	in := newInterner()
	units := make([][]maq.Treatment, len(labels))
	for i := range labels {
		if len(rewards[i]) != len(labels[i]) || len(costs[i]) != len(labels[i]) {
			return nil, fmt.Errorf("unit %d: ragged arrays: %d labels, %d rewards, %d costs",
				i, len(labels[i]), len(rewards[i]), len(costs[i]))
		}
		treatments := make([]maq.Treatment, 0, len(labels[i]))
		for j, label := range labels[i] {
			if costs[i][j] < 0 {
				return nil, fmt.Errorf("unit %d treatment %q: negative cost %v", i, label, costs[i][j])
			}
			treatments = append(treatments, maq.Treatment{
				ID:     in.intern(label),
				Reward: rewards[i][j],
				Cost:   costs[i][j],
			})
		}
		units[i] = treatments
	}

	return &Dataset{Units: units, Labels: in.labels}, nil
}
