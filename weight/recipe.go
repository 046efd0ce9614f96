// Package weight computes per-event weights of simulated samples from an
// ordered recipe of scale factors.
package weight

import (
	"sort"

	"github.com/decibelcooper/hepflat/ntuple"
)

// Recognized systematic shifts.
const (
	PileupUp    = "puUp"
	PileupDown  = "puDown"
	TriggerUp   = "trigUp"
	TriggerDown = "trigDown"
	LeptonUp    = "lepUp"
	LeptonDown  = "lepDown"
)

// Slot is one factor of the event weight. A slot reads its nominal value
// unless the shift names one of its variations.
type Slot struct {
	// Name is the nominal column of the factor.
	Name   string
	Column func(v ntuple.Variant) string
	Shifts map[string]ntuple.Variant
	Value  func(r *ntuple.Row, v ntuple.Variant) float64
}

// Variant returns the variant the slot uses under shift.
func (s Slot) Variant(shift string) ntuple.Variant {
	if v, ok := s.Shifts[shift]; ok {
		return v
	}
	return ntuple.Nominal
}

// EventSlots returns the event-level factors: generator weight, pileup
// weight and trigger efficiency.
func EventSlots() []Slot {
	return []Slot{
		{
			Name:   ntuple.ColGenWeight,
			Column: func(ntuple.Variant) string { return ntuple.ColGenWeight },
			Value:  func(r *ntuple.Row, _ ntuple.Variant) float64 { return r.GenWeight },
		},
		{
			Name:   ntuple.ColPileupWeight,
			Column: func(v ntuple.Variant) string { return ntuple.VariantColumn(ntuple.ColPileupWeight, v) },
			Shifts: map[string]ntuple.Variant{PileupUp: ntuple.Up, PileupDown: ntuple.Down},
			Value:  func(r *ntuple.Row, v ntuple.Variant) float64 { return r.PileupWeight[v] },
		},
		{
			Name:   ntuple.ColTriggerEfficiency,
			Column: func(v ntuple.Variant) string { return ntuple.VariantColumn(ntuple.ColTriggerEfficiency, v) },
			Shifts: map[string]ntuple.Variant{TriggerUp: ntuple.Up, TriggerDown: ntuple.Down},
			Value:  func(r *ntuple.Row, v ntuple.Variant) float64 { return r.TriggerEfficiency[v] },
		},
	}
}

// LegSlot returns the identification scale factor of leg i at stage.
func LegSlot(i int, prefix string, stage ntuple.Stage) Slot {
	return Slot{
		Name:   ntuple.ScaleColumn(prefix, stage, ntuple.Nominal),
		Column: func(v ntuple.Variant) string { return ntuple.ScaleColumn(prefix, stage, v) },
		Shifts: map[string]ntuple.Variant{LeptonUp: ntuple.Up, LeptonDown: ntuple.Down},
		Value:  func(r *ntuple.Row, v ntuple.Variant) float64 { return r.Legs[i].Scale[stage][v] },
	}
}

// LegSlots returns one LegSlot per leg, using stages[i] for leg i.
func LegSlots(prefixes []string, stages []ntuple.Stage) []Slot {
	slots := make([]Slot, 0, len(stages))
	for i, s := range stages {
		slots = append(slots, LegSlot(i, prefixes[i], s))
	}
	return slots
}

type factor struct {
	column string
	value  func(r *ntuple.Row) float64
}

// Recipe is an ordered list of factors with variants resolved for one shift.
type Recipe struct {
	factors []factor
}

// NewRecipe resolves slots for shift.
func NewRecipe(shift string, slots ...Slot) Recipe {
	rc := Recipe{factors: make([]factor, 0, len(slots))}
	for _, s := range slots {
		s := s
		v := s.Variant(shift)
		rc.factors = append(rc.factors, factor{
			column: s.Column(v),
			value:  func(r *ntuple.Row) float64 { return s.Value(r, v) },
		})
	}
	return rc
}

// Columns lists the columns the recipe reads, in factor order.
func (rc Recipe) Columns() []string {
	cols := make([]string, len(rc.factors))
	for i, f := range rc.factors {
		cols[i] = f.column
	}
	return cols
}

// Shifts lists every shift recognized by at least one slot.
func Shifts(slots []Slot) []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range slots {
		for n := range s.Shifts {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	sort.Strings(names)
	return names
}
