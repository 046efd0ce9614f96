// Package selection builds the hierarchy of named event selections. Every
// node of the hierarchy is the conjunction of its own cut with the cuts of
// all its ancestors.
package selection

import (
	"sort"

	"github.com/decibelcooper/hepflat/ntuple"
)

// Cut is a named predicate over event rows together with the columns it
// reads.
type Cut struct {
	Name     string
	Requires []string
	Pass     func(r *ntuple.Row) bool
}

// All returns the conjunction of cuts.
func All(name string, cuts ...Cut) Cut {
	cuts = append([]Cut(nil), cuts...)
	return Cut{
		Name:     name,
		Requires: requires(cuts),
		Pass: func(r *ntuple.Row) bool {
			for _, c := range cuts {
				if !c.Pass(r) {
					return false
				}
			}
			return true
		},
	}
}

func requires(cuts []Cut) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, c := range cuts {
		for _, col := range c.Requires {
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// Base is a top-level selection. Stages gives the identification stage of
// each leg, which selects the scale factors of the event weight.
type Base struct {
	Name   string
	Stages []ntuple.Stage
	Cut    Cut
}

// Dimension is a family of suffix cuts refining a selection.
type Dimension struct {
	Name string
	Cuts []Cut
}
