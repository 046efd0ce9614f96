// Package analysis wires row sources, weights, selections and buckets into
// the per-event processing of a flattener run.
package analysis

import (
	"fmt"
	"sort"

	"github.com/decibelcooper/hepflat/hist"
	"github.com/decibelcooper/hepflat/ntuple"
	"github.com/decibelcooper/hepflat/selection"
)

// Definition describes one analysis: the legs of its ntuples, how its
// selections are built and which variables are histogrammed.
type Definition struct {
	Name string
	// Legs are the column prefixes of the legs, in channel order.
	Legs []string
	// Probe is the index of the leg whose fake rate is measured.
	Probe     int
	Build     func(cfg *Config) ([]selection.Base, []selection.Dimension)
	Variables []hist.Variable
}

// Layout returns the row layout of the analysis ntuples.
func (d *Definition) Layout() *ntuple.Layout {
	return ntuple.NewLayout(d.Legs...)
}

// Selections builds the selection tree for cfg.
func (d *Definition) Selections(cfg *Config) (*selection.Tree, error) {
	bases, dims := d.Build(cfg)
	t, err := selection.Build(bases, dims...)
	if err != nil {
		return nil, fmt.Errorf("analysis %s: %w", d.Name, err)
	}
	return t, nil
}

var registry = map[string]*Definition{}

func register(d *Definition) {
	if _, dup := registry[d.Name]; dup {
		panic("analysis: duplicate definition " + d.Name)
	}
	registry[d.Name] = d
}

// Lookup returns the named analysis.
func Lookup(name string) (*Definition, error) {
	d, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown analysis %q (known: %v)", name, Names())
	}
	return d, nil
}

// Names lists the registered analyses, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func probeVariables(i int) []hist.Variable {
	return []hist.Variable{
		{Name: "pt", Bins: 20, Min: 0, Max: 100, Value: func(r *ntuple.Row) float64 { return r.Legs[i].Pt }},
		{Name: "eta", Bins: 25, Min: -2.5, Max: 2.5, Value: func(r *ntuple.Row) float64 { return r.Legs[i].Eta }},
		{Name: "met", Bins: 20, Min: 0, Max: 100, Value: func(r *ntuple.Row) float64 { return r.Met }},
	}
}

func init() {
	register(&Definition{
		Name:  "dijet",
		Legs:  []string{"l1"},
		Probe: 0,
		Build: func(cfg *Config) ([]selection.Base, []selection.Dimension) {
			common := []selection.Cut{metBelow(20), mtBelow(20)}
			var bases []selection.Base
			for s := ntuple.Loose; s < ntuple.NumStages; s++ {
				bases = append(bases, selection.Base{
					Name:   s.String(),
					Stages: []ntuple.Stage{s},
					Cut:    selection.All(s.String(), append(common, legPasses(0, "l1", s))...),
				})
			}
			return bases, []selection.Dimension{
				selection.EtaBins(0, "l1", cfg.EtaEdges()),
				selection.PtThresholds("jetPt", ntuple.ColLeadJetPt,
					func(r *ntuple.Row) float64 { return r.LeadJetPt }, cfg.JetPtThresholds),
			}
		},
		Variables: append(probeVariables(0),
			hist.Variable{Name: "mt", Bins: 20, Min: 0, Max: 100, Value: func(r *ntuple.Row) float64 { return r.Mt }}),
	})

	register(&Definition{
		Name:  "zfake",
		Legs:  []string{"z1", "z2", "l1"},
		Probe: 2,
		Build: func(cfg *Config) ([]selection.Base, []selection.Dimension) {
			z := []selection.Cut{
				massWindow(ZMass, 10),
				metBelow(25),
				legPasses(0, "z1", ntuple.Tight),
				legPasses(1, "z2", ntuple.Tight),
			}
			var bases []selection.Base
			for s := ntuple.Loose; s < ntuple.NumStages; s++ {
				bases = append(bases, selection.Base{
					Name:   s.String(),
					Stages: []ntuple.Stage{ntuple.Tight, ntuple.Tight, s},
					Cut:    selection.All(s.String(), append(z, legPasses(2, "l1", s))...),
				})
			}

			dims := []selection.Dimension{selection.EtaBins(2, "l1", cfg.EtaEdges())}
			if len(cfg.DecayModes) > 0 {
				dims = append(dims, selection.DecayModes(2, "l1", cfg.DecayModes))
			}
			dims = append(dims, selection.Combinations("cuts", []selection.Cut{
				isolated(2, "l1", cfg.IsoCut),
				antiIsolated(2, "l1", cfg.IsoCut),
				awayFromJets(2, "l1", cfg.JetDRCut),
				noJets(),
			}, [][2]string{{"iso", "antiIso"}}))
			return bases, dims
		},
		Variables: append(probeVariables(2),
			hist.Variable{Name: "mass", Bins: 30, Min: 60, Max: 120, Value: func(r *ntuple.Row) float64 { return r.Mass }}),
	})
}
