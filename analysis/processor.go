package analysis

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/decibelcooper/hepflat/bucket"
	"github.com/decibelcooper/hepflat/hist"
	"github.com/decibelcooper/hepflat/ntuple"
	"github.com/decibelcooper/hepflat/selection"
	"github.com/decibelcooper/hepflat/weight"
)

// Options tune a Processor.
type Options struct {
	Shift string
	// Hists enables filling the variable histograms of every bucket.
	Hists bool
	Log   logrus.FieldLogger
}

// Processor runs one sample under one shift through an analysis.
type Processor struct {
	def     *Definition
	tree    *selection.Tree
	eval    *weight.Evaluator
	recipes []weight.Recipe
	index   map[*selection.Base]int
	acc     *bucket.Accumulator
	hists   *hist.Set
	data    bool
	log     logrus.FieldLogger

	weights []float64
	done    []bool
	rows    int64
}

// NewProcessor prepares def for a sample with normalization norm.
func NewProcessor(cfg *Config, def *Definition, norm weight.Normalization, opts Options) (*Processor, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithFields(logrus.Fields{"analysis": def.Name, "shift": opts.Shift})

	tree, err := def.Selections(cfg)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		def:   def,
		tree:  tree,
		eval:  weight.NewEvaluator(norm, cfg.XSecReference, log),
		index: make(map[*selection.Base]int),
		acc:   bucket.NewAccumulator(log),
		data:  norm.Data,
		log:   log,
	}

	var all []weight.Slot
	for i, b := range tree.Bases() {
		if len(b.Stages) != len(def.Legs) {
			return nil, fmt.Errorf("selection %q has %d stages for %d legs", b.Name, len(b.Stages), len(def.Legs))
		}
		slots := append(weight.EventSlots(), weight.LegSlots(def.Legs, b.Stages)...)
		all = append(all, slots...)
		p.recipes = append(p.recipes, weight.NewRecipe(opts.Shift, slots...))
		p.index[b] = i
	}
	p.weights = make([]float64, len(p.recipes))
	p.done = make([]bool, len(p.recipes))

	if opts.Shift != "" && !contains(weight.Shifts(all), opts.Shift) {
		log.WithField("known", weight.Shifts(all)).Warn("shift not recognized, using nominal factors")
	}
	if opts.Hists {
		p.hists = hist.NewSet(def.Variables)
	}

	log.WithField("selections", tree.Len()).Debug("built selection tree")
	return p, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Tree returns the selection tree.
func (p *Processor) Tree() *selection.Tree {
	return p.tree
}

// Requires lists the columns the run reads, sorted. Weight columns are only
// needed for simulated samples.
func (p *Processor) Requires() []string {
	seen := map[string]bool{ntuple.ColChannel: true}
	for _, c := range p.tree.Requires() {
		seen[c] = true
	}
	if !p.data {
		for _, rc := range p.recipes {
			for _, c := range rc.Columns() {
				seen[c] = true
			}
		}
	}

	cols := make([]string, 0, len(seen))
	for c := range seen {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Validate checks the row schema against the columns the run reads.
func (p *Processor) Validate(columns []string) error {
	if err := ntuple.Check(columns, p.Requires()); err != nil {
		return fmt.Errorf("analysis %s: %w", p.def.Name, err)
	}
	return nil
}

// Ingest validates the schema of src and processes all of its rows. A source
// without columns has no input and is skipped.
func (p *Processor) Ingest(src ntuple.Source) error {
	cols := src.Columns()
	if len(cols) == 0 {
		p.log.Warn("source has no columns, no rows processed")
		return nil
	}
	if err := p.Validate(cols); err != nil {
		return err
	}
	return src.Scan(func(r *ntuple.Row) error {
		p.Process(r)
		return nil
	})
}

// Process accumulates one row into every bucket it selects.
func (p *Processor) Process(r *ntuple.Row) {
	p.rows++
	for i := range p.done {
		p.done[i] = false
	}

	gen := r.GenChannel
	if r.IsData || p.data || gen == "" {
		gen = bucket.GenAll
	}

	p.tree.Walk(r, func(n *selection.Node) {
		i := p.index[n.Base]
		if !p.done[i] {
			p.weights[i] = p.eval.Weight(r, p.recipes[i])
			p.done[i] = true
		}
		w := p.weights[i]

		p.acc.Increment(n.Path, w, r.Channel, gen)
		if p.hists != nil {
			p.hists.Fill(n.Path+"/"+r.Channel, r, w)
		}
	})
}

// Rows returns the number of processed rows.
func (p *Processor) Rows() int64 {
	return p.rows
}

// Histograms returns the filled histograms, or nil when disabled.
func (p *Processor) Histograms() *hist.Set {
	return p.hists
}

// Finalize returns the bucket map of the run.
func (p *Processor) Finalize() bucket.Map {
	m := p.acc.Map()
	p.log.WithFields(logrus.Fields{"rows": p.rows, "buckets": len(m)}).Info("run finished")
	return m
}
