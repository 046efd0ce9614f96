package ntuple

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMissingColumn is returned when a row schema lacks a column that a
// selection or weight recipe reads.
var ErrMissingColumn = errors.New("missing column")

// Event-level column names.
const (
	ColIsData            = "isData"
	ColChannel           = "channel"
	ColGenChannel        = "genChannel"
	ColGenWeight         = "genWeight"
	ColPileupWeight      = "pileupWeight"
	ColTriggerEfficiency = "triggerEfficiency"
	ColMet               = "met"
	ColMass              = "mass"
	ColMt                = "mt"
	ColNumJets           = "numJets"
	ColLeadJetPt         = "leadJetPt"
	ColXSecCorrection    = "xsecCorrection"
)

// Per-leg column names, prefixed by the leg name.
const (
	LegPt        = "pt"
	LegEta       = "eta"
	LegDecayMode = "decayMode"
	LegIso       = "iso"
	LegJetDR     = "jetDR"
)

// LegColumn returns the column name of a leg quantity, e.g. "l1_pt".
func LegColumn(prefix, name string) string {
	return prefix + "_" + name
}

// PassColumn returns the identification flag column, e.g. "l1_passTight".
func PassColumn(prefix string, s Stage) string {
	n := s.String()
	return LegColumn(prefix, "pass"+strings.ToUpper(n[:1])+n[1:])
}

// ScaleColumn returns the scale factor column, e.g. "l1_looseScaleUp".
func ScaleColumn(prefix string, s Stage, v Variant) string {
	return LegColumn(prefix, s.String()+"Scale"+v.Suffix())
}

// VariantColumn returns the column of an event-level factor variant, e.g.
// "triggerEfficiencyDown".
func VariantColumn(name string, v Variant) string {
	return name + v.Suffix()
}

type field struct {
	num func(r *Row, x float64)
	str func(r *Row, s string)
}

// Layout names the legs of an analysis and maps column names onto Row fields.
type Layout struct {
	prefixes []string
	fields   map[string]field
}

// NewLayout returns the layout for legs with the given column prefixes, in
// channel order.
func NewLayout(prefixes ...string) *Layout {
	l := &Layout{
		prefixes: append([]string(nil), prefixes...),
		fields:   make(map[string]field),
	}

	l.num(ColIsData, func(r *Row, x float64) { r.IsData = x != 0 })
	l.str(ColChannel, func(r *Row, s string) { r.Channel = s })
	l.str(ColGenChannel, func(r *Row, s string) { r.GenChannel = s })
	l.num(ColGenWeight, func(r *Row, x float64) { r.GenWeight = x })
	for v := Nominal; v < NumVariants; v++ {
		v := v
		l.num(VariantColumn(ColPileupWeight, v), func(r *Row, x float64) { r.PileupWeight[v] = x })
		l.num(VariantColumn(ColTriggerEfficiency, v), func(r *Row, x float64) { r.TriggerEfficiency[v] = x })
	}
	l.num(ColMet, func(r *Row, x float64) { r.Met = x })
	l.num(ColMass, func(r *Row, x float64) { r.Mass = x })
	l.num(ColMt, func(r *Row, x float64) { r.Mt = x })
	l.num(ColNumJets, func(r *Row, x float64) { r.NumJets = int(x) })
	l.num(ColLeadJetPt, func(r *Row, x float64) { r.LeadJetPt = x })
	l.num(ColXSecCorrection, func(r *Row, x float64) {
		r.XSecCorrection = x
		r.HasXSecCorrection = true
	})

	for i, p := range l.prefixes {
		i := i
		l.num(LegColumn(p, LegPt), func(r *Row, x float64) { r.Legs[i].Pt = x })
		l.num(LegColumn(p, LegEta), func(r *Row, x float64) { r.Legs[i].Eta = x })
		l.num(LegColumn(p, LegDecayMode), func(r *Row, x float64) { r.Legs[i].DecayMode = int(x) })
		l.num(LegColumn(p, LegIso), func(r *Row, x float64) { r.Legs[i].Iso = x })
		l.num(LegColumn(p, LegJetDR), func(r *Row, x float64) { r.Legs[i].JetDR = x })
		for s := Loose; s < NumStages; s++ {
			s := s
			l.num(PassColumn(p, s), func(r *Row, x float64) { r.Legs[i].Pass[s] = x != 0 })
			for v := Nominal; v < NumVariants; v++ {
				v := v
				l.num(ScaleColumn(p, s, v), func(r *Row, x float64) { r.Legs[i].Scale[s][v] = x })
			}
		}
	}

	return l
}

func (l *Layout) num(name string, set func(*Row, float64)) {
	l.fields[name] = field{num: set}
}

func (l *Layout) str(name string, set func(*Row, string)) {
	l.fields[name] = field{str: set}
}

// Prefixes returns the leg prefixes in channel order.
func (l *Layout) Prefixes() []string {
	return l.prefixes
}

// NewRow returns an empty row with one Leg per prefix.
func (l *Layout) NewRow() *Row {
	return &Row{Legs: make([]Leg, len(l.prefixes))}
}

// Columns lists every column the layout knows how to bind, sorted.
func (l *Layout) Columns() []string {
	cols := make([]string, 0, len(l.fields))
	for c := range l.fields {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Finish completes a row after all of its columns were bound.
func (l *Layout) Finish(r *Row) {
	r.setFlavors()
}

// Check returns an error wrapping ErrMissingColumn that names every required
// column absent from columns.
func Check(columns, required []string) error {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}

	var missing []string
	for _, c := range required {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %v", ErrMissingColumn, missing)
}
