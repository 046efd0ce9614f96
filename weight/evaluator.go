package weight

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/decibelcooper/hepflat/ntuple"
)

// DefaultXSecReference is the normalization the variable cross-section
// correction is divided by.
const DefaultXSecReference = 1.1

// Normalization scales a simulated sample to the integrated luminosity of
// the data.
type Normalization struct {
	IntLumi      float64
	CrossSection float64
	SumWeights   float64
	// Data marks real data samples, which are never normalized.
	Data bool
}

// SampleLumi is the effective luminosity of the sample, or 0 when the cross
// section is unknown.
func (n Normalization) SampleLumi() float64 {
	if !(n.CrossSection > 0) {
		return 0
	}
	return n.SumWeights / n.CrossSection
}

// Factor is IntLumi/SampleLumi, or 0 when the sample luminosity is zero.
func (n Normalization) Factor() float64 {
	l := n.SampleLumi()
	if l == 0 || math.IsNaN(l) {
		return 0
	}
	return n.IntLumi / l
}

// Evaluator computes event weights for one sample.
type Evaluator struct {
	scale   float64
	xsecRef float64
	data    bool
	log     logrus.FieldLogger
}

// NewEvaluator returns an evaluator for the sample normalization. A
// simulated sample without usable normalization gets weight 0 everywhere and
// a single warning.
func NewEvaluator(norm Normalization, xsecRef float64, log logrus.FieldLogger) *Evaluator {
	if xsecRef == 0 {
		xsecRef = DefaultXSecReference
	}
	e := &Evaluator{scale: norm.Factor(), xsecRef: xsecRef, data: norm.Data, log: log}
	if !norm.Data && e.scale == 0 {
		log.WithFields(logrus.Fields{
			"crossSection": norm.CrossSection,
			"sumWeights":   norm.SumWeights,
		}).Warn("sample has no usable normalization, its weights are zero")
	}
	return e
}

// Scale returns the luminosity normalization factor.
func (e *Evaluator) Scale() float64 {
	return e.scale
}

// Weight returns the event weight of r under rc. Rows flagged as data, and
// every row of a data sample, weigh exactly 1. NaN factors are skipped with
// a warning.
func (e *Evaluator) Weight(r *ntuple.Row, rc Recipe) float64 {
	if r.IsData || e.data {
		return 1
	}

	w := 1.0
	for _, f := range rc.factors {
		v := f.value(r)
		if math.IsNaN(v) {
			e.log.WithFields(logrus.Fields{
				"channel": r.Channel,
				"field":   f.column,
				"entry":   r.Entry,
			}).Warn("NaN scale factor, skipping")
			continue
		}
		w *= v
	}

	w *= e.scale
	if r.HasXSecCorrection {
		w *= r.XSecCorrection / e.xsecRef
	}
	return w
}
