// Package ntuple defines the event rows consumed by the flatteners and the
// sources that produce them.
package ntuple

import "fmt"

// Flavor identifies the lepton type of a leg.
type Flavor byte

const (
	Electron Flavor = 'e'
	Muon     Flavor = 'm'
	Tau      Flavor = 't'
)

func (f Flavor) String() string {
	return string(rune(f))
}

// Stage is an identification working point of a leg.
type Stage int

const (
	Loose Stage = iota
	Medium
	Tight
	NumStages
)

var stageNames = [NumStages]string{"loose", "medium", "tight"}

func (s Stage) String() string {
	if s < 0 || s >= NumStages {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// ParseStage maps "loose", "medium" and "tight" to their Stage.
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", name)
}

// Variant selects the nominal value of a factor or one of its systematic
// variations.
type Variant int

const (
	Nominal Variant = iota
	Up
	Down
	NumVariants
)

// Suffix is the column name suffix of the variant.
func (v Variant) Suffix() string {
	switch v {
	case Up:
		return "Up"
	case Down:
		return "Down"
	}
	return ""
}

// Leg is one reconstructed lepton of the event.
type Leg struct {
	Flavor    Flavor
	Pt        float64
	Eta       float64
	DecayMode int
	Iso       float64
	JetDR     float64
	Pass      [NumStages]bool
	Scale     [NumStages][NumVariants]float64
}

// Row is one event of a flat ntuple. Sources may reuse the same Row between
// iterations, so consumers must not retain it.
type Row struct {
	Entry int64

	IsData     bool
	Channel    string
	GenChannel string

	GenWeight         float64
	PileupWeight      [NumVariants]float64
	TriggerEfficiency [NumVariants]float64

	Met       float64
	Mass      float64
	Mt        float64
	NumJets   int
	LeadJetPt float64

	XSecCorrection    float64
	HasXSecCorrection bool

	Legs []Leg
}

// setFlavors assigns leg flavors from the channel string, one letter per leg.
func (r *Row) setFlavors() {
	for i := range r.Legs {
		if i < len(r.Channel) {
			r.Legs[i].Flavor = Flavor(r.Channel[i])
		} else {
			r.Legs[i].Flavor = 0
		}
	}
}
