package analysis

import (
	"math"

	"github.com/decibelcooper/hepflat/ntuple"
	"github.com/decibelcooper/hepflat/selection"
)

// ZMass is the nominal Z boson mass in GeV.
const ZMass = 91.1876

func massWindow(center, half float64) selection.Cut {
	return selection.Cut{
		Name:     "mass",
		Requires: []string{ntuple.ColMass},
		Pass:     func(r *ntuple.Row) bool { return math.Abs(r.Mass-center) < half },
	}
}

func metBelow(max float64) selection.Cut {
	return selection.Cut{
		Name:     "met",
		Requires: []string{ntuple.ColMet},
		Pass:     func(r *ntuple.Row) bool { return r.Met < max },
	}
}

func mtBelow(max float64) selection.Cut {
	return selection.Cut{
		Name:     "mt",
		Requires: []string{ntuple.ColMt},
		Pass:     func(r *ntuple.Row) bool { return r.Mt < max },
	}
}

func legPasses(i int, prefix string, s ntuple.Stage) selection.Cut {
	return selection.Cut{
		Name:     prefix + "_" + s.String(),
		Requires: []string{ntuple.PassColumn(prefix, s)},
		Pass:     func(r *ntuple.Row) bool { return r.Legs[i].Pass[s] },
	}
}

func isolated(i int, prefix string, cut float64) selection.Cut {
	return selection.Cut{
		Name:     "iso",
		Requires: []string{ntuple.LegColumn(prefix, ntuple.LegIso)},
		Pass:     func(r *ntuple.Row) bool { return r.Legs[i].Iso < cut },
	}
}

func antiIsolated(i int, prefix string, cut float64) selection.Cut {
	return selection.Cut{
		Name:     "antiIso",
		Requires: []string{ntuple.LegColumn(prefix, ntuple.LegIso)},
		Pass:     func(r *ntuple.Row) bool { return r.Legs[i].Iso >= cut },
	}
}

func awayFromJets(i int, prefix string, dr float64) selection.Cut {
	return selection.Cut{
		Name:     "jetDR",
		Requires: []string{ntuple.LegColumn(prefix, ntuple.LegJetDR)},
		Pass:     func(r *ntuple.Row) bool { return r.Legs[i].JetDR > dr },
	}
}

func noJets() selection.Cut {
	return selection.Cut{
		Name:     "noJets",
		Requires: []string{ntuple.ColNumJets},
		Pass:     func(r *ntuple.Row) bool { return r.NumJets == 0 },
	}
}
