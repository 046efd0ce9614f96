package selection

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/decibelcooper/hepflat/ntuple"
)

// EtaBins splits on |eta| of leg i into half-open bins [edges[N], edges[N+1])
// chosen by the leg flavor. Rows whose flavor has fewer bins fail etaBinN.
func EtaBins(leg int, prefix string, edges map[ntuple.Flavor][]float64) Dimension {
	nbins := 0
	for _, e := range edges {
		if len(e)-1 > nbins {
			nbins = len(e) - 1
		}
	}

	d := Dimension{Name: "etaBins"}
	for n := 0; n < nbins; n++ {
		n := n
		d.Cuts = append(d.Cuts, Cut{
			Name:     fmt.Sprintf("etaBin%d", n),
			Requires: []string{ntuple.ColChannel, ntuple.LegColumn(prefix, ntuple.LegEta)},
			Pass: func(r *ntuple.Row) bool {
				e := edges[r.Legs[leg].Flavor]
				if n+1 >= len(e) {
					return false
				}
				eta := math.Abs(r.Legs[leg].Eta)
				return e[n] <= eta && eta < e[n+1]
			},
		})
	}
	return d
}

// CheckEdges reports whether edges form an ordered partition.
func CheckEdges(edges []float64) error {
	if len(edges) < 2 {
		return fmt.Errorf("need at least two bin edges, got %d", len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return fmt.Errorf("bin edges not strictly increasing at %d: %v", i, edges)
		}
	}
	return nil
}

// PtThresholds requires value(r) > thr, one cut per threshold, named label
// followed by the threshold, e.g. "jetPt20".
func PtThresholds(label, column string, value func(r *ntuple.Row) float64, thresholds []float64) Dimension {
	d := Dimension{Name: label}
	for _, thr := range thresholds {
		thr := thr
		d.Cuts = append(d.Cuts, Cut{
			Name:     label + strconv.FormatFloat(thr, 'f', -1, 64),
			Requires: []string{column},
			Pass:     func(r *ntuple.Row) bool { return value(r) > thr },
		})
	}
	return d
}

// DecayModes selects a single decay mode of leg i per cut, e.g. "dm10".
func DecayModes(leg int, prefix string, modes []int) Dimension {
	d := Dimension{Name: "decayModes"}
	for _, m := range modes {
		m := m
		d.Cuts = append(d.Cuts, Cut{
			Name:     "dm" + strconv.Itoa(m),
			Requires: []string{ntuple.LegColumn(prefix, ntuple.LegDecayMode)},
			Pass:     func(r *ntuple.Row) bool { return r.Legs[leg].DecayMode == m },
		})
	}
	return d
}

// Combinations returns one cut per non-empty subset of toggles, skipping
// subsets holding both names of an exclusive pair. A subset is named by its
// sorted toggle names joined with "_".
func Combinations(name string, toggles []Cut, exclusive [][2]string) Dimension {
	index := make(map[string]int, len(toggles))
	for i, t := range toggles {
		index[t.Name] = i
	}

	var excl []uint
	for _, pair := range exclusive {
		a, okA := index[pair[0]]
		b, okB := index[pair[1]]
		if okA && okB {
			excl = append(excl, 1<<uint(a)|1<<uint(b))
		}
	}

	d := Dimension{Name: name}
	for mask := uint(1); mask < 1<<uint(len(toggles)); mask++ {
		skip := false
		for _, e := range excl {
			if mask&e == e {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		var (
			subset []Cut
			names  []string
		)
		for i, t := range toggles {
			if mask&(1<<uint(i)) != 0 {
				subset = append(subset, t)
				names = append(names, t.Name)
			}
		}
		sort.Strings(names)
		d.Cuts = append(d.Cuts, All(strings.Join(names, "_"), subset...))
	}

	sort.Slice(d.Cuts, func(i, j int) bool { return d.Cuts[i].Name < d.Cuts[j].Name })
	return d
}
