package hepflat

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// PreciseTicks places round major ticks with labels of just enough digits,
// plus unlabeled minor ticks.
type PreciseTicks struct {
	NSuggestedTicks int
}

func (t PreciseTicks) Ticks(min, max float64) []plot.Tick {
	if t.NSuggestedTicks < 2 {
		t.NSuggestedTicks = 4
	}
	if !(max > min) {
		return []plot.Tick{{Value: min, Label: formatFloatTick(min, -1)}}
	}

	step, mult := majorStep(max-min, t.NSuggestedTicks)
	first := math.Ceil(min / step)
	last := math.Floor(max / step)

	// decimals needed by the single significant digit of step
	prec := int(math.Max(0, -math.Floor(math.Log10(step))))

	ticks := make([]plot.Tick, 0, 4*int(last-first+1))
	major := make(map[float64]bool)
	for k := first; k <= last; k++ {
		v := round(k*step, prec)
		major[v] = true
		ticks = append(ticks, plot.Tick{Value: v, Label: formatFloatTick(v, -1)})
	}

	minor := step / float64(minorDivisions(mult))
	for k := math.Ceil(min / minor); k*minor <= max; k++ {
		if v := round(k*minor, prec+1); !major[round(v, prec)] {
			ticks = append(ticks, plot.Tick{Value: v})
		}
	}
	return ticks
}

// majorStep returns a round major tick spacing for span giving about n
// ticks, and its leading multiplier.
func majorStep(span float64, n int) (float64, int) {
	tens := math.Pow10(int(math.Floor(math.Log10(span))))
	for span/tens < float64(n-1) {
		tens /= 10
	}

	mult := int(span / tens / float64(n-1))
	switch mult {
	case 7:
		mult = 6
	case 9:
		mult = 8
	}
	return float64(mult) * tens, mult
}

func minorDivisions(mult int) int {
	switch mult {
	case 3, 6:
		return 3
	case 5:
		return 5
	}
	return 2
}

func round(x float64, prec int) float64 {
	if x == 0 {
		// no negative zero
		return 0
	}
	if prec >= 0 && x == math.Trunc(x) {
		return x
	}
	pow := math.Pow10(prec)
	intermed := x * pow
	if math.IsInf(intermed, 0) {
		return x
	}
	if x < 0 {
		x = math.Ceil(intermed - 0.5)
	} else {
		x = math.Floor(intermed + 0.5)
	}
	if x == 0 {
		return 0
	}
	return x / pow
}

func formatFloatTick(v float64, prec int) string {
	return strconv.FormatFloat(v, 'g', prec, 64)
}
