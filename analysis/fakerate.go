package analysis

import (
	"fmt"
	"math"

	"github.com/decibelcooper/hepflat/bucket"
)

// RatePoint is the fake rate of one eta bin.
type RatePoint struct {
	Bin   int
	Num   bucket.Value
	Den   bucket.Value
	Ratio float64
	Err   float64
}

// EtaBinKey returns the bucket key of eta bin i of sel, refined by channel
// unless channel is empty.
func EtaBinKey(sel string, i int, channel string) string {
	key := fmt.Sprintf("%s/etaBin%d", sel, i)
	if channel != "" {
		key += "/" + channel
	}
	return key
}

// FakeRate divides the num buckets by the den buckets in each of nbins eta
// bins. Missing or non-positive denominators give a zero ratio. The error is
// the binomial sqrt(r(1-r)/den).
func FakeRate(m bucket.Map, num, den, channel string, nbins int) []RatePoint {
	pts := make([]RatePoint, nbins)
	for i := range pts {
		p := RatePoint{
			Bin: i,
			Num: m[EtaBinKey(num, i, channel)],
			Den: m[EtaBinKey(den, i, channel)],
		}
		if p.Den.Val > 0 {
			p.Ratio = p.Num.Val / p.Den.Val
			if v := p.Ratio * (1 - p.Ratio) / p.Den.Val; v > 0 {
				p.Err = math.Sqrt(v)
			}
		}
		pts[i] = p
	}
	return pts
}
