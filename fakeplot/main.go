// Command fakeplot draws the tight-to-loose fake rate per eta bin of one or
// more bucket dumps.
package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg/draw"

	"github.com/decibelcooper/hepflat"
	"github.com/decibelcooper/hepflat/analysis"
	"github.com/decibelcooper/hepflat/bucket"
	"github.com/decibelcooper/hepflat/dump"
)

type options struct {
	num, den string
	channel  string
	edges    hepflat.FloatArrayFlags
	nbins    int
	title    string
	prefix   string
	style    string
}

var opts = options{
	edges: hepflat.FloatArrayFlags{Array: []float64{0, 1.479, 2.3}},
}

var rootCmd = &cobra.Command{
	Use:          "fakeplot [options] <dump>...",
	Short:        "Plot fake rates per eta bin from bucket dumps",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		style := hepflat.DefaultStyle()
		if opts.style != "" {
			var err error
			if style, err = hepflat.LoadStyle(opts.style); err != nil {
				return err
			}
		}

		p, err := ratePlot(opts, style, args)
		if err != nil {
			return err
		}
		for _, ext := range []string{".pdf", ".png"} {
			if err := p.Save(style.Width, style.Height, opts.prefix+ext); err != nil {
				return err
			}
		}
		logrus.WithField("prefix", opts.prefix).Info("saved fake rate plot")
		return nil
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&opts.num, "num", "tight", "numerator selection")
	f.StringVar(&opts.den, "den", "loose", "denominator selection")
	f.StringVar(&opts.channel, "channel", "", "channel to plot (default all channels)")
	f.Var(&opts.edges, "edges", "eta bin edges, repeatable or comma-separated")
	f.IntVar(&opts.nbins, "nbins", 0, "number of eta bins (default from edges)")
	f.StringVar(&opts.title, "title", "", "plot title")
	f.StringVar(&opts.prefix, "prefix", "fakerate", "output file prefix")
	f.StringVar(&opts.style, "style", "", "YAML plot style")
}

// ratePlot draws one error-bar series per dump. Points sit at the eta bin
// centers when the edges cover the bins, at the bin index otherwise.
func ratePlot(o options, style hepflat.Style, inputs []string) (*plot.Plot, error) {
	edges := o.edges.Array
	nbins := o.nbins
	if nbins <= 0 {
		nbins = len(edges) - 1
	}
	if nbins <= 0 {
		return nil, fmt.Errorf("no eta bins: give --edges or --nbins")
	}
	if len(edges) != nbins+1 {
		edges = nil
	}

	p := plot.New()
	p.Title.Text = o.title
	p.X.Label.Text = "|eta|"
	p.Y.Label.Text = o.num + " / " + o.den
	p.X.Tick.Marker = hepflat.PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = hepflat.PreciseTicks{NSuggestedTicks: 5}

	for i, in := range inputs {
		m, err := dump.Load(in)
		if err != nil {
			return nil, err
		}
		errPoints := rateSeries(m, o, nbins, edges)
		xerr, err := plotter.NewXErrorBars(errPoints)
		if err != nil {
			return nil, err
		}
		yerr, err := plotter.NewYErrorBars(errPoints)
		if err != nil {
			return nil, err
		}
		marks, err := plotter.NewScatter(errPoints)
		if err != nil {
			return nil, err
		}

		name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		c := style.Color(name, i)
		xerr.LineStyle.Color = c
		yerr.LineStyle.Color = c
		marks.GlyphStyle.Color = c
		marks.GlyphStyle.Shape = draw.CircleGlyph{}

		p.Add(xerr, yerr, marks)
		p.Legend.Add(name, marks)
	}
	return p, nil
}

// rateSeries returns the fake rate points of m with their bin widths and
// binomial errors. A nil edges places bin j at [j, j+1).
func rateSeries(m bucket.Map, o options, nbins int, edges []float64) plotutil.ErrorPoints {
	rates := analysis.FakeRate(m, o.num, o.den, o.channel, nbins)

	points := make(plotter.XYs, nbins)
	xErrors := make(plotter.XErrors, nbins)
	yErrors := make(plotter.YErrors, nbins)
	for j, r := range rates {
		lo, hi := float64(j), float64(j+1)
		if edges != nil {
			lo, hi = edges[j], edges[j+1]
		}
		binSigma := (hi - lo) / 2 / math.Sqrt(3.)

		points[j].X = (lo + hi) / 2
		points[j].Y = r.Ratio
		xErrors[j].Low, xErrors[j].High = binSigma, binSigma
		yErrors[j].Low, yErrors[j].High = r.Err, r.Err
	}
	return plotutil.ErrorPoints{XYs: points, XErrors: xErrors, YErrors: yErrors}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
