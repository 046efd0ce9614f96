// Command histplot overlays one flattened histogram from several ROOT files.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"

	"github.com/decibelcooper/hepflat"
	"github.com/decibelcooper/hepflat/hist"
)

type options struct {
	name      string
	title     string
	xlabel    string
	output    string
	style     string
	normalize bool
}

var opts options

var rootCmd = &cobra.Command{
	Use:          "histplot --hist <bucket>/<variable> [options] <root-file>...",
	Short:        "Overlay a flattened histogram across samples",
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

		p, err := overlay(opts, style, args)
		if err != nil {
			return err
		}
		if err := p.Save(style.Width, style.Height, opts.output); err != nil {
			return err
		}
		logrus.WithField("output", opts.output).Info("saved histogram plot")
		return nil
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&opts.name, "hist", "", "histogram to plot, e.g. loose/etaBin0/mmt/pt")
	f.StringVar(&opts.title, "title", "", "plot title")
	f.StringVar(&opts.xlabel, "xlabel", "", "x axis label (default the variable name)")
	f.StringVarP(&opts.output, "output", "o", "out.png", "output file")
	f.StringVar(&opts.style, "style", "", "YAML plot style")
	f.BoolVar(&opts.normalize, "normalize", false, "scale every histogram to unit area")
	rootCmd.MarkFlagRequired("hist")
}

// overlay draws histogram o.name of every file. A single file also gets the
// entries, mean and RMS summary.
func overlay(o options, style hepflat.Style, files []string) (*plot.Plot, error) {
	if o.name == "" {
		return nil, fmt.Errorf("no histogram name given")
	}

	p := plot.New()
	p.Title.Text = o.title
	p.X.Label.Text = o.xlabel
	if p.X.Label.Text == "" {
		p.X.Label.Text = o.name[strings.LastIndex(o.name, "/")+1:]
	}
	p.X.Tick.Marker = hepflat.PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = hepflat.PreciseTicks{NSuggestedTicks: 5}

	for i, filename := range files {
		h1, err := hist.Read(filename, o.name)
		if err != nil {
			return nil, err
		}
		if o.normalize {
			if area := h1.Integral(); area > 0 {
				h1.Scale(1 / area)
			}
		}

		name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		h := hplot.NewH1D(h1)
		h.LineStyle.Color = style.Color(name, i)
		if len(files) == 1 {
			h.Infos.Style = hplot.HInfoSummary
		}

		p.Add(h)
		if len(files) > 1 {
			p.Legend.Add(name, h)
		}
	}
	return p, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
