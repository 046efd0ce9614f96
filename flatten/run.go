package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/decibelcooper/hepflat/analysis"
	"github.com/decibelcooper/hepflat/dump"
	"github.com/decibelcooper/hepflat/hist"
	"github.com/decibelcooper/hepflat/ntuple"
)

type runOptions struct {
	Config   string
	Analysis string
	Output   string
	Shard    string
	NoHists  bool
	Profile  string
	Log      logrus.FieldLogger
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run <sample> [<shift>]",
	Short: "Process one sample under one systematic shift",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if runOpts.Profile != "" {
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(runOpts.Profile), profile.NoShutdownHook).Stop()
		}
		shift := ""
		if len(args) > 1 {
			shift = args[1]
		}
		_, err := runSample(runOpts, args[0], shift)
		return err
	},
}

func init() {
	f := runCmd.Flags()
	addAnalysisFlags(f, &runOpts.Config, &runOpts.Analysis, "flatten.yaml")
	f.StringVarP(&runOpts.Output, "output", "o", "", "output directory (default from config)")
	f.StringVar(&runOpts.Shard, "shard", "", "process shard i of n entry ranges, written i/n")
	f.BoolVar(&runOpts.NoHists, "no-hists", false, "skip variable histograms")
	f.StringVar(&runOpts.Profile, "profile", "", "write a CPU profile to this directory")
}

// parseShard parses "i/n" with 0 <= i < n. The empty string is the single
// shard 0/1.
func parseShard(s string) (int, int, error) {
	if s == "" {
		return 0, 1, nil
	}
	is, ns, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0, fmt.Errorf("invalid shard %q, expected i/n", s)
	}
	i, err := strconv.Atoi(is)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid shard %q: %w", s, err)
	}
	n, err := strconv.Atoi(ns)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid shard %q: %w", s, err)
	}
	if n < 1 || i < 0 || i >= n {
		return 0, 0, fmt.Errorf("invalid shard %q, need 0 <= i < n", s)
	}
	return i, n, nil
}

// runSample processes sample under shift and writes its dumps, returning
// where they were written.
func runSample(o runOptions, sample, shift string) (dump.Target, error) {
	log := o.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	cfg, err := analysis.LoadConfig(o.Config)
	if err != nil {
		return dump.Target{}, err
	}
	name := o.Analysis
	if name == "" {
		name = cfg.Analysis
	}
	def, err := analysis.Lookup(name)
	if err != nil {
		return dump.Target{}, err
	}
	s, err := cfg.Sample(sample)
	if err != nil {
		return dump.Target{}, err
	}
	shard, shards, err := parseShard(o.Shard)
	if err != nil {
		return dump.Target{}, err
	}

	log = log.WithFields(logrus.Fields{"sample": sample, "process": s.Process})
	src, err := ntuple.OpenTrees(def.Layout(), cfg.TreeName, s.Files, log)
	if err != nil {
		return dump.Target{}, err
	}
	defer src.Close()
	if err := src.SetShard(shard, shards); err != nil {
		return dump.Target{}, err
	}

	var sumW float64
	if !s.Data && s.SumWeights == 0 && len(src.Files()) > 0 {
		sumW, err = src.SumWeights(cfg.SumWeightsTree)
		if err != nil {
			log.WithError(err).Error("could not read generator weight sum")
		}
	}

	proc, err := analysis.NewProcessor(cfg, def, cfg.Normalization(s, sumW), analysis.Options{
		Shift: shift,
		Hists: !o.NoHists,
		Log:   log,
	})
	if err != nil {
		return dump.Target{}, err
	}
	if err := proc.Ingest(src); err != nil {
		return dump.Target{}, err
	}
	m := proc.Finalize()

	out := o.Output
	if out == "" {
		out = cfg.OutputDir
	}
	t := dump.Target{Dir: out, Analysis: def.Name, Sample: sample, Shift: shift}
	if shards > 1 {
		t.Shard, t.Shards = shard, shards
	}
	if err := dump.Write(t, m); err != nil {
		return t, err
	}
	if hs := proc.Histograms(); hs != nil && hs.Len() > 0 {
		if err := hist.Write(t.ROOTPath(), hs); err != nil {
			return t, err
		}
	}

	log.WithField("output", t.Base()).Info("wrote dumps")
	return t, nil
}
