package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/decibelcooper/hepflat/analysis"
)

var selOpts struct {
	config   string
	analysis string
}

var selectionsCmd = &cobra.Command{
	Use:   "selections",
	Short: "List the selection paths an analysis fills",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := analysis.DefaultConfig()
		if selOpts.config != "" {
			var err error
			if cfg, err = analysis.LoadConfig(selOpts.config); err != nil {
				return err
			}
		}
		name := selOpts.analysis
		if name == "" {
			name = cfg.Analysis
		}
		return listSelections(cmd.OutOrStdout(), cfg, name)
	},
}

func init() {
	addAnalysisFlags(selectionsCmd.Flags(), &selOpts.config, &selOpts.analysis, "")
}

func listSelections(w io.Writer, cfg *analysis.Config, name string) error {
	def, err := analysis.Lookup(name)
	if err != nil {
		return err
	}
	tree, err := def.Selections(cfg)
	if err != nil {
		return err
	}
	for _, p := range tree.Paths() {
		fmt.Fprintln(w, p)
	}
	return nil
}
