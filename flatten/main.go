// Command flatten runs analyses over ntuples and accumulates their weighted
// selections into bucket dumps.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "flatten",
	Short:         "Accumulate weighted selections of ntuples into buckets",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "log level (trace, debug, info, warn, error, fatal)")
	rootCmd.AddCommand(runCmd, mergeCmd, selectionsCmd)
}

// addAnalysisFlags registers the --config and --analysis flags shared by the
// subcommands.
func addAnalysisFlags(f *pflag.FlagSet, config, name *string, defConfig string) {
	f.StringVarP(config, "config", "c", defConfig, "configuration file")
	f.StringVarP(name, "analysis", "a", "", "analysis to run (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
