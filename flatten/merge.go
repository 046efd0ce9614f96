package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/decibelcooper/hepflat/bucket"
	"github.com/decibelcooper/hepflat/dump"
)

var mergeOutput string

var mergeCmd = &cobra.Command{
	Use:   "merge -o <out.json|out.gob> <dump>...",
	Short: "Sum bucket dumps of shards or samples",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mergeDumps(mergeOutput, args, logrus.StandardLogger())
	},
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.json", "merged dump file")
}

func mergeDumps(out string, inputs []string, log logrus.FieldLogger) error {
	maps := make([]bucket.Map, 0, len(inputs))
	for _, in := range inputs {
		m, err := dump.Load(in)
		if err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		maps = append(maps, m)
	}

	merged := bucket.Merge(maps...)
	if err := dump.Save(out, merged); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"inputs": len(inputs), "buckets": len(merged), "output": out}).Info("merged dumps")
	return nil
}
