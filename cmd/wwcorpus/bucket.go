package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/BegaDeveloper/wwcorpus/internal/config"
	"github.com/BegaDeveloper/wwcorpus/internal/hashing"
	"github.com/BegaDeveloper/wwcorpus/internal/subsample"
)

func newBucketCommand(application *app) *cobra.Command {
	filterPct, targetPct := 0, 0
	command := &cobra.Command{
		Use:   "bucket ID...",
		Short: "Show the bucket and subsample band of identifiers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := application.loadConfig(func(cfg *config.Config) error {
				if cmd.Flags().Changed("filter-pct") {
					cfg.Subsample.FilterPct = filterPct
				}
				if cmd.Flags().Changed("target-pct") {
					cfg.Subsample.TargetPct = targetPct
				}
				return nil
			})
			if err != nil {
				return err
			}
			if err := subsample.Check(cfg.Subsample); err != nil {
				return fmt.Errorf("%w: %w", config.ErrConfiguration, err)
			}

			table := tabwriter.NewWriter(application.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(table, "IDENTIFIER\tBUCKET\tGENERAL CORPUS")
			for _, id := range args {
				bucket := hashing.Bucket(id)
				fmt.Fprintf(table, "%s\t%d\t%s\n", id, bucket, band(bucket, cfg.Subsample))
			}
			return table.Flush()
		},
	}
	command.Flags().IntVar(&filterPct, "filter-pct", 0, "override subsample.filter_pct")
	command.Flags().IntVar(&targetPct, "target-pct", 0, "override subsample.target_pct")
	return command
}

func band(bucket int, settings subsample.Config) string {
	switch {
	case bucket < settings.FilterPct:
		return "kept"
	case bucket < settings.TargetPct:
		return "kept if it mentions a target word"
	default:
		return "dropped"
	}
}
