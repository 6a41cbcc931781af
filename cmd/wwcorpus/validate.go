package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BegaDeveloper/wwcorpus/internal/config"
	"github.com/BegaDeveloper/wwcorpus/internal/report"
	"github.com/BegaDeveloper/wwcorpus/internal/storage"
	"github.com/BegaDeveloper/wwcorpus/internal/writer"
)

func newValidateCommand(application *app) *cobra.Command {
	output := ""
	command := &cobra.Command{
		Use:   "validate",
		Short: "Verify a finished build against its manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := application.loadConfig(func(cfg *config.Config) error {
				if cmd.Flags().Changed("output") {
					cfg.Output.Root = output
				}
				return nil
			})
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Output.Root) == "" {
				return fmt.Errorf("%w: output.root is required", config.ErrConfiguration)
			}
			store, err := storage.Open(cmd.Context(), cfg.Output.Root, cfg.Output.S3)
			if err != nil {
				return err
			}
			verifyReport, verifyError := writer.Verify(cmd.Context(), store)
			report.Checks(application.stdout, report.FromVerify(verifyReport))
			if verifyError != nil {
				return verifyError
			}
			fmt.Fprintf(application.stdout, "\n%s is complete: run %s\n", store.Location(""), verifyReport.Manifest.RunID)
			return nil
		},
	}
	command.Flags().StringVar(&output, "output", "", "output directory or s3://bucket/prefix")
	return command
}
