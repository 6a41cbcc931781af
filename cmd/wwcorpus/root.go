package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BegaDeveloper/wwcorpus/internal/config"
	"github.com/BegaDeveloper/wwcorpus/internal/logging"
)

type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv config.Lookup

	configPath string
	verbose    bool
	logFormat  string
	logger     *slog.Logger
}

func newRootCommand(application *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "wwcorpus",
		Short: "Build wake-word training corpora",
		Long: `wwcorpus merges a wake-word corpus with a subsampled general speech corpus
into train/dev/test metadata files.

Examples:
  # Build with settings from wwcorpus.yaml
  wwcorpus build -f wwcorpus.yaml

  # Keep 5% of Common Voice plus every clip mentioning the keywords
  wwcorpus build -f wwcorpus.yaml --filter-pct 5 --target-words " hey,fire,fox"

  # Check a finished build
  wwcorpus validate --output ./data/corpus
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(application.stderr, logging.Options{Verbose: application.verbose, Format: application.logFormat})
			if err != nil {
				return fmt.Errorf("%w: %w", config.ErrConfiguration, err)
			}
			application.logger = logger
			return nil
		},
	}
	root.SetOut(application.stdout)
	root.SetErr(application.stderr)
	root.PersistentFlags().StringVarP(&application.configPath, "config", "f", "", "config file (default: nearest "+config.FileName+")")
	root.PersistentFlags().BoolVarP(&application.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&application.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newBuildCommand(application),
		newValidateCommand(application),
		newBucketCommand(application),
		newDoctorCommand(application),
	)
	return root
}

// loadConfig reads the file, then WWCORPUS_* variables, then overrides,
// and expands paths. It does not validate.
func (application *app) loadConfig(overrides func(*config.Config) error) (config.Config, error) {
	loaded, err := config.Load(application.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := loaded.ApplyEnv(application.getenv); err != nil {
		return config.Config{}, err
	}
	if overrides != nil {
		if err := overrides(&loaded); err != nil {
			return config.Config{}, err
		}
	}
	if err := loaded.ExpandPaths(application.getenv); err != nil {
		return config.Config{}, err
	}
	if loaded.Source != "" {
		application.logger.Debug("configuration loaded", "path", loaded.Source)
	}
	return loaded, nil
}

func parseSplitType(raw string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value != "sound" && value != "speaker" {
		return "", fmt.Errorf("%w: --split-type %q must be sound or speaker", config.ErrConfiguration, raw)
	}
	return value, nil
}
