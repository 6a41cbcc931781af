package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/BegaDeveloper/wwcorpus/internal/audioprobe"
	"github.com/BegaDeveloper/wwcorpus/internal/config"
	"github.com/BegaDeveloper/wwcorpus/internal/executor"
	"github.com/BegaDeveloper/wwcorpus/internal/pipeline"
	"github.com/BegaDeveloper/wwcorpus/internal/report"
	"github.com/BegaDeveloper/wwcorpus/internal/storage"
)

type buildFlags struct {
	filterPct   int
	targetPct   int
	targetWords string
	splitType   string
	output      string
	cachePath   string
	skipLength  bool
	parallel    bool
	copyAudio   bool
	progress    bool
}

func newBuildCommand(application *app) *cobra.Command {
	flags := buildFlags{}
	command := &cobra.Command{
		Use:   "build",
		Short: "Build train/dev/test metadata from the configured corpora",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := application.loadConfig(func(cfg *config.Config) error {
				return flags.apply(cmd, cfg)
			})
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return application.build(cmd, cfg)
		},
	}
	command.Flags().IntVar(&flags.filterPct, "filter-pct", 0, "share of general clips always kept (0-100)")
	command.Flags().IntVar(&flags.targetPct, "target-pct", 0, "share of general clips kept when they mention a target word (0-100)")
	command.Flags().StringVar(&flags.targetWords, "target-words", "", `comma separated target words; a leading space matches word starts only (" hey")`)
	command.Flags().StringVar(&flags.splitType, "split-type", "", "wake-word split key: sound or speaker")
	command.Flags().StringVar(&flags.output, "output", "", "output directory or s3://bucket/prefix")
	command.Flags().StringVar(&flags.cachePath, "cache-path", "", "bbolt file caching probed durations")
	command.Flags().BoolVar(&flags.skipLength, "skip-length", true, "skip probing clip durations")
	command.Flags().BoolVar(&flags.parallel, "parallel", false, "process the three splits concurrently")
	command.Flags().BoolVar(&flags.copyAudio, "copy-audio", false, "copy clips next to the metadata")
	command.Flags().BoolVar(&flags.progress, "progress", false, "show a progress bar while probing durations")
	return command
}

// apply copies only the flags given on the command line.
func (flags buildFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("filter-pct") {
		cfg.Subsample.FilterPct = flags.filterPct
	}
	if changed("target-pct") {
		cfg.Subsample.TargetPct = flags.targetPct
	}
	if changed("target-words") {
		cfg.Subsample.TargetWords = config.SplitList(flags.targetWords)
	}
	if changed("split-type") {
		splitType, err := parseSplitType(flags.splitType)
		if err != nil {
			return err
		}
		cfg.WakeWord.SplitType = splitType
	}
	if changed("output") {
		cfg.Output.Root = flags.output
	}
	if changed("cache-path") {
		cfg.Statistics.CachePath = flags.cachePath
	}
	if changed("skip-length") {
		cfg.Statistics.SkipLength = flags.skipLength
	}
	if changed("parallel") {
		cfg.Pipeline.ParallelSplits = flags.parallel
	}
	if changed("copy-audio") {
		cfg.Output.CopyAudio = flags.copyAudio
	}
	if changed("progress") {
		cfg.Statistics.Progress = flags.progress
	}
	return nil
}

func (application *app) build(cmd *cobra.Command, cfg config.Config) error {
	ctx := cmd.Context()
	store, err := storage.Open(ctx, cfg.Output.Root, cfg.Output.S3)
	if err != nil {
		return err
	}

	deps := pipeline.Dependencies{Store: store, Logger: application.logger}
	if !cfg.Statistics.SkipLength {
		prober, closeProber, proberError := pipeline.NewProber(cfg.Statistics)
		if proberError != nil {
			return proberError
		}
		defer closeProber()
		deps.Prober = prober
		if cfg.Statistics.Progress && application.interactive() {
			deps.Progress = audioprobe.NewProgress(application.stderr)
		}
	}

	summary, err := pipeline.Run(ctx, cfg, deps)
	if deps.Progress != nil {
		deps.Progress.Wait()
	}
	if err != nil {
		return err
	}
	return report.Summary(application.stdout, summary)
}

// interactive reports whether stderr can show a progress bar. Writers that
// are not files are assumed to.
func (application *app) interactive() bool {
	file, ok := application.stderr.(*os.File)
	if !ok {
		return true
	}
	if executor.IsTerminal(file) {
		return true
	}
	application.logger.Debug("progress bar disabled, stderr is not a terminal")
	return false
}
