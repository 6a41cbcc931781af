package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BegaDeveloper/wwcorpus/internal/audioprobe"
	"github.com/BegaDeveloper/wwcorpus/internal/config"
	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
	"github.com/BegaDeveloper/wwcorpus/internal/executor"
	"github.com/BegaDeveloper/wwcorpus/internal/fixture"
	"github.com/BegaDeveloper/wwcorpus/internal/loader"
	"github.com/BegaDeveloper/wwcorpus/internal/pipeline"
	"github.com/BegaDeveloper/wwcorpus/internal/report"
	"github.com/BegaDeveloper/wwcorpus/internal/storage"
	"github.com/BegaDeveloper/wwcorpus/internal/writer"
)

const doctorProbeFile = ".wwcorpus-doctor"

func newDoctorCommand(application *app) *cobra.Command {
	selfTest := false
	command := &cobra.Command{
		Use:   "doctor",
		Short: "Check corpora, tools and output before a build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := application.loadConfig(nil)
			if err != nil {
				return err
			}
			return application.runDoctor(cmd.Context(), cfg, selfTest)
		},
	}
	command.Flags().BoolVar(&selfTest, "self-test", false, "also build and verify a small generated corpus")
	return command
}

func (application *app) runDoctor(ctx context.Context, cfg config.Config, selfTest bool) error {
	checks := []report.Check{
		checkConfiguration(cfg),
		checkWakeWordCorpus(cfg),
		checkGeneralCorpus(cfg),
		checkFFProbe(cfg),
		checkOutput(ctx, cfg),
		checkCache(cfg),
	}
	if selfTest {
		checks = append(checks, application.checkSelfTest(ctx, cfg))
	}

	if failures := report.Checks(application.stdout, checks); failures > 0 {
		fmt.Fprintln(application.stderr, "")
		fmt.Fprintln(application.stderr, "wwcorpus doctor found problems.")
		fmt.Fprintln(application.stderr, "Fix the failing checks and rerun: wwcorpus doctor")
		return fmt.Errorf("%d doctor checks failed", failures)
	}
	fmt.Fprintln(application.stdout, "")
	fmt.Fprintln(application.stdout, "wwcorpus doctor passed: corpora, tools and output look good.")
	return nil
}

func checkConfiguration(cfg config.Config) report.Check {
	if err := cfg.Validate(); err != nil {
		return report.Check{Name: "configuration", OK: false, Detail: err.Error()}
	}
	source := cfg.Source
	if source == "" {
		source = "defaults"
	}
	return report.Check{Name: "configuration", OK: true, Detail: "valid (" + source + ")"}
}

func checkWakeWordCorpus(cfg config.Config) report.Check {
	name := "wake word corpus"
	if cfg.WakeWord.Path == "" {
		return report.Check{Name: name, OK: false, Detail: "wake_word.path is empty"}
	}
	metadataPath := filepath.Join(cfg.WakeWord.Path, "metadata.json")
	if _, err := os.Stat(metadataPath); err != nil {
		return report.Check{Name: name, OK: false, Detail: fmt.Sprintf("cannot read %s (%v)", metadataPath, err)}
	}
	clipDir := filepath.Join(cfg.WakeWord.Path, cfg.WakeWord.ClipDir)
	if info, err := os.Stat(clipDir); err != nil || !info.IsDir() {
		return report.Check{Name: name, OK: false, Detail: fmt.Sprintf("clip directory %s is missing", clipDir)}
	}
	return report.Check{Name: name, OK: true, Detail: cfg.WakeWord.Path}
}

func checkGeneralCorpus(cfg config.Config) report.Check {
	name := "general corpus"
	if cfg.General.Path == "" {
		return report.Check{Name: name, OK: false, Detail: "general.path is empty"}
	}
	missing := []string{}
	for _, split := range dataset.Splits {
		tsvPath := filepath.Join(cfg.General.Path, string(split)+".tsv")
		if _, err := os.Stat(tsvPath); err != nil {
			missing = append(missing, filepath.Base(tsvPath))
		}
	}
	if len(missing) > 0 {
		return report.Check{Name: name, OK: false, Detail: "missing " + strings.Join(missing, ", ") + " in " + cfg.General.Path}
	}
	return report.Check{Name: name, OK: true, Detail: cfg.General.Path}
}

func checkFFProbe(cfg config.Config) report.Check {
	name := "ffprobe"
	resolved, err := executor.LookPath(cfg.Statistics.FFProbe)
	switch {
	case err == nil:
		return report.Check{Name: name, OK: true, Detail: resolved}
	case cfg.Statistics.SkipLength:
		return report.Check{Name: name, OK: true, Detail: "not found, but not needed while skip_length is on"}
	default:
		return report.Check{Name: name, OK: false, Detail: fmt.Sprintf("%q not found on PATH and skip_length is off", cfg.Statistics.FFProbe)}
	}
}

func checkOutput(ctx context.Context, cfg config.Config) report.Check {
	name := "output"
	store, err := storage.Open(ctx, cfg.Output.Root, cfg.Output.S3)
	if err != nil {
		return report.Check{Name: name, OK: false, Detail: err.Error()}
	}
	if err := storage.Put(ctx, store, doctorProbeFile, func(output io.Writer) error {
		_, writeError := io.WriteString(output, "ok\n")
		return writeError
	}); err != nil {
		return report.Check{Name: name, OK: false, Detail: err.Error()}
	}
	if err := store.Delete(ctx, doctorProbeFile); err != nil {
		return report.Check{Name: name, OK: false, Detail: err.Error()}
	}
	return report.Check{Name: name, OK: true, Detail: store.Location("") + " is writable"}
}

func checkCache(cfg config.Config) report.Check {
	name := "duration cache"
	if cfg.Statistics.CachePath == "" {
		return report.Check{Name: name, OK: true, Detail: "disabled"}
	}
	cache, err := audioprobe.OpenCache(cfg.Statistics.CachePath, audioprobe.WAV{})
	if err != nil {
		return report.Check{Name: name, OK: false, Detail: err.Error()}
	}
	if err := cache.Close(); err != nil {
		return report.Check{Name: name, OK: false, Detail: err.Error()}
	}
	return report.Check{Name: name, OK: true, Detail: cfg.Statistics.CachePath}
}

// checkSelfTest builds and verifies a generated corpus with the configured
// subsample settings in a scratch directory.
func (application *app) checkSelfTest(ctx context.Context, cfg config.Config) report.Check {
	name := "self test"
	scratch, err := os.MkdirTemp("", "wwcorpus-doctor-")
	if err != nil {
		return report.Check{Name: name, OK: false, Detail: err.Error()}
	}
	defer os.RemoveAll(scratch)

	records, err := selfTest(ctx, cfg, scratch, application)
	if err != nil {
		return report.Check{Name: name, OK: false, Detail: err.Error()}
	}
	return report.Check{Name: name, OK: true, Detail: fmt.Sprintf("built and verified %d records", records)}
}

func selfTest(ctx context.Context, cfg config.Config, scratch string, application *app) (int, error) {
	wakeWordRoot := filepath.Join(scratch, "wake-word")
	generalRoot := filepath.Join(scratch, "general")
	clips := []fixture.WakeWordClip{}
	for index := 0; index < 12; index++ {
		clips = append(clips, fixture.WakeWordClip{
			SoundID: fmt.Sprintf("self-test-%02d", index),
			Speaker: fmt.Sprintf("speaker-%d", index%4),
			Seconds: 0.1,
		})
	}
	if err := fixture.WriteWakeWordCorpus(wakeWordRoot, fixture.WakeWordCorpus{ClipDir: cfg.WakeWord.ClipDir, Clips: clips}); err != nil {
		return 0, err
	}
	general := fixture.GenerateCommonVoice(120, 1)
	if err := fixture.WriteCommonVoiceCorpus(generalRoot, map[dataset.Split][]fixture.CommonVoiceClip{
		dataset.Train: general[:80],
		dataset.Dev:   general[80:100],
		dataset.Test:  general[100:],
	}); err != nil {
		return 0, err
	}

	scratchConfig := cfg
	scratchConfig.WakeWord.Loader = loader.WakeWordLoaderName
	scratchConfig.WakeWord.Path = wakeWordRoot
	scratchConfig.General.Loader = loader.CommonVoiceLoaderName
	scratchConfig.General.Path = generalRoot
	scratchConfig.Output = config.Output{Root: filepath.Join(scratch, "out")}
	scratchConfig.Statistics = config.Statistics{SkipLength: false, FFProbe: "ffprobe"}

	store, err := storage.NewLocal(scratchConfig.Output.Root)
	if err != nil {
		return 0, err
	}
	prober := &audioprobe.Counting{Next: audioprobe.WAV{}}
	summary, err := pipeline.Run(ctx, scratchConfig, pipeline.Dependencies{Store: store, Prober: prober, Logger: application.logger})
	if err != nil {
		return 0, err
	}
	if _, err := writer.Verify(ctx, store); err != nil {
		return 0, err
	}
	if prober.Calls() == 0 {
		return 0, errors.New("no clip durations were probed")
	}
	records := 0
	for _, split := range summary.Splits {
		records += split.Result.Records
	}
	return records, nil
}
