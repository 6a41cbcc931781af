// Package pipeline runs a corpus build: load both corpora, subsample the
// general one, merge per split, log statistics and write the output.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/BegaDeveloper/wwcorpus/internal/audioprobe"
	"github.com/BegaDeveloper/wwcorpus/internal/config"
	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
	"github.com/BegaDeveloper/wwcorpus/internal/loader"
	"github.com/BegaDeveloper/wwcorpus/internal/logging"
	"github.com/BegaDeveloper/wwcorpus/internal/merge"
	"github.com/BegaDeveloper/wwcorpus/internal/storage"
	"github.com/BegaDeveloper/wwcorpus/internal/subsample"
	"github.com/BegaDeveloper/wwcorpus/internal/writer"
)

// Statistics log labels, in the order they are emitted for each split.
const (
	LabelFiltered = "Filtered general dataset"
	LabelWakeWord = "Wake word dataset"
	LabelCombined = "Combined dataset"
)

// MetricsName is written next to the metadata before the manifest.
const MetricsName = "metrics.prom"

// Dependencies are the collaborators a run does not build itself.
type Dependencies struct {
	Store  storage.FileStore
	Logger *slog.Logger
	// Prober is required unless statistics skip lengths.
	Prober audioprobe.Prober
	// Progress, when set, shows a bar for every probing pass.
	Progress *audioprobe.Progress
	Now      func() time.Time
}

// SplitSummary is the outcome of one split.
type SplitSummary struct {
	Split    dataset.Split
	Counts   map[string]int
	Combined dataset.Statistics
	Result   writer.Result

	combined *dataset.Dataset
}

type Summary struct {
	RunID    string
	Location string
	Splits   []SplitSummary
	Metrics  *Metrics
}

type run struct {
	config     config.Config
	deps       Dependencies
	logger     *slog.Logger
	subsampler *subsample.Subsampler
	merger     *merge.Merger
	writer     *writer.Writer
	metrics    *Metrics
	wakeWord   loader.Splits
	general    loader.Splits
}

// Run builds the corpus described by cfg into deps.Store. The manifest is
// removed first and written last, so a failed run never leaves output that
// passes verification.
func Run(ctx context.Context, cfg config.Config, deps Dependencies) (Summary, error) {
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}
	if deps.Store == nil {
		return Summary{}, fmt.Errorf("pipeline: no output store")
	}
	if !cfg.Statistics.SkipLength && deps.Prober == nil {
		return Summary{}, fmt.Errorf("pipeline: duration statistics need a prober")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	subsampler, err := subsample.New(cfg.Subsample)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}

	current := &run{
		config:     cfg,
		deps:       deps,
		logger:     deps.Logger,
		subsampler: subsampler,
		merger:     merge.New(),
		writer:     writer.New(deps.Store, writer.Options{CopyAudio: cfg.Output.CopyAudio}),
		metrics:    NewMetrics(),
	}
	if err := current.load(ctx); err != nil {
		return Summary{}, err
	}
	if err := writer.ClearManifest(ctx, deps.Store); err != nil {
		return Summary{}, err
	}

	summaries, err := current.processSplits(ctx)
	if err != nil {
		return Summary{}, err
	}
	return current.finish(ctx, summaries)
}

func (current *run) load(ctx context.Context) error {
	started := time.Now()
	defer func() { current.metrics.recordDuration("load", time.Since(started)) }()

	wakeWordLoader, err := loader.New(current.config.WakeWord.Loader, current.config.WakeWord.LoaderOptions())
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}
	generalLoader, err := loader.New(current.config.General.Loader, current.config.General.LoaderOptions())
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}

	current.wakeWord, err = wakeWordLoader.LoadSplits(ctx, current.config.WakeWord.Path, current.config.Audio)
	if err != nil {
		return err
	}
	current.general, err = generalLoader.LoadSplits(ctx, current.config.General.Path, current.config.Audio)
	if err != nil {
		return err
	}
	for _, split := range dataset.Splits {
		wakeWordCount := current.wakeWord.Get(split).Len()
		generalCount := current.general.Get(split).Len()
		current.metrics.recordCount(split, StageWakeWordLoaded, wakeWordCount)
		current.metrics.recordCount(split, StageGeneralLoaded, generalCount)
		current.logger.Debug("corpora loaded", "split", split, "wake_word", wakeWordCount, "general", generalCount)
	}
	return nil
}

func (current *run) processSplits(ctx context.Context) ([]SplitSummary, error) {
	summaries := make([]SplitSummary, len(dataset.Splits))
	if !current.config.Pipeline.ParallelSplits {
		for index, split := range dataset.Splits {
			summary, err := current.processSplit(ctx, split)
			if err != nil {
				return nil, err
			}
			summaries[index] = summary
		}
		return summaries, nil
	}

	splitCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	waitGroup := sync.WaitGroup{}
	for index, split := range dataset.Splits {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			summary, err := current.processSplit(splitCtx, split)
			if err != nil {
				cancel(err)
				return
			}
			summaries[index] = summary
		}()
	}
	waitGroup.Wait()
	if cause := context.Cause(splitCtx); cause != nil {
		return nil, cause
	}
	return summaries, nil
}

func (current *run) processSplit(ctx context.Context, split dataset.Split) (summary SplitSummary, err error) {
	defer func() {
		if err != nil {
			current.metrics.recordFailure()
			current.logger.Error("split failed", "split", split, "error", err)
		}
	}()
	wakeWord := current.wakeWord.Get(split)
	general := current.general.Get(split)

	started := time.Now()
	filtered := current.subsampler.Apply(general)
	current.metrics.recordDuration("subsample", time.Since(started))
	current.metrics.recordCount(split, StageGeneralKept, filtered.Len())

	if _, err := current.statistics(ctx, LabelFiltered, filtered); err != nil {
		return SplitSummary{}, err
	}
	if _, err := current.statistics(ctx, LabelWakeWord, wakeWord); err != nil {
		return SplitSummary{}, err
	}
	combined, err := current.merger.Merge(wakeWord, filtered)
	if err != nil {
		return SplitSummary{}, err
	}
	current.metrics.recordCount(split, StageCombined, combined.Len())
	combinedStatistics, err := current.statistics(ctx, LabelCombined, combined)
	if err != nil {
		return SplitSummary{}, err
	}

	started = time.Now()
	result, err := current.writer.Write(ctx, combined)
	current.metrics.recordDuration("write", time.Since(started))
	if err != nil {
		return SplitSummary{}, err
	}
	current.metrics.recordCount(split, StageWritten, result.Records)
	current.logger.Info("split written", "split", split, "records", result.Records, "location", current.deps.Store.Location(result.File))

	return SplitSummary{
		Split:    split,
		Counts:   current.metrics.Counts(split),
		Combined: combinedStatistics,
		Result:   result,
		combined: combined,
	}, nil
}

func (current *run) statistics(ctx context.Context, label string, ds *dataset.Dataset) (dataset.Statistics, error) {
	started := time.Now()
	defer func() { current.metrics.recordDuration("statistics", time.Since(started)) }()

	prober := current.deps.Prober
	skipLength := current.config.Statistics.SkipLength
	if !skipLength && current.deps.Progress != nil {
		tracked, done := current.deps.Progress.Track(fmt.Sprintf("%s (%s)", label, ds.Split()), ds.Len(), prober)
		defer done()
		prober = tracked
	}
	statistics, err := ds.ComputeStatistics(ctx, prober, skipLength)
	if err != nil {
		return dataset.Statistics{}, err
	}
	current.logger.Info(fmt.Sprintf("%s (%s) statistics: %s", label, ds.Split(), statistics))
	return statistics, nil
}

func (current *run) finish(ctx context.Context, summaries []SplitSummary) (Summary, error) {
	combined := make([]*dataset.Dataset, 0, len(summaries))
	for _, summary := range summaries {
		combined = append(combined, summary.combined)
	}
	if err := dataset.CheckDisjoint(combined...); err != nil {
		return Summary{}, err
	}

	if err := storage.Put(ctx, current.deps.Store, MetricsName, func(output io.Writer) error {
		_, err := io.WriteString(output, current.metrics.Render())
		return err
	}); err != nil {
		return Summary{}, err
	}

	manifest, err := writer.NewManifest(current.config, current.deps.Now())
	if err != nil {
		return Summary{}, err
	}
	for _, summary := range summaries {
		manifest.Add(summary.Result, summary.Counts)
	}
	if err := writer.WriteManifest(ctx, current.deps.Store, manifest); err != nil {
		return Summary{}, err
	}
	current.logger.Info("build complete", "run_id", manifest.RunID, "location", current.deps.Store.Location(writer.ManifestName))
	return Summary{
		RunID:    manifest.RunID,
		Location: current.deps.Store.Location(""),
		Splits:   summaries,
		Metrics:  current.metrics,
	}, nil
}
