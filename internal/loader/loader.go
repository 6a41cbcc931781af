// Package loader turns raw corpus directories into train/dev/test datasets.
//
// Loaders are registered by name and chosen from configuration:
//
//	mozilla-wake-word  small keyword corpus, split by hashed sound or speaker id
//	common-voice       general transcribed corpus, split by its own tsv files
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
)

// ErrCorpusLoad reports a missing, malformed or unreadable raw corpus.
var ErrCorpusLoad = errors.New("corpus load failed")

// LoadError carries the offending path of a corpus load failure.
type LoadError struct {
	Path  string
	Cause error
}

func (loadError *LoadError) Error() string {
	if loadError == nil || loadError.Cause == nil {
		return ErrCorpusLoad.Error()
	}
	return fmt.Sprintf("%s: %s: %v", ErrCorpusLoad, loadError.Path, loadError.Cause)
}

func (loadError *LoadError) Unwrap() error {
	if loadError == nil {
		return nil
	}
	return loadError.Cause
}

func (loadError *LoadError) Is(target error) bool {
	return target == ErrCorpusLoad
}

func loadFailure(path string, cause error) error {
	return &LoadError{Path: path, Cause: cause}
}

// Splits is the three-way output of a loader.
type Splits struct {
	Train *dataset.Dataset
	Dev   *dataset.Dataset
	Test  *dataset.Dataset
}

// Get returns the dataset of split, or nil for an unknown split.
func (splits Splits) Get(split dataset.Split) *dataset.Dataset {
	switch split {
	case dataset.Train:
		return splits.Train
	case dataset.Dev:
		return splits.Dev
	case dataset.Test:
		return splits.Test
	default:
		return nil
	}
}

// Each returns the datasets in canonical split order.
func (splits Splits) Each() []*dataset.Dataset {
	return []*dataset.Dataset{splits.Train, splits.Dev, splits.Test}
}

// Loader produces identifier-disjoint train/dev/test datasets from a corpus
// root.
type Loader interface {
	LoadSplits(ctx context.Context, root string, format dataset.AudioFormat) (Splits, error)
}

// SplitType selects the identifier a wake-word corpus is partitioned by.
type SplitType string

const (
	SplitBySound   SplitType = "sound"
	SplitBySpeaker SplitType = "speaker"
)

// Options is the union of loader settings; each loader reads the fields it
// understands.
type Options struct {
	SplitType     SplitType
	ClipDir       string
	Transcription string
	TrainPct      int
	DevPct        int
	VerifyClips   bool
}

type factory func(Options) (Loader, error)

var factories = map[string]factory{
	WakeWordLoaderName: func(options Options) (Loader, error) {
		return NewWakeWordLoader(options)
	},
	CommonVoiceLoaderName: func(options Options) (Loader, error) {
		return NewCommonVoiceLoader(options), nil
	},
}

// New builds the loader registered under name.
func New(name string, options Options) (Loader, error) {
	build, ok := factories[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("unknown loader %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return build(options)
}

// Names lists the registered loader names.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func buildSplits(format dataset.AudioFormat, buckets map[dataset.Split][]dataset.Record) (Splits, error) {
	splits := Splits{}
	for _, split := range dataset.Splits {
		built, err := dataset.New(split, format, buckets[split]...)
		if err != nil {
			return Splits{}, err
		}
		switch split {
		case dataset.Train:
			splits.Train = built
		case dataset.Dev:
			splits.Dev = built
		case dataset.Test:
			splits.Test = built
		}
	}
	if err := dataset.CheckDisjoint(splits.Each()...); err != nil {
		return Splits{}, err
	}
	return splits, nil
}
