// Package config loads the corpus build settings from YAML, environment
// overrides and flags, and validates them before any corpus is touched.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
	"github.com/BegaDeveloper/wwcorpus/internal/loader"
	"github.com/BegaDeveloper/wwcorpus/internal/storage"
	"github.com/BegaDeveloper/wwcorpus/internal/subsample"
)

// FileName is the configuration file looked up from the working directory
// upwards when no path is given.
const FileName = "wwcorpus.yaml"

// ErrConfiguration marks settings that cannot produce a build.
var ErrConfiguration = errors.New("configuration error")

type WakeWord struct {
	Loader        string `yaml:"loader" json:"loader"`
	Path          string `yaml:"path" json:"path"`
	SplitType     string `yaml:"split_type" json:"split_type"`
	ClipDir       string `yaml:"clip_dir" json:"clip_dir"`
	Transcription string `yaml:"transcription" json:"transcription"`
	TrainPct      int    `yaml:"train_pct" json:"train_pct"`
	DevPct        int    `yaml:"dev_pct" json:"dev_pct"`
}

type General struct {
	Loader      string `yaml:"loader" json:"loader"`
	Path        string `yaml:"path" json:"path"`
	VerifyClips bool   `yaml:"verify_clips" json:"verify_clips"`
}

type Output struct {
	Root      string            `yaml:"root" json:"root"`
	CopyAudio bool              `yaml:"copy_audio" json:"copy_audio"`
	S3        storage.S3Options `yaml:"s3" json:"s3"`
}

type Statistics struct {
	SkipLength bool   `yaml:"skip_length" json:"skip_length"`
	CachePath  string `yaml:"cache_path" json:"cache_path,omitempty"`
	Progress   bool   `yaml:"progress" json:"progress"`
	FFProbe    string `yaml:"ffprobe" json:"ffprobe"`
}

type Pipeline struct {
	ParallelSplits bool `yaml:"parallel_splits" json:"parallel_splits"`
}

type Config struct {
	WakeWord   WakeWord            `yaml:"wake_word" json:"wake_word"`
	General    General             `yaml:"general" json:"general"`
	Subsample  subsample.Config    `yaml:"subsample" json:"subsample"`
	Audio      dataset.AudioFormat `yaml:"audio" json:"audio"`
	Output     Output              `yaml:"output" json:"output"`
	Statistics Statistics          `yaml:"statistics" json:"statistics"`
	Pipeline   Pipeline            `yaml:"pipeline" json:"pipeline"`

	// Source is the file the configuration was read from, if any.
	Source string `yaml:"-" json:"-"`
}

// Default returns the settings of a stock build: keep 1% of the general
// corpus plus every clip mentioning " hey", "fire" or "fox".
func Default() Config {
	return Config{
		WakeWord: WakeWord{
			Loader:        loader.WakeWordLoaderName,
			SplitType:     string(loader.SplitBySound),
			ClipDir:       "verified",
			Transcription: "hey firefox",
			TrainPct:      80,
			DevPct:        10,
		},
		General: General{Loader: loader.CommonVoiceLoaderName},
		Subsample: subsample.Config{
			FilterPct:   1,
			TargetPct:   100,
			TargetWords: []string{" hey", "fire", "fox"},
		},
		Audio:      dataset.AudioFormat{SampleRate: 16000, Mono: true},
		Output:     Output{Root: "data/corpus"},
		Statistics: Statistics{SkipLength: true, FFProbe: "ffprobe"},
	}
}

// FindFile walks from directory towards the root looking for FileName.
func FindFile(directory string) string {
	current := directory
	for {
		candidate := filepath.Join(current, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

// Load reads path over Default. An empty path falls back to FindFile from
// the working directory, and to plain defaults when nothing is found.
func Load(path string) (Config, error) {
	config := Default()
	configPath := strings.TrimSpace(path)
	if configPath == "" {
		workingDirectory, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory failed: %w", err)
		}
		configPath = FindFile(workingDirectory)
		if configPath == "" {
			return config, nil
		}
	}
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read %s: %w", ErrConfiguration, configPath, err)
	}
	if err := Parse(raw, &config); err != nil {
		return Config{}, fmt.Errorf("%w: invalid %s: %w", ErrConfiguration, configPath, err)
	}
	config.Source = configPath
	return config, nil
}

// Parse decodes YAML onto config, keeping fields the document leaves out.
// Unknown keys are rejected.
func Parse(raw []byte, config *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports the first setting that cannot produce a build. It does
// no I/O.
func (config Config) Validate() error {
	if err := subsample.Check(config.Subsample); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	switch loader.SplitType(config.WakeWord.SplitType) {
	case loader.SplitBySound, loader.SplitBySpeaker:
	default:
		return fmt.Errorf("%w: split_type %q must be sound or speaker", ErrConfiguration, config.WakeWord.SplitType)
	}
	if config.WakeWord.TrainPct < 0 || config.WakeWord.DevPct < 0 || config.WakeWord.TrainPct+config.WakeWord.DevPct > 100 {
		return fmt.Errorf("%w: train_pct %d and dev_pct %d must be non-negative and sum to at most 100", ErrConfiguration, config.WakeWord.TrainPct, config.WakeWord.DevPct)
	}
	if strings.TrimSpace(config.WakeWord.Path) == "" {
		return fmt.Errorf("%w: wake_word.path is required", ErrConfiguration)
	}
	if strings.TrimSpace(config.General.Path) == "" {
		return fmt.Errorf("%w: general.path is required", ErrConfiguration)
	}
	if strings.TrimSpace(config.Output.Root) == "" {
		return fmt.Errorf("%w: output.root is required", ErrConfiguration)
	}
	if config.Audio.SampleRate <= 0 {
		return fmt.Errorf("%w: audio.sample_rate must be positive, got %d", ErrConfiguration, config.Audio.SampleRate)
	}
	known := loader.Names()
	for _, name := range []string{config.WakeWord.Loader, config.General.Loader} {
		if !contains(known, name) {
			return fmt.Errorf("%w: unknown loader %q (known: %s)", ErrConfiguration, name, strings.Join(known, ", "))
		}
	}
	if !config.Statistics.SkipLength && strings.TrimSpace(config.Statistics.FFProbe) == "" {
		return fmt.Errorf("%w: statistics.ffprobe is required when skip_length is false", ErrConfiguration)
	}
	return nil
}

// LoaderOptions maps the wake-word section onto loader options.
func (wakeWord WakeWord) LoaderOptions() loader.Options {
	return loader.Options{
		SplitType:     loader.SplitType(wakeWord.SplitType),
		ClipDir:       wakeWord.ClipDir,
		Transcription: wakeWord.Transcription,
		TrainPct:      wakeWord.TrainPct,
		DevPct:        wakeWord.DevPct,
	}
}

func (general General) LoaderOptions() loader.Options {
	return loader.Options{VerifyClips: general.VerifyClips}
}

func contains(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}
