// Package subsample shrinks a general speech corpus to a target share while
// keeping the clips whose transcriptions mention the target keywords.
package subsample

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
	"github.com/BegaDeveloper/wwcorpus/internal/hashing"
)

// ErrInvalidConfig reports an impossible percentage or keyword combination.
var ErrInvalidConfig = errors.New("invalid subsample configuration")

// Config selects which buckets are kept.
//
// Buckets below FilterPct are always kept. Buckets in [FilterPct, TargetPct)
// are kept when the transcription mentions a target word. The rest are
// dropped.
type Config struct {
	FilterPct   int      `json:"filter_pct" yaml:"filter_pct"`
	TargetPct   int      `json:"target_pct" yaml:"target_pct"`
	// TargetWords are matched as substrings. Only a word written with a
	// leading space (" fox") is anchored at the start of a word.
	TargetWords []string `json:"target_words" yaml:"target_words"`
}

// Check validates config without building a Subsampler.
func Check(config Config) error {
	if config.FilterPct < 0 || config.FilterPct > hashing.Buckets {
		return fmt.Errorf("%w: filter_pct %d outside [0,%d]", ErrInvalidConfig, config.FilterPct, hashing.Buckets)
	}
	if config.TargetPct < 0 || config.TargetPct > hashing.Buckets {
		return fmt.Errorf("%w: target_pct %d outside [0,%d]", ErrInvalidConfig, config.TargetPct, hashing.Buckets)
	}
	if config.FilterPct > config.TargetPct {
		return fmt.Errorf("%w: filter_pct %d exceeds target_pct %d", ErrInvalidConfig, config.FilterPct, config.TargetPct)
	}
	if config.TargetPct > config.FilterPct && len(normalizeWords(config.TargetWords)) == 0 {
		return fmt.Errorf("%w: target_words is empty but target_pct %d exceeds filter_pct %d", ErrInvalidConfig, config.TargetPct, config.FilterPct)
	}
	return nil
}

// Subsampler is the keep predicate for general corpus records.
type Subsampler struct {
	filterPct   int
	targetPct   int
	targetWords []string
}

// New validates config and returns its predicate.
func New(config Config) (*Subsampler, error) {
	if err := Check(config); err != nil {
		return nil, err
	}
	return &Subsampler{
		filterPct:   config.FilterPct,
		targetPct:   config.TargetPct,
		targetWords: normalizeWords(config.TargetWords),
	}, nil
}

// Keep reports whether record survives subsampling.
func (subsampler *Subsampler) Keep(record dataset.Record) bool {
	bucket := hashing.Bucket(record.ID())
	if bucket < subsampler.filterPct {
		return true
	}
	if bucket < subsampler.targetPct {
		return subsampler.Mentions(record.Transcription())
	}
	return false
}

// Mentions reports whether any target word occurs in the transcription.
//
// Matching is plain substring containment on the lower-cased transcription
// with a single space prepended. A target word written with a leading space
// (" fox") therefore only matches at the start of a word; without it ("fox")
// it also matches inside longer words such as "firefox".
func (subsampler *Subsampler) Mentions(transcription string) bool {
	padded := " " + strings.ToLower(transcription)
	for _, word := range subsampler.targetWords {
		if strings.Contains(padded, word) {
			return true
		}
	}
	return false
}

// Apply filters dataset with Keep. The result depends only on the
// configuration and the input records.
func (subsampler *Subsampler) Apply(input *dataset.Dataset) *dataset.Dataset {
	return input.Filter(subsampler.Keep)
}

// normalizeWords lower-cases target words and drops blank ones. Leading and
// trailing spaces are significant and kept.
func normalizeWords(words []string) []string {
	normalized := make([]string, 0, len(words))
	for _, word := range words {
		if strings.TrimSpace(word) == "" {
			continue
		}
		normalized = append(normalized, strings.ToLower(word))
	}
	return normalized
}
