// Package merge appends filtered general-corpus splits onto the matching
// wake-word splits.
package merge

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
)

// ErrAlreadyMerged reports a second merge of the same split within one run.
var ErrAlreadyMerged = errors.New("split already merged")

// Merger tracks which splits were merged so each is merged exactly once.
// It is safe for concurrent use across different splits.
type Merger struct {
	mu     sync.Mutex
	merged map[dataset.Split]bool
}

func New() *Merger {
	return &Merger{merged: map[dataset.Split]bool{}}
}

// Merge extends wakeWord with general and returns wakeWord. Wake-word records
// stay first; general records follow in their own order.
func (merger *Merger) Merge(wakeWord, general *dataset.Dataset) (*dataset.Dataset, error) {
	if wakeWord == nil || general == nil {
		return nil, errors.New("merge: nil dataset")
	}
	split := wakeWord.Split()

	merger.mu.Lock()
	defer merger.mu.Unlock()
	if merger.merged[split] {
		return nil, fmt.Errorf("merge %s: %w", split, ErrAlreadyMerged)
	}
	if err := wakeWord.Extend(general); err != nil {
		return nil, fmt.Errorf("merge %s: %w", split, err)
	}
	merger.merged[split] = true
	return wakeWord, nil
}

// Merged returns the merged splits in canonical order.
func (merger *Merger) Merged() []dataset.Split {
	merger.mu.Lock()
	defer merger.mu.Unlock()
	splits := make([]dataset.Split, 0, len(merger.merged))
	for _, split := range dataset.Splits {
		if merger.merged[split] {
			splits = append(splits, split)
		}
	}
	return splits
}
