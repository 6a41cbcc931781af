// Package dataset holds the ordered, split-tagged clip collections that the
// corpus pipeline filters, merges and writes.
package dataset

import (
	"fmt"
	"iter"
)

// AudioFormat describes how payloads are meant to be decoded downstream.
// The dataset only carries it; nothing here decodes audio.
type AudioFormat struct {
	SampleRate int  `json:"sample_rate" yaml:"sample_rate"`
	Mono       bool `json:"mono" yaml:"mono"`
}

// Dataset is an ordered sequence of records sharing one split.
//
// Filter derives new datasets; Extend is the only operation that mutates one.
// A Dataset is not safe for concurrent mutation.
type Dataset struct {
	split   Split
	format  AudioFormat
	records []Record
}

// New builds a dataset for split. Every record must already carry split.
func New(split Split, format AudioFormat, records ...Record) (*Dataset, error) {
	if !split.Valid() {
		return nil, fmt.Errorf("new dataset: unknown split %q", split)
	}
	for _, record := range records {
		if record.Split() != split {
			return nil, fmt.Errorf("new dataset: record %s has split %s, dataset is %s: %w", record.ID(), record.Split(), split, ErrSplitMismatch)
		}
	}
	owned := make([]Record, len(records))
	copy(owned, records)
	return &Dataset{split: split, format: format, records: owned}, nil
}

func (dataset *Dataset) Split() Split             { return dataset.split }
func (dataset *Dataset) AudioFormat() AudioFormat { return dataset.format }
func (dataset *Dataset) Len() int                 { return len(dataset.records) }

// Records returns a copy of the records in order.
func (dataset *Dataset) Records() []Record {
	records := make([]Record, len(dataset.records))
	copy(records, dataset.records)
	return records
}

// All iterates records in order.
func (dataset *Dataset) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		for index, record := range dataset.records {
			if !yield(index, record) {
				return
			}
		}
	}
}

// IDs returns the record identifiers in order.
func (dataset *Dataset) IDs() []string {
	identifiers := make([]string, len(dataset.records))
	for index, record := range dataset.records {
		identifiers[index] = record.ID()
	}
	return identifiers
}

// Filter returns a new dataset with the same split and format holding the
// records for which keep returns true, in their original order. The receiver
// is not modified. Filtering an empty dataset yields an empty dataset.
func (dataset *Dataset) Filter(keep func(Record) bool) *Dataset {
	kept := make([]Record, 0, len(dataset.records))
	for _, record := range dataset.records {
		if keep(record) {
			kept = append(kept, record)
		}
	}
	return &Dataset{split: dataset.split, format: dataset.format, records: kept}
}

// Extend appends other's records after the receiver's, in other's order.
// It is not idempotent: extending twice with the same dataset duplicates its
// records.
func (dataset *Dataset) Extend(other *Dataset) error {
	if other == nil {
		return fmt.Errorf("extend %s dataset: nil argument", dataset.split)
	}
	if other.split != dataset.split {
		return fmt.Errorf("extend %s dataset with %s dataset: %w", dataset.split, other.split, ErrSplitMismatch)
	}
	dataset.records = append(dataset.records, other.records...)
	return nil
}
