package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrSplitMismatch reports an attempt to mix records or datasets of
	// different splits.
	ErrSplitMismatch = errors.New("split mismatch")
	// ErrSplitLeak reports an identifier present in more than one split.
	ErrSplitLeak = errors.New("identifier present in more than one split")
	// ErrStatistics reports a failed duration probe during statistics.
	ErrStatistics = errors.New("statistics computation failed")
)

// StatisticsError carries the record whose duration could not be probed.
type StatisticsError struct {
	ID    string
	Path  string
	Cause error
}

func (statisticsError *StatisticsError) Error() string {
	if statisticsError == nil {
		return ErrStatistics.Error()
	}
	return fmt.Sprintf("%s: probe %s (%s): %v", ErrStatistics, statisticsError.ID, statisticsError.Path, statisticsError.Cause)
}

func (statisticsError *StatisticsError) Unwrap() error {
	if statisticsError == nil {
		return nil
	}
	return statisticsError.Cause
}

func (statisticsError *StatisticsError) Is(target error) bool {
	return target == ErrStatistics
}
