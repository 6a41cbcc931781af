package dataset

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DurationProber returns the playback duration of a payload.
type DurationProber interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// LengthStatistics aggregates payload durations.
type LengthStatistics struct {
	Total time.Duration `json:"total"`
	Mean  time.Duration `json:"mean"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
}

// Statistics is the diagnostic report for one dataset. Length is nil when
// the duration pass was skipped.
type Statistics struct {
	Count  int               `json:"num_examples"`
	Length *LengthStatistics `json:"length,omitempty"`
}

func (statistics Statistics) String() string {
	builder := strings.Builder{}
	fmt.Fprintf(&builder, "num_examples=%d", statistics.Count)
	if statistics.Length != nil {
		fmt.Fprintf(&builder, " total=%s mean=%s min=%s max=%s",
			formatSeconds(statistics.Length.Total),
			formatSeconds(statistics.Length.Mean),
			formatSeconds(statistics.Length.Min),
			formatSeconds(statistics.Length.Max),
		)
	}
	return builder.String()
}

func formatSeconds(duration time.Duration) string {
	return fmt.Sprintf("%.2fs", duration.Seconds())
}

// ComputeStatistics counts the records and, unless skipLength is set, probes
// every payload once for its duration. With skipLength the prober is never
// touched and may be nil.
//
// The first failed probe aborts the pass with a *StatisticsError.
func (dataset *Dataset) ComputeStatistics(ctx context.Context, prober DurationProber, skipLength bool) (Statistics, error) {
	statistics := Statistics{Count: len(dataset.records)}
	if skipLength {
		return statistics, nil
	}
	if prober == nil {
		return Statistics{}, fmt.Errorf("compute %s statistics: no duration prober configured", dataset.split)
	}

	length := LengthStatistics{}
	for index, record := range dataset.records {
		if err := ctx.Err(); err != nil {
			return Statistics{}, err
		}
		duration, probeError := prober.Duration(ctx, record.Path())
		if probeError != nil {
			return Statistics{}, &StatisticsError{ID: record.ID(), Path: record.Path(), Cause: probeError}
		}
		length.Total += duration
		if index == 0 || duration < length.Min {
			length.Min = duration
		}
		if duration > length.Max {
			length.Max = duration
		}
	}
	if count := len(dataset.records); count > 0 {
		length.Mean = length.Total / time.Duration(count)
	}
	statistics.Length = &length
	return statistics, nil
}
