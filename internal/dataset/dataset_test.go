package dataset

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"
)

var testFormat = AudioFormat{SampleRate: 16000, Mono: true}

func buildDataset(t *testing.T, split Split, identifiers ...string) *Dataset {
	t.Helper()
	records := make([]Record, 0, len(identifiers))
	for _, identifier := range identifiers {
		records = append(records, NewRecord(identifier, "text "+identifier, "/clips/"+identifier+".wav", split))
	}
	dataset, err := New(split, testFormat, records...)
	if err != nil {
		t.Fatalf("new dataset failed: %v", err)
	}
	return dataset
}

type countingProber struct {
	calls     int
	durations map[string]time.Duration
	failOn    string
}

func (prober *countingProber) Duration(_ context.Context, path string) (time.Duration, error) {
	prober.calls++
	if path == prober.failOn {
		return 0, errors.New("corrupt header")
	}
	return prober.durations[path], nil
}

func TestNew_RejectsForeignSplitRecord(t *testing.T) {
	t.Parallel()

	_, err := New(Train, testFormat, NewRecord("a", "", "a.wav", Train), NewRecord("b", "", "b.wav", Dev))
	if !errors.Is(err, ErrSplitMismatch) {
		t.Fatalf("expected ErrSplitMismatch, got %v", err)
	}
	if _, err := New(Split("holdout"), testFormat); err == nil {
		t.Fatalf("expected unknown split to be rejected")
	}
}

func TestFilter_PreservesOrderAndLeavesReceiver(t *testing.T) {
	t.Parallel()

	dataset := buildDataset(t, Dev, "a", "b", "c", "d", "e")
	filtered := dataset.Filter(func(record Record) bool {
		return record.ID() != "b" && record.ID() != "d"
	})
	if got := filtered.IDs(); !reflect.DeepEqual(got, []string{"a", "c", "e"}) {
		t.Fatalf("expected [a c e], got %v", got)
	}
	if filtered.Split() != Dev || filtered.AudioFormat() != testFormat {
		t.Fatalf("expected split and format to carry over, got %s %+v", filtered.Split(), filtered.AudioFormat())
	}
	if dataset.Len() != 5 {
		t.Fatalf("expected receiver untouched, got %d records", dataset.Len())
	}
}

func TestFilter_KeepAllIsIdentity(t *testing.T) {
	t.Parallel()

	dataset := buildDataset(t, Train, "x", "y", "z")
	filtered := dataset.Filter(func(Record) bool { return true })
	if !reflect.DeepEqual(filtered.Records(), dataset.Records()) {
		t.Fatalf("expected identical records, got %v", filtered.Records())
	}
	if filtered == dataset {
		t.Fatalf("expected a new dataset instance")
	}
}

func TestFilter_EmptyInputYieldsEmptyOutput(t *testing.T) {
	t.Parallel()

	empty := buildDataset(t, Test)
	filtered := empty.Filter(func(Record) bool { return true })
	if filtered.Len() != 0 || filtered.Split() != Test {
		t.Fatalf("expected empty test dataset, got %d records in %s", filtered.Len(), filtered.Split())
	}
}

func TestExtend_AppendsInOrder(t *testing.T) {
	t.Parallel()

	receiver := buildDataset(t, Train, "w1", "w2")
	argument := buildDataset(t, Train, "g1", "g2", "g3")
	before := receiver.Len()
	if err := receiver.Extend(argument); err != nil {
		t.Fatalf("extend failed: %v", err)
	}
	if receiver.Len() != before+argument.Len() {
		t.Fatalf("expected %d records, got %d", before+argument.Len(), receiver.Len())
	}
	if got := receiver.IDs(); !reflect.DeepEqual(got, []string{"w1", "w2", "g1", "g2", "g3"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if argument.Len() != 3 {
		t.Fatalf("expected argument untouched, got %d", argument.Len())
	}
}

func TestExtend_TwiceDuplicates(t *testing.T) {
	t.Parallel()

	receiver := buildDataset(t, Dev, "w1")
	argument := buildDataset(t, Dev, "g1")
	for attempt := 0; attempt < 2; attempt++ {
		if err := receiver.Extend(argument); err != nil {
			t.Fatalf("extend failed: %v", err)
		}
	}
	if got := receiver.IDs(); !reflect.DeepEqual(got, []string{"w1", "g1", "g1"}) {
		t.Fatalf("expected duplicated argument records, got %v", got)
	}
}

func TestExtend_RejectsSplitMismatch(t *testing.T) {
	t.Parallel()

	receiver := buildDataset(t, Train, "w1")
	err := receiver.Extend(buildDataset(t, Test, "g1"))
	if !errors.Is(err, ErrSplitMismatch) {
		t.Fatalf("expected ErrSplitMismatch, got %v", err)
	}
	if receiver.Len() != 1 {
		t.Fatalf("expected receiver unchanged after failed extend, got %d", receiver.Len())
	}
}

func TestRecords_ReturnsCopy(t *testing.T) {
	t.Parallel()

	dataset := buildDataset(t, Train, "a", "b")
	records := dataset.Records()
	records[0] = NewRecord("mutated", "", "", Train)
	if dataset.IDs()[0] != "a" {
		t.Fatalf("expected dataset to be insulated from caller slices")
	}
}

func TestComputeStatistics_SkipLengthNeverProbes(t *testing.T) {
	t.Parallel()

	dataset := buildDataset(t, Train, "a", "b", "c")
	prober := &countingProber{}
	statistics, err := dataset.ComputeStatistics(context.Background(), prober, true)
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if prober.calls != 0 {
		t.Fatalf("expected no probe calls, got %d", prober.calls)
	}
	if statistics.Count != dataset.Len() || statistics.Length != nil {
		t.Fatalf("unexpected statistics %+v", statistics)
	}
	if _, err := dataset.ComputeStatistics(context.Background(), nil, true); err != nil {
		t.Fatalf("expected nil prober to be accepted when skipping, got %v", err)
	}
}

func TestComputeStatistics_Durations(t *testing.T) {
	t.Parallel()

	dataset := buildDataset(t, Dev, "a", "b", "c")
	prober := &countingProber{durations: map[string]time.Duration{
		"/clips/a.wav": 2 * time.Second,
		"/clips/b.wav": 1 * time.Second,
		"/clips/c.wav": 3 * time.Second,
	}}
	statistics, err := dataset.ComputeStatistics(context.Background(), prober, false)
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if prober.calls != 3 {
		t.Fatalf("expected 3 probe calls, got %d", prober.calls)
	}
	expected := LengthStatistics{Total: 6 * time.Second, Mean: 2 * time.Second, Min: time.Second, Max: 3 * time.Second}
	if statistics.Length == nil || *statistics.Length != expected {
		t.Fatalf("expected %+v, got %+v", expected, statistics.Length)
	}
	if got := statistics.String(); got != "num_examples=3 total=6.00s mean=2.00s min=1.00s max=3.00s" {
		t.Fatalf("unexpected report %q", got)
	}
}

func TestComputeStatistics_ProbeFailureIsFatal(t *testing.T) {
	t.Parallel()

	dataset := buildDataset(t, Test, "a", "b", "c")
	prober := &countingProber{failOn: "/clips/b.wav"}
	_, err := dataset.ComputeStatistics(context.Background(), prober, false)
	if !errors.Is(err, ErrStatistics) {
		t.Fatalf("expected ErrStatistics, got %v", err)
	}
	var statisticsError *StatisticsError
	if !errors.As(err, &statisticsError) || statisticsError.ID != "b" {
		t.Fatalf("expected failing record b, got %v", err)
	}
	if prober.calls != 2 {
		t.Fatalf("expected the pass to stop at the failing record, got %d calls", prober.calls)
	}
}

func TestComputeStatistics_EmptyDataset(t *testing.T) {
	t.Parallel()

	statistics, err := buildDataset(t, Train).ComputeStatistics(context.Background(), &countingProber{}, false)
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if statistics.Count != 0 || statistics.Length == nil || statistics.Length.Mean != 0 {
		t.Fatalf("unexpected empty statistics %+v", statistics)
	}
}

func TestCheckDisjoint(t *testing.T) {
	t.Parallel()

	train := buildDataset(t, Train, "a", "b")
	dev := buildDataset(t, Dev, "c")
	test := buildDataset(t, Test, "d")
	if err := CheckDisjoint(train, dev, test); err != nil {
		t.Fatalf("expected disjoint splits, got %v", err)
	}

	leaky := buildDataset(t, Test, "d", "b")
	err := CheckDisjoint(train, dev, leaky)
	if !errors.Is(err, ErrSplitLeak) {
		t.Fatalf("expected ErrSplitLeak, got %v", err)
	}
}

func TestParseSplit(t *testing.T) {
	t.Parallel()

	for _, split := range Splits {
		parsed, err := ParseSplit(" " + fmt.Sprint(split) + " ")
		if err != nil || parsed != split {
			t.Fatalf("expected %s, got %s (%v)", split, parsed, err)
		}
	}
	if _, err := ParseSplit("validation"); err == nil {
		t.Fatalf("expected unknown split to fail")
	}
}
