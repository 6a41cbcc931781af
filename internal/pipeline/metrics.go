package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
)

// Stage counters recorded per split.
const (
	StageWakeWordLoaded = "wake_word_loaded"
	StageGeneralLoaded  = "general_loaded"
	StageGeneralKept    = "general_kept"
	StageCombined       = "combined"
	StageWritten        = "written"
)

// Metrics collects per-split record counts and per-stage wall time for one
// run. It renders in the Prometheus text format.
type Metrics struct {
	mu        sync.Mutex
	records   map[dataset.Split]map[string]int
	durations map[string]time.Duration
	failures  int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		records:   map[dataset.Split]map[string]int{},
		durations: map[string]time.Duration{},
	}
}

func (metrics *Metrics) recordCount(split dataset.Split, stage string, count int) {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.records[split] == nil {
		metrics.records[split] = map[string]int{}
	}
	metrics.records[split][stage] = count
}

func (metrics *Metrics) recordDuration(stage string, elapsed time.Duration) {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.durations[stage] += elapsed
}

func (metrics *Metrics) recordFailure() {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.failures++
}

// Counts returns a copy of the stage counts of split.
func (metrics *Metrics) Counts(split dataset.Split) map[string]int {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	counts := map[string]int{}
	for stage, count := range metrics.records[split] {
		counts[stage] = count
	}
	return counts
}

// Render returns the metrics in the Prometheus text exposition format with
// a stable line order.
func (metrics *Metrics) Render() string {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	lines := []string{"# TYPE wwcorpus_records gauge"}
	for _, split := range dataset.Splits {
		stages := make([]string, 0, len(metrics.records[split]))
		for stage := range metrics.records[split] {
			stages = append(stages, stage)
		}
		sort.Strings(stages)
		for _, stage := range stages {
			lines = append(lines, fmt.Sprintf(`wwcorpus_records{split="%s",stage="%s"} %d`, split, stage, metrics.records[split][stage]))
		}
	}
	lines = append(lines, "# TYPE wwcorpus_stage_seconds_total counter")
	stages := make([]string, 0, len(metrics.durations))
	for stage := range metrics.durations {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		lines = append(lines, fmt.Sprintf(`wwcorpus_stage_seconds_total{stage="%s"} %.3f`, stage, metrics.durations[stage].Seconds()))
	}
	lines = append(lines,
		"# TYPE wwcorpus_split_failures_total counter",
		fmt.Sprintf("wwcorpus_split_failures_total %d", metrics.failures),
	)
	return strings.Join(lines, "\n") + "\n"
}
