package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
)

func TestMetrics_RenderIsStable(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	metrics.recordCount(dataset.Dev, StageWritten, 4)
	metrics.recordCount(dataset.Train, StageGeneralKept, 12)
	metrics.recordCount(dataset.Train, StageCombined, 22)
	metrics.recordDuration("write", 1500*time.Millisecond)
	metrics.recordDuration("write", 500*time.Millisecond)
	metrics.recordFailure()

	rendered := metrics.Render()
	expected := []string{
		"# TYPE wwcorpus_records gauge",
		`wwcorpus_records{split="train",stage="combined"} 22`,
		`wwcorpus_records{split="train",stage="general_kept"} 12`,
		`wwcorpus_records{split="dev",stage="written"} 4`,
		"# TYPE wwcorpus_stage_seconds_total counter",
		`wwcorpus_stage_seconds_total{stage="write"} 2.000`,
		"# TYPE wwcorpus_split_failures_total counter",
		"wwcorpus_split_failures_total 1",
	}
	if rendered != strings.Join(expected, "\n")+"\n" {
		t.Fatalf("unexpected rendering:\n%s", rendered)
	}
	if rendered != metrics.Render() {
		t.Fatalf("expected repeated renders to match")
	}
}

func TestMetrics_CountsAreCopies(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	metrics.recordCount(dataset.Test, StageCombined, 3)
	counts := metrics.Counts(dataset.Test)
	counts[StageCombined] = 99
	if metrics.Counts(dataset.Test)[StageCombined] != 3 {
		t.Fatalf("expected internal counts to be unaffected")
	}
	if len(metrics.Counts(dataset.Dev)) != 0 {
		t.Fatalf("expected no counts for untouched split")
	}
}
