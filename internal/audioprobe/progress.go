package audioprobe

import (
	"context"
	"io"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Progress renders one bar per tracked probing pass.
type Progress struct {
	container *mpb.Progress
}

func NewProgress(output io.Writer) *Progress {
	return &Progress{container: mpb.New(mpb.WithOutput(output), mpb.WithWidth(64))}
}

// Track wraps next so every probe advances a bar of total steps. Call the
// returned function when the pass ends, successfully or not.
func (progress *Progress) Track(name string, total int, next Prober) (Prober, func()) {
	bar := progress.container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name+": "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)
	tracked := &trackedProber{next: next, bar: bar}
	return tracked, func() {
		if !bar.Completed() {
			bar.Abort(false)
		}
	}
}

// Wait blocks until every bar has finished rendering.
func (progress *Progress) Wait() {
	progress.container.Wait()
}

type trackedProber struct {
	next Prober
	bar  *mpb.Bar
}

func (probe *trackedProber) Duration(ctx context.Context, path string) (time.Duration, error) {
	started := time.Now()
	duration, err := probe.next.Duration(ctx, path)
	if err == nil {
		probe.bar.EwmaIncrement(time.Since(started))
	}
	return duration, err
}
