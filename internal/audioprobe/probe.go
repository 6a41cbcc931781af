// Package audioprobe measures payload durations for dataset statistics.
//
// WAV payloads are measured from their RIFF headers. Anything else goes
// through ffprobe. Probers compose: Cache memoises results in a bbolt file,
// Progress reports on a terminal bar, Counting counts calls.
package audioprobe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-audio/wav"

	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
	"github.com/BegaDeveloper/wwcorpus/internal/executor"
)

// Prober is the duration contract consumed by dataset statistics.
type Prober = dataset.DurationProber

// WAV reads the duration of a PCM WAV file from its header and data chunk
// size. No samples are decoded.
type WAV struct{}

func (WAV) Duration(_ context.Context, path string) (time.Duration, error) {
	file, openError := os.Open(path)
	if openError != nil {
		return 0, openError
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if forwardError := decoder.FwdToPCM(); forwardError != nil {
		return 0, fmt.Errorf("read wav header %s: %w", path, forwardError)
	}
	bytesPerFrame := int64(decoder.NumChans) * int64(decoder.BitDepth) / 8
	if decoder.SampleRate == 0 || bytesPerFrame == 0 {
		return 0, fmt.Errorf("read wav header %s: invalid format (rate=%d channels=%d depth=%d)", path, decoder.SampleRate, decoder.NumChans, decoder.BitDepth)
	}
	return framesDuration(decoder.PCMLen()/bytesPerFrame, int64(decoder.SampleRate)), nil
}

// framesDuration converts a frame count to a duration. Whole seconds are
// split off first so long recordings do not overflow.
func framesDuration(frames, sampleRate int64) time.Duration {
	seconds := frames / sampleRate
	remainder := frames % sampleRate
	return time.Duration(seconds)*time.Second + time.Duration(remainder)*time.Second/time.Duration(sampleRate)
}

// FFProbe asks ffprobe for the container duration.
type FFProbe struct {
	// Binary defaults to "ffprobe" on PATH.
	Binary string
}

func (probe FFProbe) Duration(ctx context.Context, path string) (time.Duration, error) {
	binary := probe.Binary
	if binary == "" {
		binary = "ffprobe"
	}
	output, err := executor.Output(ctx, binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}
	return parseSeconds(string(output))
}

func parseSeconds(raw string) (time.Duration, error) {
	value := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if value == "" || value == "N/A" {
		return 0, fmt.Errorf("no duration reported")
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", value, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative duration %q", value)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Auto measures .wav payloads with WAV and everything else with FFProbe.
type Auto struct {
	WAV     WAV
	FFProbe FFProbe
}

func (probe Auto) Duration(ctx context.Context, path string) (time.Duration, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return probe.WAV.Duration(ctx, path)
	}
	return probe.FFProbe.Duration(ctx, path)
}

// Counting counts calls before delegating to Next.
type Counting struct {
	Next  Prober
	calls atomic.Int64
}

func (probe *Counting) Duration(ctx context.Context, path string) (time.Duration, error) {
	probe.calls.Add(1)
	if probe.Next == nil {
		return 0, nil
	}
	return probe.Next.Duration(ctx, path)
}

// Calls returns the number of Duration calls so far.
func (probe *Counting) Calls() int64 {
	return probe.calls.Load()
}
