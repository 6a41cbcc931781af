package audioprobe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BegaDeveloper/wwcorpus/internal/fixture"
)

func TestCache_ReusesUntilPayloadChanges(t *testing.T) {
	t.Parallel()

	clip := writeClip(t, "clip.wav", 0.25)
	counting := &Counting{Next: WAV{}}
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache", "durations.db"), counting)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	for index := 0; index < 3; index++ {
		got, probeErr := cache.Duration(context.Background(), clip)
		if probeErr != nil {
			t.Fatalf("unexpected error: %v", probeErr)
		}
		if got != 250*time.Millisecond {
			t.Fatalf("expected 250ms, got %v", got)
		}
	}
	if counting.Calls() != 1 {
		t.Fatalf("expected one underlying probe, got %d", counting.Calls())
	}
	if hits, misses := cache.Stats(); hits != 2 || misses != 1 {
		t.Fatalf("expected 2 hits and 1 miss, got %d/%d", hits, misses)
	}

	if err := os.Remove(clip); err != nil {
		t.Fatal(err)
	}
	if err := fixture.WriteWAV(clip, fixture.DefaultSampleRate, 1.5); err != nil {
		t.Fatal(err)
	}
	got, err := cache.Duration(context.Background(), clip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1500*time.Millisecond {
		t.Fatalf("expected refreshed 1.5s, got %v", got)
	}
	if counting.Calls() != 2 {
		t.Fatalf("expected a second underlying probe, got %d", counting.Calls())
	}
}

func TestCache_PersistsAcrossOpens(t *testing.T) {
	t.Parallel()

	clip := writeClip(t, "clip.wav", 0.5)
	dbPath := filepath.Join(t.TempDir(), "durations.db")

	first, err := OpenCache(dbPath, WAV{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := first.Duration(context.Background(), clip); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	counting := &Counting{Next: WAV{}}
	second, err := OpenCache(dbPath, counting)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	got, err := second.Duration(context.Background(), clip)
	if err != nil {
		t.Fatal(err)
	}
	if got != 500*time.Millisecond || counting.Calls() != 0 {
		t.Fatalf("expected cached 500ms without probing, got %v after %d probes", got, counting.Calls())
	}
}

func TestCache_DoesNotStoreFailures(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	counting := &Counting{Next: WAV{}}
	cache, err := OpenCache(filepath.Join(t.TempDir(), "durations.db"), counting)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()
	for index := 0; index < 2; index++ {
		if _, probeErr := cache.Duration(context.Background(), path); probeErr == nil {
			t.Fatalf("expected probe error")
		}
	}
	if counting.Calls() != 2 {
		t.Fatalf("expected failures to be retried, got %d probes", counting.Calls())
	}
}
