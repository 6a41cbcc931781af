package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
	"github.com/BegaDeveloper/wwcorpus/internal/fixture"
	"github.com/BegaDeveloper/wwcorpus/internal/hashing"
)

var testFormat = dataset.AudioFormat{SampleRate: 16000, Mono: true}

func wakeWordClips() []fixture.WakeWordClip {
	return []fixture.WakeWordClip{
		{SoundID: "snd0", Speaker: "spk0", Seconds: 0.1},
		{SoundID: "snd1", Speaker: "spk0", Seconds: 0.1},
		{SoundID: "snd2", Speaker: "spk1", Seconds: 0.1},
		{SoundID: "snd3", Speaker: "spk1", Seconds: 0.1},
		{SoundID: "snd4", Speaker: "spk2", Seconds: 0.1},
		{SoundID: "snd5", Speaker: "spk2", Seconds: 0.1},
		{SoundID: "snd6", Speaker: "spk3", Seconds: 0.1},
		{SoundID: "snd7", Speaker: "spk3", Seconds: 0.1},
		{SoundID: "snd8", Speaker: "spk4", Seconds: 0.1},
		{SoundID: "snd9", Speaker: "spk5", Seconds: 0.1},
	}
}

func expectedSplit(key string, trainPct, devPct int) dataset.Split {
	bucket := hashing.Bucket(key)
	switch {
	case bucket < trainPct:
		return dataset.Train
	case bucket < trainPct+devPct:
		return dataset.Dev
	default:
		return dataset.Test
	}
}

func TestNew_ByName(t *testing.T) {
	t.Parallel()

	if _, err := New(WakeWordLoaderName, Options{SplitType: SplitBySpeaker}); err != nil {
		t.Fatalf("expected wake word loader, got %v", err)
	}
	if _, err := New(CommonVoiceLoaderName, Options{}); err != nil {
		t.Fatalf("expected common voice loader, got %v", err)
	}
	if _, err := New("librispeech", Options{}); err == nil {
		t.Fatalf("expected unknown loader to fail")
	}
	if _, err := New(WakeWordLoaderName, Options{SplitType: "utterance"}); err == nil {
		t.Fatalf("expected unknown split type to fail")
	}
	if !reflect.DeepEqual(Names(), []string{CommonVoiceLoaderName, WakeWordLoaderName}) {
		t.Fatalf("unexpected names %v", Names())
	}
}

func TestWakeWordLoader_SplitBySound(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := fixture.WriteWakeWordCorpus(root, fixture.WakeWordCorpus{Clips: wakeWordClips()}); err != nil {
		t.Fatalf("write fixture failed: %v", err)
	}
	loader, err := NewWakeWordLoader(Options{SplitType: SplitBySound, TrainPct: 50, DevPct: 20})
	if err != nil {
		t.Fatalf("new loader failed: %v", err)
	}
	splits, err := loader.LoadSplits(context.Background(), root, testFormat)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	total := 0
	for _, split := range dataset.Splits {
		loaded := splits.Get(split)
		if loaded.Split() != split || loaded.AudioFormat() != testFormat {
			t.Fatalf("unexpected dataset header %s %+v", loaded.Split(), loaded.AudioFormat())
		}
		for _, record := range loaded.Records() {
			if want := expectedSplit(record.ID(), 50, 20); want != split {
				t.Fatalf("sound %s expected in %s, found in %s", record.ID(), want, split)
			}
			if record.Transcription() != "hey firefox" {
				t.Fatalf("expected default transcription, got %q", record.Transcription())
			}
			if filepath.Ext(record.Path()) != ".wav" {
				t.Fatalf("expected payload path, got %q", record.Path())
			}
		}
		total += loaded.Len()
	}
	if total != 10 {
		t.Fatalf("expected 10 records, got %d", total)
	}
}

func TestWakeWordLoader_SplitBySpeakerKeepsSpeakersTogether(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	clips := wakeWordClips()
	if err := fixture.WriteWakeWordCorpus(root, fixture.WakeWordCorpus{Clips: clips}); err != nil {
		t.Fatalf("write fixture failed: %v", err)
	}
	speakerOf := map[string]string{}
	for _, clip := range clips {
		speakerOf[clip.SoundID] = clip.Speaker
	}

	loader, err := NewWakeWordLoader(Options{SplitType: SplitBySpeaker, Transcription: "hey fox"})
	if err != nil {
		t.Fatalf("new loader failed: %v", err)
	}
	splits, err := loader.LoadSplits(context.Background(), root, testFormat)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	speakerSplit := map[string]dataset.Split{}
	for _, loaded := range splits.Each() {
		for _, record := range loaded.Records() {
			speaker := speakerOf[record.ID()]
			if previous, seen := speakerSplit[speaker]; seen && previous != loaded.Split() {
				t.Fatalf("speaker %s spans %s and %s", speaker, previous, loaded.Split())
			}
			speakerSplit[speaker] = loaded.Split()
			if want := expectedSplit(speaker, 80, 10); want != loaded.Split() {
				t.Fatalf("speaker %s expected in %s, found in %s", speaker, want, loaded.Split())
			}
			if record.Transcription() != "hey fox" {
				t.Fatalf("expected configured transcription, got %q", record.Transcription())
			}
		}
	}
}

func TestWakeWordLoader_SpeakerSplitNeedsMetadata(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	corpus := fixture.WakeWordCorpus{
		Clips:    wakeWordClips()[:2],
		Unlisted: []fixture.WakeWordClip{{SoundID: "orphan", Speaker: "spk9", Seconds: 0.1}},
	}
	if err := fixture.WriteWakeWordCorpus(root, corpus); err != nil {
		t.Fatalf("write fixture failed: %v", err)
	}

	bySpeaker, _ := NewWakeWordLoader(Options{SplitType: SplitBySpeaker})
	_, err := bySpeaker.LoadSplits(context.Background(), root, testFormat)
	var loadError *LoadError
	if !errors.As(err, &loadError) || filepath.Base(loadError.Path) != "orphan.wav" {
		t.Fatalf("expected load error naming orphan.wav, got %v", err)
	}

	bySound, _ := NewWakeWordLoader(Options{SplitType: SplitBySound})
	splits, err := bySound.LoadSplits(context.Background(), root, testFormat)
	if err != nil {
		t.Fatalf("expected sound split to tolerate unlisted clips, got %v", err)
	}
	if total := splits.Train.Len() + splits.Dev.Len() + splits.Test.Len(); total != 3 {
		t.Fatalf("expected 3 records, got %d", total)
	}
}

func TestWakeWordLoader_MissingMetadata(t *testing.T) {
	t.Parallel()

	loader, _ := NewWakeWordLoader(Options{})
	root := t.TempDir()
	_, err := loader.LoadSplits(context.Background(), root, testFormat)
	if !errors.Is(err, ErrCorpusLoad) {
		t.Fatalf("expected ErrCorpusLoad, got %v", err)
	}
	var loadError *LoadError
	if !errors.As(err, &loadError) || loadError.Path != filepath.Join(root, "metadata.json") {
		t.Fatalf("expected metadata path in error, got %v", err)
	}
}

func TestWakeWordLoader_RejectsBadPercentages(t *testing.T) {
	t.Parallel()

	if _, err := NewWakeWordLoader(Options{TrainPct: 90, DevPct: 20}); err == nil {
		t.Fatalf("expected train+dev above 100 to fail")
	}
}

func TestCommonVoiceLoader_ReadsOfficialSplits(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	corpus := map[dataset.Split][]fixture.CommonVoiceClip{
		dataset.Train: {
			{Name: "common_voice_en_1.mp3", Sentence: "Hey there."},
			{Name: "common_voice_en_2.mp3", Sentence: "Firefox is a browser."},
		},
		dataset.Dev:  {{Name: "common_voice_en_3.mp3", Sentence: "Dev sentence."}},
		dataset.Test: {},
	}
	if err := fixture.WriteCommonVoiceCorpus(root, corpus); err != nil {
		t.Fatalf("write fixture failed: %v", err)
	}
	loader := NewCommonVoiceLoader(Options{VerifyClips: true})
	splits, err := loader.LoadSplits(context.Background(), root, testFormat)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := splits.Train.IDs(); !reflect.DeepEqual(got, []string{"common_voice_en_1", "common_voice_en_2"}) {
		t.Fatalf("unexpected train ids %v", got)
	}
	first := splits.Train.Records()[0]
	if first.Transcription() != "Hey there." || first.Path() != filepath.Join(root, "clips", "common_voice_en_1.mp3") {
		t.Fatalf("unexpected record %q %q", first.Transcription(), first.Path())
	}
	if splits.Dev.Len() != 1 || splits.Test.Len() != 0 {
		t.Fatalf("unexpected split sizes dev=%d test=%d", splits.Dev.Len(), splits.Test.Len())
	}
}

func TestCommonVoiceLoader_Failures(t *testing.T) {
	t.Parallel()

	t.Run("missing tsv", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		_, err := NewCommonVoiceLoader(Options{}).LoadSplits(context.Background(), root, testFormat)
		var loadError *LoadError
		if !errors.As(err, &loadError) || loadError.Path != filepath.Join(root, "train.tsv") {
			t.Fatalf("expected load error for train.tsv, got %v", err)
		}
	})

	t.Run("bad header", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		for _, split := range dataset.Splits {
			if err := os.WriteFile(filepath.Join(root, string(split)+".tsv"), []byte("client_id\tfile\ttext\n"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		_, err := NewCommonVoiceLoader(Options{}).LoadSplits(context.Background(), root, testFormat)
		if !errors.Is(err, ErrCorpusLoad) {
			t.Fatalf("expected ErrCorpusLoad, got %v", err)
		}
	})

	t.Run("missing clip when verifying", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		if err := fixture.WriteCommonVoiceCorpus(root, map[dataset.Split][]fixture.CommonVoiceClip{
			dataset.Train: {{Name: "common_voice_en_9.mp3", Sentence: "x"}},
		}); err != nil {
			t.Fatal(err)
		}
		if err := os.Remove(filepath.Join(root, "clips", "common_voice_en_9.mp3")); err != nil {
			t.Fatal(err)
		}
		if _, err := NewCommonVoiceLoader(Options{}).LoadSplits(context.Background(), root, testFormat); err != nil {
			t.Fatalf("expected unverified load to succeed, got %v", err)
		}
		_, err := NewCommonVoiceLoader(Options{VerifyClips: true}).LoadSplits(context.Background(), root, testFormat)
		if !errors.Is(err, ErrCorpusLoad) {
			t.Fatalf("expected ErrCorpusLoad, got %v", err)
		}
	})

	t.Run("identifier in two splits", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		if err := fixture.WriteCommonVoiceCorpus(root, map[dataset.Split][]fixture.CommonVoiceClip{
			dataset.Train: {{Name: "dup.mp3", Sentence: "a"}},
			dataset.Test:  {{Name: "dup.mp3", Sentence: "a"}},
		}); err != nil {
			t.Fatal(err)
		}
		_, err := NewCommonVoiceLoader(Options{}).LoadSplits(context.Background(), root, testFormat)
		if !errors.Is(err, dataset.ErrSplitLeak) || !errors.Is(err, ErrCorpusLoad) {
			t.Fatalf("expected leak wrapped as load error, got %v", err)
		}
	})
}
