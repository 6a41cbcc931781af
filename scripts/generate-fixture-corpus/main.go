package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BegaDeveloper/wwcorpus/internal/config"
	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
	"github.com/BegaDeveloper/wwcorpus/internal/fixture"
)

func main() {
	outputDir := flag.String("out", "./testdata/demo", "directory to create the demo corpora in")
	clips := flag.Int("clips", 40, "number of wake-word clips")
	speakers := flag.Int("speakers", 8, "number of wake-word speakers")
	general := flag.Int("general", 2000, "number of general clips")
	seed := flag.Int64("seed", time.Now().Unix(), "random seed for general sentences")
	flag.Parse()

	if *clips <= 0 || *speakers <= 0 || *general < 3 {
		fmt.Fprintln(os.Stderr, "--clips and --speakers must be > 0 and --general must be >= 3")
		os.Exit(2)
	}

	configPath, err := generate(*outputDir, *clips, *speakers, *general, *seed)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("generated %d wake-word and %d general clips under %s (seed=%d)\n", *clips, *general, *outputDir, *seed)
	fmt.Printf("try: wwcorpus build -f %s\n", configPath)
}

func generate(outputDir string, clipCount, speakerCount, generalCount int, seed int64) (string, error) {
	wakeWordRoot := filepath.Join(outputDir, "hey-firefox")
	generalRoot := filepath.Join(outputDir, "common-voice")

	clips := make([]fixture.WakeWordClip, 0, clipCount)
	for index := 0; index < clipCount; index++ {
		clips = append(clips, fixture.WakeWordClip{
			SoundID: fmt.Sprintf("hey_firefox_%04d", index),
			Speaker: fmt.Sprintf("speaker-%d", index%speakerCount),
			Seconds: 0.8 + float64(index%5)*0.1,
		})
	}
	if err := fixture.WriteWakeWordCorpus(wakeWordRoot, fixture.WakeWordCorpus{Clips: clips}); err != nil {
		return "", fmt.Errorf("write wake-word corpus: %w", err)
	}

	sentences := fixture.GenerateCommonVoice(generalCount, seed)
	trainEnd := generalCount * 8 / 10
	devEnd := generalCount * 9 / 10
	if err := fixture.WriteCommonVoiceCorpus(generalRoot, map[dataset.Split][]fixture.CommonVoiceClip{
		dataset.Train: sentences[:trainEnd],
		dataset.Dev:   sentences[trainEnd:devEnd],
		dataset.Test:  sentences[devEnd:],
	}); err != nil {
		return "", fmt.Errorf("write general corpus: %w", err)
	}

	cfg := config.Default()
	cfg.WakeWord.Path = wakeWordRoot
	cfg.General.Path = generalRoot
	cfg.Output.Root = filepath.Join(outputDir, "corpus")
	payload, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	configPath := filepath.Join(outputDir, config.FileName)
	if err := os.WriteFile(configPath, payload, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return configPath, nil
}
