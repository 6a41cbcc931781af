// Package fixture writes small synthetic corpora in the on-disk layouts the
// loaders read. Tests and the doctor command use it; it is not part of a
// corpus build.
package fixture

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
)

const DefaultSampleRate = 16000

// WakeWordClip is one recording in a wake-word corpus.
type WakeWordClip struct {
	SoundID string
	Speaker string
	Seconds float64
}

// WakeWordCorpus describes a Mozilla wake-word style tree.
type WakeWordCorpus struct {
	ClipDir string
	Clips   []WakeWordClip
	// Unlisted clips are written to disk but left out of metadata.json.
	Unlisted []WakeWordClip
}

// CommonVoiceClip is one row of a Common Voice split file.
type CommonVoiceClip struct {
	Name     string
	ClientID string
	Sentence string
	Seconds  float64
}

// WriteWakeWordCorpus lays out corpus under root. Clips are written as
// 16 kHz mono WAV files under <root>/<clip dir>/<speaker>/<sound id>.wav.
func WriteWakeWordCorpus(root string, corpus WakeWordCorpus) error {
	clipDir := corpus.ClipDir
	if clipDir == "" {
		clipDir = "verified"
	}
	metadata := map[string]map[string]string{}
	for _, clip := range corpus.Clips {
		metadata[clip.SoundID] = map[string]string{"uid": clip.Speaker, "sound_id": clip.SoundID}
	}
	payload, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create corpus root: %w", err)
	}
	if err := os.WriteFile(filepath.Join(root, "metadata.json"), payload, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	for _, clip := range append(append([]WakeWordClip{}, corpus.Clips...), corpus.Unlisted...) {
		speaker := clip.Speaker
		if speaker == "" {
			speaker = "unknown"
		}
		clipPath := filepath.Join(root, clipDir, speaker, clip.SoundID+".wav")
		if err := WriteWAV(clipPath, DefaultSampleRate, clip.Seconds); err != nil {
			return err
		}
	}
	return nil
}

// WriteCommonVoiceCorpus lays out one tsv per split plus a clips directory.
// Clips named *.wav get a real WAV payload; other extensions get an empty
// placeholder file.
func WriteCommonVoiceCorpus(root string, splits map[dataset.Split][]CommonVoiceClip) error {
	clipRoot := filepath.Join(root, "clips")
	if err := os.MkdirAll(clipRoot, 0o755); err != nil {
		return fmt.Errorf("create clip directory: %w", err)
	}
	for _, split := range dataset.Splits {
		lines := []string{"client_id\tpath\tsentence\tup_votes\tdown_votes\tage\tgender\taccent"}
		for _, clip := range splits[split] {
			lines = append(lines, strings.Join([]string{clip.ClientID, clip.Name, clip.Sentence, "2", "0", "", "", ""}, "\t"))
			clipPath := filepath.Join(clipRoot, clip.Name)
			if strings.HasSuffix(strings.ToLower(clip.Name), ".wav") {
				if err := WriteWAV(clipPath, DefaultSampleRate, clip.Seconds); err != nil {
					return err
				}
				continue
			}
			if err := os.WriteFile(clipPath, nil, 0o644); err != nil {
				return fmt.Errorf("write placeholder clip: %w", err)
			}
		}
		content := strings.Join(lines, "\n") + "\n"
		if err := os.WriteFile(filepath.Join(root, string(split)+".tsv"), []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s.tsv: %w", split, err)
		}
	}
	return nil
}

// WriteWAV writes a 16-bit mono WAV file of the given length holding a quiet
// sawtooth, creating parent directories as needed.
func WriteWAV(path string, sampleRate int, seconds float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create clip directory: %w", err)
	}
	file, createError := os.Create(path)
	if createError != nil {
		return fmt.Errorf("create clip: %w", createError)
	}
	defer file.Close()

	samples := int(seconds * float64(sampleRate))
	data := make([]int, samples)
	for index := range data {
		data[index] = (index % 64) * 16
	}
	encoder := wav.NewEncoder(file, sampleRate, 16, 1, 1)
	buffer := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if writeError := encoder.Write(buffer); writeError != nil {
		return fmt.Errorf("encode clip: %w", writeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf("finalize clip: %w", closeError)
	}
	return nil
}

var (
	fillerWords = []string{"the", "weather", "is", "nice", "today", "please", "open", "window", "music", "station", "river", "garden", "morning", "computer"}
	keywordBits = []string{"hey", "fox", "fire", "firefox", "heyday"}
)

// GenerateCommonVoice returns count clips named common_voice_en_<n>.wav with
// pseudo-random sentences. Roughly one sentence in six carries a keyword
// fragment. The same seed always yields the same clips.
func GenerateCommonVoice(count int, seed int64) []CommonVoiceClip {
	random := rand.New(rand.NewSource(seed))
	clips := make([]CommonVoiceClip, 0, count)
	for index := 0; index < count; index++ {
		words := make([]string, 0, 6)
		length := 3 + random.Intn(4)
		for position := 0; position < length; position++ {
			words = append(words, fillerWords[random.Intn(len(fillerWords))])
		}
		if random.Intn(6) == 0 {
			words[random.Intn(len(words))] = keywordBits[random.Intn(len(keywordBits))]
		}
		sentence := strings.Join(words, " ")
		clips = append(clips, CommonVoiceClip{
			Name:     fmt.Sprintf("common_voice_en_%d.wav", index),
			ClientID: fmt.Sprintf("client-%02d", random.Intn(40)),
			Sentence: strings.ToUpper(sentence[:1]) + sentence[1:] + ".",
			Seconds:  0.05,
		})
	}
	return clips
}
