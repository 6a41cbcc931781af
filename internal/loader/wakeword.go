package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
	"github.com/BegaDeveloper/wwcorpus/internal/hashing"
)

const (
	WakeWordLoaderName = "mozilla-wake-word"

	defaultClipDir       = "verified"
	defaultTranscription = "hey firefox"
	defaultTrainPct      = 80
	defaultDevPct        = 10
	wakeWordMetadataFile = "metadata.json"
)

var clipExtensions = map[string]bool{".wav": true, ".ogg": true, ".mp3": true, ".flac": true}

type wakeWordMetadata struct {
	UID string `json:"uid"`
}

// WakeWordLoader reads a Mozilla wake-word corpus:
//
//	<root>/metadata.json              {"<sound id>": {"uid": "<speaker id>", ...}, ...}
//	<root>/<clip dir>/**/<sound id>.<ext>
//
// Records are assigned to splits by the bucket of the sound id or, with
// SplitBySpeaker, of the speaker id, so one speaker never spans two splits.
type WakeWordLoader struct {
	splitType     SplitType
	clipDir       string
	transcription string
	trainPct      int
	devPct        int
}

func NewWakeWordLoader(options Options) (*WakeWordLoader, error) {
	loader := &WakeWordLoader{
		splitType:     options.SplitType,
		clipDir:       options.ClipDir,
		transcription: options.Transcription,
		trainPct:      options.TrainPct,
		devPct:        options.DevPct,
	}
	if loader.splitType == "" {
		loader.splitType = SplitBySound
	}
	if loader.splitType != SplitBySound && loader.splitType != SplitBySpeaker {
		return nil, fmt.Errorf("unknown split type %q", options.SplitType)
	}
	if loader.clipDir == "" {
		loader.clipDir = defaultClipDir
	}
	if loader.transcription == "" {
		loader.transcription = defaultTranscription
	}
	if loader.trainPct == 0 && loader.devPct == 0 {
		loader.trainPct, loader.devPct = defaultTrainPct, defaultDevPct
	}
	if loader.trainPct < 0 || loader.devPct < 0 || loader.trainPct+loader.devPct > hashing.Buckets {
		return nil, fmt.Errorf("invalid split percentages train=%d dev=%d", loader.trainPct, loader.devPct)
	}
	return loader, nil
}

// SplitType reports the identifier the loader partitions by.
func (loader *WakeWordLoader) SplitType() SplitType {
	return loader.splitType
}

func (loader *WakeWordLoader) LoadSplits(ctx context.Context, root string, format dataset.AudioFormat) (Splits, error) {
	metadataPath := filepath.Join(root, wakeWordMetadataFile)
	metadata, err := readWakeWordMetadata(metadataPath)
	if err != nil {
		return Splits{}, loadFailure(metadataPath, err)
	}

	clipRoot := filepath.Join(root, loader.clipDir)
	buckets := map[dataset.Split][]dataset.Record{}
	walkError := filepath.WalkDir(clipRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() || !clipExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		soundID := stem(path)
		entryMetadata, known := metadata[soundID]
		key := soundID
		if loader.splitType == SplitBySpeaker {
			if !known || strings.TrimSpace(entryMetadata.UID) == "" {
				return loadFailure(path, fmt.Errorf("no speaker uid for sound %q in %s", soundID, wakeWordMetadataFile))
			}
			key = entryMetadata.UID
		}
		split := loader.assign(key)
		buckets[split] = append(buckets[split], dataset.NewRecord(soundID, loader.transcription, path, split))
		return nil
	})
	if walkError != nil {
		var loadError *LoadError
		if errors.As(walkError, &loadError) {
			return Splits{}, loadError
		}
		return Splits{}, loadFailure(clipRoot, walkError)
	}

	splits, err := buildSplits(format, buckets)
	if err != nil {
		return Splits{}, loadFailure(root, err)
	}
	return splits, nil
}

func (loader *WakeWordLoader) assign(key string) dataset.Split {
	bucket := hashing.Bucket(key)
	switch {
	case bucket < loader.trainPct:
		return dataset.Train
	case bucket < loader.trainPct+loader.devPct:
		return dataset.Dev
	default:
		return dataset.Test
	}
}

func readWakeWordMetadata(path string) (map[string]wakeWordMetadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	metadata := map[string]wakeWordMetadata{}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", wakeWordMetadataFile, err)
	}
	return metadata, nil
}
