package loader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
)

const (
	CommonVoiceLoaderName = "common-voice"

	commonVoiceClipDir   = "clips"
	commonVoicePathField = "path"
	commonVoiceTextField = "sentence"
	maxTSVLineBytes      = 1 << 20
)

// CommonVoiceLoader reads a Mozilla Common Voice release:
//
//	<root>/train.tsv, dev.tsv, test.tsv   header row with at least "path" and "sentence"
//	<root>/clips/<path>
//
// The release's own split files decide the partition. The record identifier
// is the clip file name without extension.
type CommonVoiceLoader struct {
	verifyClips bool
}

func NewCommonVoiceLoader(options Options) *CommonVoiceLoader {
	return &CommonVoiceLoader{verifyClips: options.VerifyClips}
}

func (loader *CommonVoiceLoader) LoadSplits(ctx context.Context, root string, format dataset.AudioFormat) (Splits, error) {
	buckets := map[dataset.Split][]dataset.Record{}
	for _, split := range dataset.Splits {
		if err := ctx.Err(); err != nil {
			return Splits{}, err
		}
		records, err := loader.readSplit(root, split)
		if err != nil {
			return Splits{}, err
		}
		buckets[split] = records
	}
	splits, err := buildSplits(format, buckets)
	if err != nil {
		return Splits{}, loadFailure(root, err)
	}
	return splits, nil
}

func (loader *CommonVoiceLoader) readSplit(root string, split dataset.Split) ([]dataset.Record, error) {
	tsvPath := filepath.Join(root, string(split)+".tsv")
	file, openError := os.Open(tsvPath)
	if openError != nil {
		return nil, loadFailure(tsvPath, openError)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxTSVLineBytes)
	if !scanner.Scan() {
		if scanError := scanner.Err(); scanError != nil {
			return nil, loadFailure(tsvPath, scanError)
		}
		return nil, loadFailure(tsvPath, fmt.Errorf("missing header row"))
	}
	pathColumn, textColumn := -1, -1
	for index, column := range strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t") {
		switch strings.TrimSpace(column) {
		case commonVoicePathField:
			pathColumn = index
		case commonVoiceTextField:
			textColumn = index
		}
	}
	if pathColumn < 0 || textColumn < 0 {
		return nil, loadFailure(tsvPath, fmt.Errorf("header must contain %q and %q columns", commonVoicePathField, commonVoiceTextField))
	}

	records := make([]dataset.Record, 0, 1024)
	lineNumber := 1
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) <= pathColumn || len(fields) <= textColumn {
			return nil, loadFailure(tsvPath, fmt.Errorf("line %d: expected at least %d columns, got %d", lineNumber, max(pathColumn, textColumn)+1, len(fields)))
		}
		clipName := strings.TrimSpace(fields[pathColumn])
		if clipName == "" {
			return nil, loadFailure(tsvPath, fmt.Errorf("line %d: empty %s", lineNumber, commonVoicePathField))
		}
		clipPath := filepath.Join(root, commonVoiceClipDir, clipName)
		if loader.verifyClips {
			if _, statError := os.Stat(clipPath); statError != nil {
				return nil, loadFailure(clipPath, statError)
			}
		}
		records = append(records, dataset.NewRecord(stem(clipName), fields[textColumn], clipPath, split))
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, loadFailure(tsvPath, scanError)
	}
	return records, nil
}
