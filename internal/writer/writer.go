// Package writer persists finished splits as JSON-lines metadata with
// optional audio copies, and maintains the build manifest.
package writer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
	"github.com/BegaDeveloper/wwcorpus/internal/storage"
)

// Entry is one metadata line.
type Entry struct {
	Path          string `json:"path"`
	Transcription string `json:"transcription"`
	Identifier    string `json:"identifier"`
	Split         string `json:"split"`
}

type Options struct {
	// CopyAudio copies every payload to audio/<split>/ and points the
	// metadata at the copy.
	CopyAudio bool
}

// Result describes one written split.
type Result struct {
	Split      dataset.Split
	File       string
	Records    int
	Digest     string
	AudioBytes int64
}

type Writer struct {
	store   storage.FileStore
	options Options
}

func New(store storage.FileStore, options Options) *Writer {
	return &Writer{store: store, options: options}
}

func MetadataName(split dataset.Split) string {
	return "metadata-" + string(split) + ".jsonl"
}

// AudioDir is the directory holding the copied payloads of split.
func AudioDir(split dataset.Split) string {
	return path.Join("audio", string(split))
}

// audioKey names the copy of record as <identifier><ext>. An identifier seen
// earlier in the same split gets a ~<n> suffix so no copy replaces another.
func audioKey(split dataset.Split, record dataset.Record, used map[string]bool) string {
	extension := filepath.Ext(record.Path())
	key := path.Join(AudioDir(split), record.ID()+extension)
	for attempt := 1; used[key]; attempt++ {
		key = path.Join(AudioDir(split), fmt.Sprintf("%s~%d%s", record.ID(), attempt, extension))
	}
	used[key] = true
	return key
}

// Write replaces the metadata file of ds's split. Records keep dataset
// order, so identical input yields identical bytes. Payloads copied by an
// earlier run are removed first, with or without CopyAudio.
func (writer *Writer) Write(ctx context.Context, ds *dataset.Dataset) (Result, error) {
	split := ds.Split()
	result := Result{Split: split, File: MetadataName(split)}
	if err := writer.clearAudio(ctx, split); err != nil {
		return Result{}, err
	}

	used := map[string]bool{}
	body := bytes.Buffer{}
	encoder := json.NewEncoder(&body)
	encoder.SetEscapeHTML(false)
	for _, record := range ds.All() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		entryPath := record.Path()
		if writer.options.CopyAudio {
			key := audioKey(split, record, used)
			copied, err := writer.copyAudio(ctx, record.Path(), key)
			if err != nil {
				return Result{}, err
			}
			result.AudioBytes += copied
			entryPath = key
		}
		if err := encoder.Encode(Entry{
			Path:          entryPath,
			Transcription: record.Transcription(),
			Identifier:    record.ID(),
			Split:         string(split),
		}); err != nil {
			return Result{}, fmt.Errorf("encode %s: %w", record.ID(), err)
		}
		result.Records++
	}

	digest := sha256.Sum256(body.Bytes())
	result.Digest = hex.EncodeToString(digest[:])
	if err := storage.Put(ctx, writer.store, result.File, func(output io.Writer) error {
		_, writeError := output.Write(body.Bytes())
		return writeError
	}); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (writer *Writer) clearAudio(ctx context.Context, split dataset.Split) error {
	stale, err := writer.store.List(ctx, AudioDir(split))
	if err != nil {
		return fmt.Errorf("list previous audio: %w", err)
	}
	for _, name := range stale {
		if err := writer.store.Delete(ctx, name); err != nil {
			return fmt.Errorf("remove previous audio %s: %w", writer.store.Location(name), err)
		}
	}
	return nil
}

func (writer *Writer) copyAudio(ctx context.Context, source, key string) (int64, error) {
	input, err := os.Open(source)
	if err != nil {
		return 0, fmt.Errorf("copy audio: %w", err)
	}
	defer input.Close()

	var copied int64
	putError := storage.Put(ctx, writer.store, key, func(output io.Writer) error {
		written, copyError := io.Copy(output, input)
		copied = written
		return copyError
	})
	return copied, putError
}
