package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/google/uuid"

	"github.com/BegaDeveloper/wwcorpus/internal/storage"
)

const ManifestName = "manifest.json"

// Manifest marks a completed build. It is written last; its absence means
// the output under the same root is incomplete.
type Manifest struct {
	RunID     string                   `json:"run_id"`
	CreatedAt time.Time                `json:"created_at"`
	Config    json.RawMessage          `json:"config,omitempty"`
	Splits    map[string]ManifestSplit `json:"splits"`
}

type ManifestSplit struct {
	File    string `json:"file"`
	Records int    `json:"records"`
	SHA256  string `json:"sha256"`
	// Counts holds per-stage record counts such as loaded or kept.
	Counts map[string]int `json:"counts,omitempty"`
}

// NewManifest starts a manifest with a fresh run id and a JSON snapshot of
// config.
func NewManifest(config any, now time.Time) (Manifest, error) {
	manifest := Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: now.UTC(),
		Splits:    map[string]ManifestSplit{},
	}
	if config != nil {
		snapshot, err := json.Marshal(config)
		if err != nil {
			return Manifest{}, fmt.Errorf("snapshot config: %w", err)
		}
		manifest.Config = snapshot
	}
	return manifest, nil
}

// Add records a written split.
func (manifest *Manifest) Add(result Result, counts map[string]int) {
	if manifest.Splits == nil {
		manifest.Splits = map[string]ManifestSplit{}
	}
	manifest.Splits[string(result.Split)] = ManifestSplit{
		File:    result.File,
		Records: result.Records,
		SHA256:  result.Digest,
		Counts:  counts,
	}
}

func ClearManifest(ctx context.Context, store storage.FileStore) error {
	if err := store.Delete(ctx, ManifestName); err != nil {
		return fmt.Errorf("remove stale manifest: %w", err)
	}
	return nil
}

func WriteManifest(ctx context.Context, store storage.FileStore, manifest Manifest) error {
	return storage.Put(ctx, store, ManifestName, func(output io.Writer) error {
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(manifest)
	})
}

// ReadManifest returns an error wrapping fs.ErrNotExist when no completed
// build is present.
func ReadManifest(ctx context.Context, store storage.FileStore) (Manifest, error) {
	payload, err := storage.ReadAll(ctx, store, ManifestName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Manifest{}, fmt.Errorf("no manifest at %s: %w", store.Location(ManifestName), err)
		}
		return Manifest{}, err
	}
	manifest := Manifest{}
	if err := json.Unmarshal(payload, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	return manifest, nil
}
