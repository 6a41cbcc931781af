// Package storage is where corpus output lands: a local directory or an S3
// prefix. Paths are forward-slash separated and relative to the store root.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// FileStore is the output backend used by the writer. Implementations are
// safe for concurrent use.
type FileStore interface {
	// Read fails with an error wrapping os.ErrNotExist for missing files.
	Read(ctx context.Context, path string) (io.ReadCloser, error)
	// Write replaces path once the returned writer is closed.
	Write(ctx context.Context, path string) (io.WriteCloser, error)
	// Delete is a no-op for missing files.
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	// List returns the sorted paths of all files below directory. A missing
	// directory lists as empty.
	List(ctx context.Context, directory string) ([]string, error)
	// Location renders path for logs and metadata, e.g. /data/x or s3://b/p/x.
	Location(path string) string
}

// Aborter is implemented by writers that can drop a partially written file
// instead of publishing it.
type Aborter interface {
	Abort(cause error) error
}

// Put writes path through fill. When fill fails the file is aborted where
// the backend supports it, so a failed write never replaces existing output.
func Put(ctx context.Context, store FileStore, path string, fill func(io.Writer) error) error {
	writer, err := store.Write(ctx, path)
	if err != nil {
		return fmt.Errorf("open %s: %w", store.Location(path), err)
	}
	if fillError := fill(writer); fillError != nil {
		if aborter, ok := writer.(Aborter); ok {
			_ = aborter.Abort(fillError)
		} else {
			_ = writer.Close()
		}
		return fmt.Errorf("write %s: %w", store.Location(path), fillError)
	}
	if closeError := writer.Close(); closeError != nil {
		return fmt.Errorf("close %s: %w", store.Location(path), closeError)
	}
	return nil
}

// ReadAll returns the whole content of path.
func ReadAll(ctx context.Context, store FileStore, path string) ([]byte, error) {
	reader, err := store.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// Open picks a backend for root: s3://bucket/prefix builds an S3Store from
// options, anything else is a local directory.
func Open(ctx context.Context, root string, options S3Options) (FileStore, error) {
	if bucket, prefix, ok := ParseS3URI(root); ok {
		if bucket == "" {
			return nil, fmt.Errorf("s3 output %q has no bucket", root)
		}
		client, err := NewS3Client(ctx, options)
		if err != nil {
			return nil, err
		}
		return NewS3(client, bucket, prefix), nil
	}
	return NewLocal(root)
}

// ParseS3URI splits s3://bucket/prefix. ok is false for non-S3 roots.
func ParseS3URI(root string) (bucket, prefix string, ok bool) {
	rest, found := strings.CutPrefix(root, "s3://")
	if !found {
		return "", "", false
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	return bucket, strings.Trim(prefix, "/"), true
}
