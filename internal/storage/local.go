package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local stores files under a root directory. Writes go to a temporary file
// in the target directory and are renamed into place on Close.
type Local struct {
	root string
}

func NewLocal(directory string) (*Local, error) {
	absolute, err := filepath.Abs(directory)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(absolute, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: absolute}, nil
}

func (store *Local) Root() string {
	return store.root
}

func (store *Local) resolve(path string) string {
	return filepath.Join(store.root, filepath.FromSlash(path))
}

func (store *Local) Location(path string) string {
	return store.resolve(path)
}

func (store *Local) Read(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(store.resolve(path))
}

func (store *Local) Write(_ context.Context, path string) (io.WriteCloser, error) {
	target := store.resolve(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}
	temporary, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return nil, err
	}
	return &atomicFile{file: temporary, target: target}, nil
}

func (store *Local) Delete(_ context.Context, path string) error {
	err := os.Remove(store.resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (store *Local) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(store.resolve(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// List skips the temporary files of writes still in flight.
func (store *Local) List(ctx context.Context, directory string) ([]string, error) {
	paths := []string{}
	walkError := filepath.WalkDir(store.resolve(directory), func(current string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() || isTemporary(entry.Name()) {
			return nil
		}
		relative, relError := filepath.Rel(store.root, current)
		if relError != nil {
			return relError
		}
		paths = append(paths, filepath.ToSlash(relative))
		return nil
	})
	if walkError != nil && !errors.Is(walkError, fs.ErrNotExist) {
		return nil, walkError
	}
	sort.Strings(paths)
	return paths, nil
}

func isTemporary(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp")
}

type atomicFile struct {
	file   *os.File
	target string
	closed bool
}

func (writer *atomicFile) Write(payload []byte) (int, error) {
	return writer.file.Write(payload)
}

// Close syncs the temporary file and renames it over the target.
func (writer *atomicFile) Close() error {
	if writer.closed {
		return nil
	}
	writer.closed = true
	if err := writer.file.Sync(); err != nil {
		writer.discard()
		return err
	}
	if err := writer.file.Close(); err != nil {
		_ = os.Remove(writer.file.Name())
		return err
	}
	if err := os.Rename(writer.file.Name(), writer.target); err != nil {
		_ = os.Remove(writer.file.Name())
		return err
	}
	return nil
}

// Abort removes the temporary file and leaves the target untouched.
func (writer *atomicFile) Abort(error) error {
	if writer.closed {
		return nil
	}
	writer.closed = true
	writer.discard()
	return nil
}

func (writer *atomicFile) discard() {
	_ = writer.file.Close()
	_ = os.Remove(writer.file.Name())
}

var (
	_ FileStore = (*Local)(nil)
	_ Aborter   = (*atomicFile)(nil)
)
