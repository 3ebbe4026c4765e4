package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FileStore writes artifacts below a root directory. An empty scope writes
// directly into the root, otherwise into <root>/<scope>/.
type FileStore struct {
	root string
}

// NewFileStore returns a FileStore rooted at dir. The directory is created
// on first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Root returns the directory artifacts are written to.
func (f *FileStore) Root() string { return f.root }

// Path returns the file path an artifact is (or would be) stored at.
func (f *FileStore) Path(scope, name string) (string, error) {
	if !validName(name) || (scope != "" && !validName(scope)) {
		return "", ErrInvalidName
	}
	return filepath.Join(f.root, scope, name), nil
}

// Save writes the artifact atomically via a temporary file and rename.
func (f *FileStore) Save(scope, name string, data []byte) error {
	path, err := f.Path(scope, name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming artifact: %w", err)
	}
	return nil
}

// Get reads the artifact or returns ErrNotFound.
func (f *FileStore) Get(scope, name string) ([]byte, error) {
	path, err := f.Path(scope, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	return data, nil
}

// List returns the sorted names of regular files in the scope directory.
// Dot files are ignored.
func (f *FileStore) List(scope string) ([]string, error) {
	if scope != "" && !validName(scope) {
		return nil, ErrInvalidName
	}
	entries, err := os.ReadDir(filepath.Join(f.root, scope))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && e.Name()[0] != '.' {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the artifact or returns ErrNotFound.
func (f *FileStore) Delete(scope, name string) error {
	path, err := f.Path(scope, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting artifact: %w", err)
	}
	return nil
}
