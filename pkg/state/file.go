// Package state persists stream bookmarks between runs. Backends register
// themselves with the connector registry under the state.backend names.
package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

// FileStore keeps the state document in a local file. Saves write a
// temporary file next to it and rename it into place.
type FileStore struct {
	path string
}

// NewFileStore returns a store for path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "state.path is required for file state")
	}
	return &FileStore{path: path}, nil
}

// Load reads the state file. A missing file is an empty state.
func (s *FileStore) Load(_ context.Context) (*core.State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return core.NewState(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to read state file %s", s.path))
	}
	return core.ParseState(data)
}

// Save atomically replaces the state file.
func (s *FileStore) Save(_ context.Context, st *core.State) error {
	data, err := st.Marshal()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to create directory %s", dir))
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create temporary state file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write state")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to sync state")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close state")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to replace state file %s", s.path))
	}
	return nil
}

// Path returns the state file location.
func (s *FileStore) Path() string { return s.path }
