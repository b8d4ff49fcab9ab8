package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// NewFileLedger stores the set as a JSON array at path.
func NewFileLedger(path string) *SnapshotLedger {
	return newSnapshotLedger(&fileStore{path: path})
}

type fileStore struct {
	path string
}

func (s *fileStore) Name() string { return "file" }

func (s *fileStore) Read(context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Write replaces the file atomically via a temp file in the same directory.
func (s *fileStore) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
