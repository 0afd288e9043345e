// Package recordstore persists the engine record written next to every
// trained model.
package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/ocrbridge/internal/ctxlog"
	"github.com/vk/ocrbridge/internal/model"
)

// Store persists an engine record into a model directory.
type Store interface {
	Persist(ctx context.Context, dir string, rec model.EngineRecord) error
}

// FileStore writes the record as indented JSON under a fixed filename.
type FileStore struct {
	filename string
}

// NewFileStore returns a FileStore writing to filename inside each directory.
func NewFileStore(filename string) *FileStore {
	return &FileStore{filename: filename}
}

// Path returns the record location inside dir.
func (s *FileStore) Path(dir string) string {
	return filepath.Join(dir, s.filename)
}

// Persist implements Store. The file is written to a temporary name first and
// renamed, so a reader never sees a half-written record.
func (s *FileStore) Persist(ctx context.Context, dir string, rec model.EngineRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding engine record: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, "."+s.filename+".*")
	if err != nil {
		return fmt.Errorf("creating engine record in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing engine record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing engine record: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing engine record: %w", err)
	}

	path := s.Path(dir)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing engine record %s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Debug("Persisted engine record.", "path", path, "id", rec.ID)
	return nil
}
