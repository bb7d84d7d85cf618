// Package store implements the named record store shared by the calculator
// engines. Each store is a single JSON document on disk; every write is a full
// read-modify-write of that document, which is acceptable because there is a
// single local writer. Multi-process access would need locking on top of this.
package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Store persists named record blobs under a data directory. The filesystem is
// injected so tests can run against an in-memory afero.Fs.
type Store struct {
	fs     afero.Fs
	dir    string
	logger *zap.Logger
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(fs afero.Fs, dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &Store{fs: fs, dir: dir, logger: logger}, nil
}

// Path returns the on-disk location of a named store.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Read unmarshals the named store into v. A missing or corrupt store reads as
// empty: v is left untouched and a warning is logged, but no error is returned.
func (s *Store) Read(name string, v any) {
	data, err := afero.ReadFile(s.fs, s.Path(name))
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("treating corrupt store as empty",
			zap.String("op", "store.Read"),
			zap.String("store", name),
			zap.Error(err),
		)
	}
}

// Write replaces the named store with the serialized form of v. Failures are
// returned to the caller so the save can be reported as failed; the previous
// contents are only replaced on a successful marshal.
func (s *Store) Write(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize store %s: %w", name, err)
	}
	if err := afero.WriteFile(s.fs, s.Path(name), data, 0644); err != nil {
		s.logger.Error("store write failed",
			zap.String("op", "store.Write"),
			zap.String("store", name),
			zap.Error(err),
		)
		return fmt.Errorf("failed to write store %s: %w", name, err)
	}
	return nil
}
