package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps each snapshot in its own JSON file under a directory.
// Writes go through a temp file and an atomic rename so a crash mid-write
// never leaves a torn snapshot behind.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFile creates the directory if needed and returns a FileStore over it.
func NewFile(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key Key) string {
	return filepath.Join(s.dir, string(key)+".json")
}

// Read returns the snapshot under key, or found=false if the file does not
// exist yet.
func (s *FileStore) Read(_ context.Context, key Key) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	return data, true, nil
}

// Write replaces the snapshot under key atomically.
func (s *FileStore) Write(_ context.Context, key Key, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, string(key)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", key, err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
