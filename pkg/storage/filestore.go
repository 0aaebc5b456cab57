package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flightrec/flightrec/pkg/record"
)

// FileStore keeps one JSON snapshot per (task, kind) under
// <root>/<taskID>/<kind>.json. Writes go through a temp file and rename so a
// crash never leaves a half-written snapshot behind.
type FileStore struct {
	root string
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty storage root", record.ErrInvalidArgument)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create storage root: %v", record.ErrStorage, err)
	}
	return &FileStore{root: dir}, nil
}

// Root returns the storage root directory.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) path(taskID string, kind Kind) (string, error) {
	// Task ids become directory names; keep them from escaping the root.
	if strings.ContainsAny(taskID, `/\`) || taskID == "." || taskID == ".." {
		return "", fmt.Errorf("%w: task id %q is not a valid resource name", record.ErrInvalidArgument, taskID)
	}
	return filepath.Join(s.root, taskID, string(kind)+".json"), nil
}

// Persist serializes value and fully overwrites the resource for
// (taskID, kind).
func (s *FileStore) Persist(taskID string, kind Kind, value any) error {
	if err := checkKey(taskID, kind); err != nil {
		return err
	}
	path, err := s.path(taskID, kind)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal %s for task %s: %v", record.ErrStorage, kind, taskID, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: create task directory: %v", record.ErrStorage, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: write temp file: %v", record.ErrStorage, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename snapshot: %v", record.ErrStorage, err)
	}
	return nil
}

// Load reads the snapshot for (taskID, kind) into out. A missing resource is
// record.ErrNotFound; a present but undecodable one is record.ErrCorruptState.
func (s *FileStore) Load(taskID string, kind Kind, out any) error {
	if err := checkKey(taskID, kind); err != nil {
		return err
	}
	path, err := s.path(taskID, kind)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s for task %s", record.ErrNotFound, kind, taskID)
		}
		return fmt.Errorf("%w: read snapshot: %v", record.ErrStorage, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s for task %s: %v", record.ErrCorruptState, kind, taskID, err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
