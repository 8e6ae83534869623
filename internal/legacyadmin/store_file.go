package legacyadmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"ashram/pkg/platform/sentinel"
)

// FileMarkerStore persists the marker as a JSON file at a fixed path. Writes
// go through a temp file and rename so a crash never leaves a torn marker.
type FileMarkerStore struct {
	mu   sync.Mutex
	path string
}

// NewFileMarkerStore constructs a store rooted at path.
func NewFileMarkerStore(path string) *FileMarkerStore {
	return &FileMarkerStore{path: path}
}

func (s *FileMarkerStore) Read(_ context.Context) (*Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("admin marker absent: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("admin marker read failed: %w", err)
	}

	var marker Marker
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil, fmt.Errorf("admin marker corrupt: %w", sentinel.ErrInvalidState)
	}
	return &marker, nil
}

func (s *FileMarkerStore) Write(_ context.Context, marker Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(marker)
	if err != nil {
		return fmt.Errorf("admin marker encode failed: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("admin marker dir create failed: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("admin marker write failed: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("admin marker rename failed: %w", err)
	}
	return nil
}

func (s *FileMarkerStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("admin marker remove failed: %w", err)
	}
	return nil
}
