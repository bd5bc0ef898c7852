// Package state persists per-project sync state as human-diffable JSON
// files. Deleting a state file is safe: the next run re-pushes and
// re-pulls, with URL de-duplication preventing duplicate imports.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/raido/internal/models"
)

// Store manages sync state files under one directory, one file per project.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("state: resolve dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("state: create dir: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Path returns the state file path for a project.
func (s *Store) Path(project string) string {
	return filepath.Join(s.dir, project+".json")
}

// Load reads the state for a project. A missing file yields a fresh empty
// state, not an error.
func (s *Store) Load(project string) (*models.SyncState, error) {
	data, err := os.ReadFile(s.Path(project))
	if errors.Is(err, os.ErrNotExist) {
		return models.NewSyncState(project), nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: read %s: %w", project, err)
	}

	var st models.SyncState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("state: parse %s: %w", project, err)
	}
	if st.Project == "" {
		st.Project = project
	}
	if st.References == nil {
		st.References = make(map[string]*models.SyncedReference)
	}
	if st.CollectionURIs == nil {
		st.CollectionURIs = make(map[string]string)
	}
	return &st, nil
}

// Save writes the state atomically: tmp file, fsync, rename.
func (s *Store) Save(st *models.SyncState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", st.Project, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".state-tmp-*")
	if err != nil {
		return fmt.Errorf("state: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("state: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("state: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(st.Project)); err != nil {
		return fmt.Errorf("state: rename: %w", err)
	}
	success = true
	return nil
}
