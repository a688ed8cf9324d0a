// Package state provides workspace state management for outcache.
// It maintains a local state file (.outcache/state.json) that tracks the
// workspace identity, ensuring cache entries stay attributable after
// directory moves and renames.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	// StateDir is the directory name for outcache state files.
	StateDir = ".outcache"
	// StateFilename is the name of the state file.
	StateFilename = "state.json"
	// CurrentVersion is the current state schema version.
	CurrentVersion = "1"
)

// State represents the persistent state of an outcache workspace.
type State struct {
	// WorkspaceID is a unique UUID for this workspace, survives directory
	// moves.
	WorkspaceID string `json:"workspace_id"`
	// CreatedAt is when the state was first created.
	CreatedAt time.Time `json:"created_at"`
	// Version is the state schema version.
	Version string `json:"version"`
}

// StateFilePath returns the path to the state file for the given workspace
// directory.
func StateFilePath(workspaceDir string) string {
	return filepath.Join(workspaceDir, StateDir, StateFilename)
}

// Load reads the state file from the given workspace directory.
// Returns nil and no error if the state file does not exist.
func Load(fs afero.Fs, workspaceDir string) (*State, error) {
	data, err := afero.ReadFile(fs, StateFilePath(workspaceDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	return &st, nil
}

// Save writes the state file to the given workspace directory.
// Creates the .outcache directory if it does not exist. The file is written
// to a temp name and renamed so readers never see a partial state.
func Save(fs afero.Fs, workspaceDir string, st *State) error {
	dir := filepath.Dir(StateFilePath(workspaceDir))
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := afero.TempFile(fs, dir, ".tmp-"+StateFilename+"-")
	if err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return fs.Rename(tmpName, StateFilePath(workspaceDir))
}

// LoadOrCreate loads the state file if it exists, or creates a new one.
// The second return value reports whether a new state was created.
func LoadOrCreate(fs afero.Fs, workspaceDir string) (*State, bool, error) {
	st, err := Load(fs, workspaceDir)
	if err != nil {
		return nil, false, err
	}
	if st != nil {
		return st, false, nil
	}

	st = &State{
		WorkspaceID: uuid.New().String(),
		CreatedAt:   time.Now().UTC(),
		Version:     CurrentVersion,
	}
	if err := Save(fs, workspaceDir, st); err != nil {
		return nil, true, err
	}
	return st, true, nil
}

// Delete removes the state file (but not the .outcache directory).
func Delete(fs afero.Fs, workspaceDir string) error {
	err := fs.Remove(StateFilePath(workspaceDir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}
