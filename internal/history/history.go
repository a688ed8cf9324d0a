// Package history persists the last recorded fingerprint of each output
// property between runs. Only identity is recorded: entries and combined
// hashes survive, live snapshot roots do not.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/bolasblack/outcache/internal/fingerprint"
)

const (
	// historyDirName is the workspace-local directory holding history.
	historyDirName = ".outcache"
	// historyFilename is the history file inside it.
	historyFilename = "history.json"
)

// Record is the persisted state of one workspace: the last observed
// fingerprint per property name.
type Record struct {
	Properties map[string]*fingerprint.Collection `json:"properties"`
	UpdatedAt  time.Time                          `json:"updated_at"`
}

// FilePath returns the history file location for a workspace directory.
func FilePath(workspaceDir string) string {
	return filepath.Join(workspaceDir, historyDirName, historyFilename)
}

// Load reads the workspace history. A missing file yields (nil, nil) so
// callers treat first runs without branching on errors.
func Load(fs afero.Fs, workspaceDir string) (*Record, error) {
	data, err := afero.ReadFile(fs, FilePath(workspaceDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	if rec.Properties == nil {
		rec.Properties = map[string]*fingerprint.Collection{}
	}
	return &rec, nil
}

// Save writes the history atomically: a temp file in the same directory is
// renamed over the old one, so a reader never sees a partial record.
func Save(fs afero.Fs, workspaceDir string, rec *Record) error {
	dir := filepath.Dir(FilePath(workspaceDir))
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	rec.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp, err := afero.TempFile(fs, dir, ".tmp-"+historyFilename+"-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return err
	}
	return fs.Rename(tmpName, FilePath(workspaceDir))
}
