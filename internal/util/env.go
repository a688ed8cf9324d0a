// Package util provides shared environment plumbing across the CLI and the
// core packages.
package util

import (
	"log/slog"

	"github.com/spf13/afero"
)

// Env contains environment dependencies that can be mocked for testing.
type Env struct {
	// Fs is the filesystem to use for file operations.
	Fs afero.Fs
	// Log is the structured logger for diagnostics.
	Log *slog.Logger
}

// NewEnv creates an Env with the given filesystem and logger.
func NewEnv(fs afero.Fs, log *slog.Logger) *Env {
	return &Env{Fs: fs, Log: log}
}

// NewOsEnv creates an Env backed by the real OS filesystem.
func NewOsEnv(log *slog.Logger) *Env {
	return &Env{Fs: afero.NewOsFs(), Log: log}
}

// NewTestEnv creates an Env with in-memory filesystem and a discarding
// logger (for testing).
func NewTestEnv() *Env {
	return &Env{
		Fs:  afero.NewMemMapFs(),
		Log: slog.New(slog.DiscardHandler),
	}
}
