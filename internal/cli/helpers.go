// Package cli implements the outcache command-line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/bolasblack/outcache/internal/config"
	"github.com/bolasblack/outcache/internal/fingerprint"
	"github.com/bolasblack/outcache/internal/logging"
	"github.com/bolasblack/outcache/internal/pack"
	"github.com/bolasblack/outcache/internal/snapshot"
	"github.com/bolasblack/outcache/internal/store"
	"github.com/bolasblack/outcache/internal/util"
)

// ConfigFilename is the standard configuration file name.
const ConfigFilename = ".outcache.toml"

// Common error messages for CLI commands.
const (
	ErrMsgConfigNotFound = "configuration not found: run 'outcache init' first"
	ErrMsgNoProperties   = "no output properties declared: add [[properties]] entries to .outcache.toml"
)

// workspace bundles everything a command needs: the environment, the
// working directory, the parsed config, and the resolved property specs.
type workspace struct {
	env   *util.Env
	cwd   string
	cfg   config.Config
	specs []pack.PropertySpec
}

func getCwd() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cwd, nil
}

// loadWorkspace loads config from the current directory and wires up an
// OS-backed environment with the configured logger.
func loadWorkspace() (*workspace, error) {
	cwd, err := getCwd()
	if err != nil {
		return nil, err
	}

	fs := afero.NewOsFs()
	configPath := filepath.Join(cwd, ConfigFilename)
	cfg, err := config.LoadConfig(fs, configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s", ErrMsgConfigNotFound)
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	return &workspace{
		env:   util.NewEnv(fs, log),
		cwd:   cwd,
		cfg:   cfg,
		specs: cfg.PropertySpecs(cwd),
	}, nil
}

// openStore opens the workspace's cache entry store.
func (w *workspace) openStore() *store.Store {
	return store.New(w.env.Fs, w.cfg.CacheDir(w.cwd), w.cfg.Cache.Compression == "gzip")
}

// captureProperties snapshots every resolved property and returns the per-
// property snapshots and fingerprints.
func (w *workspace) captureProperties() (map[string]snapshot.Snapshot, map[string]*fingerprint.Collection, error) {
	if len(w.specs) == 0 {
		return nil, nil, fmt.Errorf("%s", ErrMsgNoProperties)
	}

	snapshots := make(map[string]snapshot.Snapshot, len(w.specs))
	collections := make(map[string]*fingerprint.Collection, len(w.specs))
	for _, spec := range w.specs {
		if spec.Root == "" {
			continue
		}
		snap, err := snapshot.Capture(w.env.Fs, spec.Root)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to snapshot property %q: %w", spec.PropertyName, err)
		}
		snapshots[spec.PropertyName] = snap
		collections[spec.PropertyName] = fingerprint.FromRoots(snap)
	}
	return snapshots, collections, nil
}
