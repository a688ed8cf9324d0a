// Package config handles parsing and writing of outcache configuration
// files (.outcache.toml).
package config

import (
	"fmt"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/bolasblack/outcache/internal/fingerprint"
	"github.com/bolasblack/outcache/internal/pack"
)

// CacheConfig controls where and how cache entries are stored.
type CacheConfig struct {
	Dir         string `toml:"dir,omitempty" json:"dir,omitempty" jsonschema:"description=Cache store directory (workspace-relative unless absolute)"`
	Compression string `toml:"compression,omitempty" json:"compression,omitempty" jsonschema:"enum=none,enum=gzip,description=Compression applied to new cache entries"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level  string `toml:"level,omitempty" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,description=Log verbosity"`
	Format string `toml:"format,omitempty" json:"format,omitempty" jsonschema:"enum=auto,enum=console,enum=json,description=Log output format (auto picks console on a terminal)"`
}

// Property declares one cacheable output property of the workspace.
type Property struct {
	Name string `toml:"name" json:"name" jsonschema:"required,description=Unique property name"`
	Type string `toml:"type" json:"type" jsonschema:"required,enum=file,enum=directory,description=Whether the property produces a file or a directory tree"`
	Path string `toml:"path,omitempty" json:"path,omitempty" jsonschema:"description=Output location relative to the workspace; empty means the property currently has no value"`
}

// Config represents the outcache workspace configuration (after defaults).
type Config struct {
	Cache      CacheConfig `toml:"cache,omitempty" json:"cache,omitempty" jsonschema:"description=Cache store settings"`
	Logging    LogConfig   `toml:"logging,omitempty" json:"logging,omitempty" jsonschema:"description=Logging settings"`
	Properties []Property  `toml:"properties,omitempty" json:"properties,omitempty" jsonschema:"description=Cacheable output properties"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Cache: CacheConfig{
			Dir:         filepath.Join(".outcache", "cache"),
			Compression: "none",
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Validate checks property declarations and enum fields.
func (c *Config) Validate() error {
	switch c.Cache.Compression {
	case "", "none", "gzip":
	default:
		return fmt.Errorf("invalid cache.compression %q: must be none or gzip", c.Cache.Compression)
	}
	switch c.Logging.Format {
	case "", "auto", "console", "json":
	default:
		return fmt.Errorf("invalid logging.format %q: must be auto, console or json", c.Logging.Format)
	}

	seen := map[string]bool{}
	for _, p := range c.Properties {
		if err := fingerprint.ValidatePropertyName(p.Name); err != nil {
			return err
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate property name %q", p.Name)
		}
		seen[p.Name] = true
		if p.Type != "file" && p.Type != "directory" {
			return fmt.Errorf("property %q: invalid type %q: must be file or directory", p.Name, p.Type)
		}
	}
	return nil
}

// PropertySpecs resolves the declared properties against a workspace
// directory. Properties without a path stay unresolved and contribute
// nothing to archives.
func (c *Config) PropertySpecs(workspaceDir string) []pack.PropertySpec {
	specs := make([]pack.PropertySpec, 0, len(c.Properties))
	for _, p := range c.Properties {
		outputType := pack.OutputFile
		if p.Type == "directory" {
			outputType = pack.OutputDirectory
		}
		root := ""
		if p.Path != "" {
			root = p.Path
			if !filepath.IsAbs(root) {
				root = filepath.Join(workspaceDir, root)
			}
		}
		specs = append(specs, pack.PropertySpec{
			PropertyName: p.Name,
			OutputType:   outputType,
			Root:         root,
		})
	}
	return specs
}

// CacheDir resolves the store directory against a workspace directory.
func (c *Config) CacheDir(workspaceDir string) string {
	dir := c.Cache.Dir
	if dir == "" {
		dir = DefaultConfig().Cache.Dir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(workspaceDir, dir)
	}
	return dir
}

// LoadConfig reads and parses a configuration file from the given path.
// Defaults are applied for missing fields.
func LoadConfig(fs afero.Fs, path string) (Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = DefaultConfig().Cache.Dir
	}
	if cfg.Cache.Compression == "" {
		cfg.Cache.Compression = "none"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "auto"
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SchemaComment is the TOML comment that references the JSON Schema for
// editor autocomplete.
const SchemaComment = "#:schema https://raw.githubusercontent.com/bolasblack/outcache/refs/heads/master/outcache-config.schema.json\n\n"

// SaveConfig writes the configuration to the given path with schema comment
// header.
func SaveConfig(fs afero.Fs, path string, cfg Config) error {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(SchemaComment); err != nil {
		return err
	}
	return toml.NewEncoder(f).Encode(cfg)
}
