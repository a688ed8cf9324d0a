// generator.go provides config templates for outcache init.

package config

import (
	"bytes"
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
)

// Template represents a configuration template type.
type Template string

const (
	// TemplateStandard generates an uncompressed cache configuration.
	TemplateStandard Template = "standard"
	// TemplateCompressed generates a gzip-compressed cache configuration,
	// trading pack/unpack time for store size.
	TemplateCompressed Template = "compressed"
)

// GenerateConfig returns the TOML content for the given template.
func GenerateConfig(template Template) (string, error) {
	cfg := DefaultConfig()
	if template == TemplateCompressed {
		cfg.Cache.Compression = "gzip"
	}
	// A commented example keeps the properties table discoverable without
	// declaring anything by default.
	cfg.Properties = nil

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", fmt.Errorf("encode template: %w", err)
	}

	example := `
# Declare cacheable output properties like this:
#
# [[properties]]
# name = "classes"
# type = "directory"
# path = "build/classes"
`
	return SchemaComment + buf.String() + example, nil
}
