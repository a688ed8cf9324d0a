package config

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestGenerateConfigStandard(t *testing.T) {
	content, err := GenerateConfig(TemplateStandard)
	if err != nil {
		t.Fatalf("GenerateConfig failed: %v", err)
	}
	if !strings.HasPrefix(content, "#:schema ") {
		t.Error("generated config lacks the schema comment")
	}
	if !strings.Contains(content, `compression = 'none'`) && !strings.Contains(content, `compression = "none"`) {
		t.Errorf("standard template does not declare no compression:\n%s", content)
	}
	if !strings.Contains(content, "[[properties]]") {
		t.Error("generated config lacks the commented properties example")
	}
}

func TestGenerateConfigCompressed(t *testing.T) {
	content, err := GenerateConfig(TemplateCompressed)
	if err != nil {
		t.Fatalf("GenerateConfig failed: %v", err)
	}
	if !strings.Contains(content, `compression = 'gzip'`) && !strings.Contains(content, `compression = "gzip"`) {
		t.Errorf("compressed template does not declare gzip:\n%s", content)
	}
}

func TestGeneratedConfigLoads(t *testing.T) {
	for _, template := range []Template{TemplateStandard, TemplateCompressed} {
		content, err := GenerateConfig(template)
		if err != nil {
			t.Fatalf("GenerateConfig(%s) failed: %v", template, err)
		}

		fs := afero.NewMemMapFs()
		if err := afero.WriteFile(fs, "/p/.outcache.toml", []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(fs, "/p/.outcache.toml")
		if err != nil {
			t.Errorf("generated %s template does not load: %v", template, err)
			continue
		}
		if len(cfg.Properties) != 0 {
			t.Errorf("generated %s template declares properties: %+v", template, cfg.Properties)
		}
	}
}
