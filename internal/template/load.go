package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	bookworm "github.com/lex00/bookworm-infra-go"
)

// FormatOf infers a template format from a file name.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Parse decodes a template. Only the long form of intrinsic functions is
// understood in YAML, which is what ToYAML writes.
func Parse(data []byte, format Format) (*bookworm.Template, error) {
	var t bookworm.Template
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	}
	if t.Resources == nil {
		t.Resources = map[string]bookworm.ResourceDef{}
	}
	return &t, nil
}

// Load reads a template file, JSON or YAML by extension.
func Load(path string) (*bookworm.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	t, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadAssembly reads every template listed in the manifest in dir, keyed
// by stack name.
func LoadAssembly(dir string) (*Manifest, map[string]*bookworm.Template, error) {
	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, nil, err
	}
	templates := make(map[string]*bookworm.Template, len(manifest.Stacks))
	for _, s := range manifest.Stacks {
		t, err := Load(filepath.Join(dir, s.Template))
		if err != nil {
			return nil, nil, err
		}
		templates[s.Name] = t
	}
	return manifest, templates, nil
}
