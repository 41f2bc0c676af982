package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bookworm "github.com/lex00/bookworm-infra-go"
)

// Format is the serialization format of synthesized templates.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
}

// ManifestFile is the name of the manifest written next to the templates.
const ManifestFile = "manifest.json"

// ManifestVersion is the version of the manifest layout.
const ManifestVersion = "1"

// Manifest describes a synthesized assembly.
type Manifest struct {
	Version string          `json:"version"`
	Stacks  []ManifestStack `json:"stacks"`
}

// ManifestStack is one stack of a synthesized assembly.
type ManifestStack struct {
	Name         string   `json:"name"`
	Environment  string   `json:"environment"`
	Template     string   `json:"template"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Assembly is an ordered set of stacks synthesized together.
type Assembly struct {
	stacks []*Stack
}

// NewAssembly creates an assembly from stacks in construction order.
func NewAssembly(stacks ...*Stack) *Assembly {
	return &Assembly{stacks: stacks}
}

// Add appends a stack.
func (a *Assembly) Add(s *Stack) {
	a.stacks = append(a.stacks, s)
}

// Stacks returns the stacks in construction order.
func (a *Assembly) Stacks() []*Stack {
	return append([]*Stack(nil), a.stacks...)
}

// Stack returns the stack with the given name.
func (a *Assembly) Stack(name string) (*Stack, bool) {
	for _, s := range a.stacks {
		if s.name == name {
			return s, true
		}
	}
	return nil, false
}

// Templates builds every stack.
func (a *Assembly) Templates() (map[string]*bookworm.Template, error) {
	if _, err := a.DeployOrder(); err != nil {
		return nil, err
	}

	out := make(map[string]*bookworm.Template, len(a.stacks))
	var errs []error
	for _, s := range a.stacks {
		tmpl, err := s.Build()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[s.name] = tmpl
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// DeployOrder groups stacks into waves; every stack comes in a later wave
// than all of its dependencies. Within a wave, construction order is kept.
func (a *Assembly) DeployOrder() ([][]*Stack, error) {
	index := make(map[string]*Stack, len(a.stacks))
	for _, s := range a.stacks {
		if _, dup := index[s.name]; dup {
			return nil, fmt.Errorf("duplicate stack %q", s.name)
		}
		index[s.name] = s
	}
	for _, s := range a.stacks {
		for _, dep := range s.deps {
			if _, ok := index[dep]; !ok {
				return nil, fmt.Errorf("stack %s depends on %s, which is not in the assembly", s.name, dep)
			}
		}
	}

	placed := make(map[string]bool, len(a.stacks))
	var waves [][]*Stack
	for len(placed) < len(a.stacks) {
		var wave []*Stack
		for _, s := range a.stacks {
			if placed[s.name] {
				continue
			}
			ready := true
			for _, dep := range s.deps {
				if !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, s)
			}
		}
		if len(wave) == 0 {
			var stuck []string
			for _, s := range a.stacks {
				if !placed[s.name] {
					stuck = append(stuck, s.name)
				}
			}
			return nil, fmt.Errorf("circular dependency between stacks: %s", strings.Join(stuck, ", "))
		}
		for _, s := range wave {
			placed[s.name] = true
		}
		waves = append(waves, wave)
	}
	return waves, nil
}

// TemplateFile returns the file name of a stack's template.
func TemplateFile(stack string, format Format) string {
	return stack + ".template." + string(format)
}

// Synth writes every stack's template and the manifest to dir.
func (a *Assembly) Synth(dir string, format Format) (*Manifest, error) {
	templates, err := a.Templates()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if err := removeTemplates(dir); err != nil {
		return nil, err
	}

	manifest := &Manifest{Version: ManifestVersion}
	for _, s := range a.stacks {
		tmpl := templates[s.name]

		var data []byte
		switch format {
		case FormatYAML:
			data, err = ToYAML(tmpl)
		default:
			format = FormatJSON
			data, err = ToJSON(tmpl)
		}
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", s.name, err)
		}

		file := TemplateFile(s.name, format)
		if err := os.WriteFile(filepath.Join(dir, file), data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", file, err)
		}

		manifest.Stacks = append(manifest.Stacks, ManifestStack{
			Name:         s.name,
			Environment:  s.env.String(),
			Template:     file,
			Dependencies: s.Dependencies(),
		})
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	return manifest, nil
}

// removeTemplates clears templates of an earlier synth, in any format, so
// dir holds only what the manifest lists.
func removeTemplates(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading output directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !isTemplateFile(name) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("removing stale %s: %w", name, err)
		}
	}
	return nil
}

func isTemplateFile(name string) bool {
	for _, ext := range []string{".template.json", ".template.yaml", ".template.yml"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// ReadManifest loads the manifest of a synthesized assembly.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
