// Package assets loads the model and texture manifest the entities are built
// from.
package assets

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/goccy/go-yaml"
)

// ManifestFile is the manifest name looked up inside an asset directory.
const ManifestFile = "manifest.yaml"

//go:embed manifest.yaml
var defaultManifest []byte

// Model is a named model made of named parts.
type Model struct {
	Name  string   `yaml:"name"`
	Parts []string `yaml:"parts"`
}

// HasPart reports whether the model contains the named part.
func (m Model) HasPart(name string) bool {
	for _, p := range m.Parts {
		if p == name {
			return true
		}
	}
	return false
}

// Texture is how a surface looks: one glyph and a hex color.
type Texture struct {
	Name  string `yaml:"name"`
	Glyph string `yaml:"glyph"`
	Color string `yaml:"color"`
}

// Rune returns the first rune of the glyph.
func (t Texture) Rune() rune {
	r, _ := utf8.DecodeRuneInString(t.Glyph)
	return r
}

type manifest struct {
	Models   []Model   `yaml:"models"`
	Textures []Texture `yaml:"textures"`
}

// Store holds the loaded assets. It is read-only after Load.
type Store struct {
	models   map[string]Model
	textures map[string]Texture
}

// Load reads dir/manifest.yaml, or the embedded manifest when dir is empty.
func Load(dir string) (*Store, error) {
	data := defaultManifest
	if dir != "" {
		p := filepath.Join(dir, ManifestFile)
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse builds a Store from manifest YAML.
func Parse(data []byte) (*Store, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	s := &Store{
		models:   make(map[string]Model, len(m.Models)),
		textures: make(map[string]Texture, len(m.Textures)),
	}
	for _, md := range m.Models {
		if md.Name == "" {
			return nil, fmt.Errorf("model without name")
		}
		if _, ok := s.models[md.Name]; ok {
			return nil, fmt.Errorf("duplicate model %q", md.Name)
		}
		s.models[md.Name] = md
	}
	for _, tx := range m.Textures {
		if tx.Name == "" {
			return nil, fmt.Errorf("texture without name")
		}
		if tx.Glyph == "" {
			return nil, fmt.Errorf("texture %q has no glyph", tx.Name)
		}
		if _, ok := s.textures[tx.Name]; ok {
			return nil, fmt.Errorf("duplicate texture %q", tx.Name)
		}
		s.textures[tx.Name] = tx
	}
	return s, nil
}

// Model returns the named model.
func (s *Store) Model(name string) (Model, bool) {
	m, ok := s.models[name]
	return m, ok
}

// Texture returns the named texture.
func (s *Store) Texture(name string) (Texture, bool) {
	t, ok := s.textures[name]
	return t, ok
}

// Counts returns the number of models and textures.
func (s *Store) Counts() (models, textures int) {
	return len(s.models), len(s.textures)
}
