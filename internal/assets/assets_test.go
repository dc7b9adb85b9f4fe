package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedManifest(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	m, ok := s.Model("tank")
	require.True(t, ok)
	assert.True(t, m.HasPart("Body"))
	assert.True(t, m.HasPart("Turret"))
	assert.False(t, m.HasPart("Tracks"))

	for _, name := range []string{"tank-body", "tank-turret", "tank-body-red", "tank-turret-red", "wall", "ground", "bullet", "fire", "smoke"} {
		_, ok := s.Texture(name)
		assert.True(t, ok, name)
	}
	wall, _ := s.Texture("wall")
	assert.Equal(t, '▓', wall.Rune())
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	data := []byte("models:\n  - name: tank\n    parts: [Body]\ntextures:\n  - name: wall\n    glyph: \"#\"\n    color: \"#ffffff\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644))

	s, err := Load(dir)
	require.NoError(t, err)
	models, textures := s.Counts()
	assert.Equal(t, 1, models)
	assert.Equal(t, 1, textures)
	_, ok := s.Texture("ground")
	assert.False(t, ok)
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read manifest")
}

func TestParseRejectsBadManifests(t *testing.T) {
	cases := map[string]string{
		"duplicate texture": "textures:\n  - {name: a, glyph: x}\n  - {name: a, glyph: y}\n",
		"empty glyph":       "textures:\n  - {name: a, glyph: \"\"}\n",
		"duplicate model":   "models:\n  - {name: tank}\n  - {name: tank}\n",
		"unnamed model":     "models:\n  - {parts: [Body]}\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}
