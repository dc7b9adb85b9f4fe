package logging

import (
	stdlog "log"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tank-arena/internal/config"
)

func TestNewWritesJSONToRotatingFile(t *testing.T) {
	t.Cleanup(func() { stdlog.SetOutput(os.Stderr) })
	p := filepath.Join(t.TempDir(), "arena.log")

	logger, closer, err := New(config.LogConfig{Level: "debug", File: p, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)
	logger.Info().Str("slot", "p1").Msg("tank respawned")
	stdlog.Print("from the standard logger")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"slot":"p1"`)
	assert.Contains(t, string(data), `"message":"tank respawned"`)
	assert.Contains(t, string(data), `"source":"stdlog"`)
}

func TestNewRespectsLevel(t *testing.T) {
	t.Cleanup(func() { stdlog.SetOutput(os.Stderr) })
	p := filepath.Join(t.TempDir(), "arena.log")

	logger, closer, err := New(config.LogConfig{Level: "WARN", File: p})
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "loud"})
	assert.ErrorContains(t, err, "loud")
}
