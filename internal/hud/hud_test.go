package hud

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tank-arena/internal/assets"
	"tank-arena/internal/sim"
)

func TestBoardEmitsEveryChange(t *testing.T) {
	b := NewBoard()
	var got []Update
	b.Changed.AddListener(func(_ context.Context, u Update) {
		got = append(got, u)
	}, "test")

	b.Health(sim.Player1, 80)
	b.Ammo(sim.Player2, 3)
	b.Countdown(sim.Player1, 5)

	assert.Equal(t, []Update{
		{sim.Player1, FieldHealth, 80},
		{sim.Player2, FieldAmmo, 3},
		{sim.Player1, FieldCountdown, 5},
	}, got)

	b.Changed.RemoveListener("test")
	b.Health(sim.Player1, 60)
	assert.Len(t, got, 3)
}

func TestBoardLine(t *testing.T) {
	b := NewBoard()
	b.Health(sim.Player2, 100)
	b.Ammo(sim.Player2, 7)
	assert.Equal(t, "P2  HP 100  AMMO 7", b.Line(sim.Player2))

	b.Countdown(sim.Player2, 3)
	assert.Equal(t, "P2  respawn in 3", b.Line(sim.Player2))
	assert.True(t, b.Status(sim.Player2).Respawning)

	b.Countdown(sim.Player2, 0)
	assert.False(t, b.Status(sim.Player2).Respawning)
}

func TestBoardFollowsWorld(t *testing.T) {
	store, err := assets.Load("")
	require.NoError(t, err)
	b := NewBoard()
	w := sim.NewWorld(sim.DefaultSettings(), sim.Collaborators{Assets: store, UI: b, Logger: zerolog.Nop()})
	require.NoError(t, sim.NewArena(w))

	assert.Equal(t, Status{Health: 100, Ammo: 7}, b.Status(sim.Player1))

	require.True(t, w.Tank(sim.Player1).Fire(w))
	w.Tank(sim.Player1).Damage(w, 100)
	assert.Equal(t, Status{Health: 0, Ammo: 6, Countdown: 5, Respawning: true}, b.Status(sim.Player1))
}
