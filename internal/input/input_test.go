package input

import (
	"testing"
	"time"

	"github.com/ErikKalkoken/go-set"
	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tank-arena/internal/assets"
	"tank-arena/internal/sim"
)

func runeEvent(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func keyEvent(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func newArena(t *testing.T) *sim.World {
	t.Helper()
	store, err := assets.Load("")
	require.NoError(t, err)
	w := sim.NewWorld(sim.DefaultSettings(), sim.Collaborators{Assets: store, Logger: zerolog.Nop()})
	require.NoError(t, sim.NewArena(w))
	return w
}

func TestHandleQuitKeys(t *testing.T) {
	m := NewMapper(180 * time.Millisecond)
	now := time.Now()
	assert.True(t, m.Handle(keyEvent(tcell.KeyEscape), now))
	assert.True(t, m.Handle(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), now))
	assert.False(t, m.Handle(runeEvent('w'), now))
	assert.False(t, m.Handle(runeEvent('z'), now))
}

func TestHoldWindow(t *testing.T) {
	m := NewMapper(180 * time.Millisecond)
	t0 := time.Now()
	m.Handle(runeEvent('w'), t0)
	m.Handle(keyEvent(tcell.KeyLeft), t0.Add(100*time.Millisecond))

	got := m.Held(t0.Add(150 * time.Millisecond))
	want := set.Of(Binding{sim.Player1, Forward}, Binding{sim.Player2, Left})
	assert.True(t, want.Equal(got), "got %v", got)

	got = m.Held(t0.Add(200 * time.Millisecond))
	assert.True(t, set.Of(Binding{sim.Player2, Left}).Equal(got), "got %v", got)

	assert.Equal(t, 0, m.Held(t0.Add(time.Second)).Size())
}

func TestUppercaseMatchesLetters(t *testing.T) {
	m := NewMapper(time.Second)
	now := time.Now()
	m.Handle(runeEvent('D'), now)
	assert.True(t, m.Held(now).Contains(Binding{sim.Player1, Right}))
}

func TestApplySetsControlsPerSlot(t *testing.T) {
	w := newArena(t)
	m := NewMapper(180 * time.Millisecond)
	now := time.Now()
	m.Handle(runeEvent('a'), now)
	m.Handle(runeEvent('w'), now)
	m.Handle(keyEvent(tcell.KeyDown), now)

	m.Apply(w, now)

	assert.Equal(t, sim.Controls{Left: true, Forward: true}, w.Tank(sim.Player1).Controls())
	assert.Equal(t, sim.Controls{Back: true}, w.Tank(sim.Player2).Controls())

	m.Apply(w, now.Add(time.Second))
	assert.Equal(t, sim.Controls{}, w.Tank(sim.Player1).Controls(), "released after the hold window")
}

func TestFireIsAnEdgeTrigger(t *testing.T) {
	w := newArena(t)
	m := NewMapper(180 * time.Millisecond)
	now := time.Now()

	m.Handle(keyEvent(tcell.KeyEnter), now)
	m.Apply(w, now)
	w.Tick(0.016)
	assert.Equal(t, 6, w.Tank(sim.Player2).Ammo())
	assert.Equal(t, 7, w.Tank(sim.Player1).Ammo())

	m.Apply(w, now)
	w.Tick(2)
	assert.Equal(t, 6, w.Tank(sim.Player2).Ammo(), "fire is delivered once")
}

func TestReloadEdge(t *testing.T) {
	w := newArena(t)
	m := NewMapper(180 * time.Millisecond)
	now := time.Now()
	p1 := w.Tank(sim.Player1)
	require.True(t, p1.Fire(w))
	require.Equal(t, 6, p1.Ammo())

	m.Handle(runeEvent('r'), now)
	m.Apply(w, now)
	assert.Equal(t, 7, p1.Ammo())
}

func TestEdgesDroppedWhileRespawning(t *testing.T) {
	w := newArena(t)
	m := NewMapper(180 * time.Millisecond)
	now := time.Now()
	w.Tank(sim.Player1).Damage(w, 100)
	w.Tick(0.016)
	require.Nil(t, w.Tank(sim.Player1))

	m.Handle(runeEvent(' '), now)
	m.Apply(w, now)
	for range 6 {
		w.Tick(1)
	}
	fresh := w.Tank(sim.Player1)
	require.NotNil(t, fresh)

	m.Apply(w, now)
	w.Tick(0.016)
	assert.Equal(t, 7, fresh.Ammo(), "a press during the countdown is not replayed")
}
