// Package hud keeps the per-slot values shown to the players and announces
// every change on a signal.
package hud

import (
	"context"
	"fmt"
	"sync"

	"github.com/maniartech/signals"

	"tank-arena/internal/sim"
)

// Field is the HUD value an Update refers to.
type Field uint8

const (
	FieldHealth Field = iota + 1
	FieldAmmo
	FieldCountdown
)

func (f Field) String() string {
	switch f {
	case FieldHealth:
		return "health"
	case FieldAmmo:
		return "ammo"
	case FieldCountdown:
		return "countdown"
	default:
		return "unknown"
	}
}

// Update is the payload of Board.Changed.
type Update struct {
	Slot  sim.Slot
	Field Field
	Value int
}

// Status is the latest known state of a slot.
type Status struct {
	Health     int
	Ammo       int
	Countdown  int
	Respawning bool
}

// Board implements sim.UISink.
type Board struct {
	// Changed fires synchronously on the caller's goroutine.
	Changed signals.Signal[Update]

	mu     sync.RWMutex
	status map[sim.Slot]Status
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		Changed: signals.NewSync[Update](),
		status:  make(map[sim.Slot]Status),
	}
}

func (b *Board) Health(slot sim.Slot, v int) {
	b.set(slot, FieldHealth, v, func(s *Status) { s.Health = v })
}

func (b *Board) Ammo(slot sim.Slot, v int) {
	b.set(slot, FieldAmmo, v, func(s *Status) { s.Ammo = v })
}

func (b *Board) Countdown(slot sim.Slot, v int) {
	b.set(slot, FieldCountdown, v, func(s *Status) {
		s.Countdown = v
		s.Respawning = v > 0
	})
}

func (b *Board) set(slot sim.Slot, f Field, v int, apply func(*Status)) {
	b.mu.Lock()
	s := b.status[slot]
	apply(&s)
	b.status[slot] = s
	b.mu.Unlock()

	b.Changed.Emit(context.Background(), Update{Slot: slot, Field: f, Value: v})
}

// Status returns the latest values of slot.
func (b *Board) Status(slot sim.Slot) Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status[slot]
}

// Line is the one-line summary of a slot drawn under the arena.
func (b *Board) Line(slot sim.Slot) string {
	s := b.Status(slot)
	name := fmt.Sprintf("P%d", slot)
	if s.Respawning {
		return fmt.Sprintf("%s  respawn in %d", name, s.Countdown)
	}
	return fmt.Sprintf("%s  HP %3d  AMMO %d", name, s.Health, s.Ammo)
}
