package sim

import (
	"fmt"
	"math"

	"tank-arena/internal/assets"
	"tank-arena/internal/geom"
)

// EntityID is the stable identity of an entity for the lifetime of a World.
type EntityID uint64

// Kind is the closed set of entity variants.
type Kind uint8

const (
	KindGeneral Kind = iota
	KindPlayer1
	KindPlayer2
	KindProjectile
	KindWall
	KindEffect
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindGeneral:
		return "general"
	case KindPlayer1:
		return "player1"
	case KindPlayer2:
		return "player2"
	case KindProjectile:
		return "projectile"
	case KindWall:
		return "wall"
	case KindEffect:
		return "effect"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Slot returns the player slot of a tank kind.
func (k Kind) Slot() (Slot, bool) {
	switch k {
	case KindPlayer1:
		return Player1, true
	case KindPlayer2:
		return Player2, true
	default:
		return 0, false
	}
}

// IsTank reports whether k is one of the player kinds.
func (k Kind) IsTank() bool {
	_, ok := k.Slot()
	return ok
}

// Slot is a player position. It outlives the tanks that fill it.
type Slot uint8

const (
	Player1 Slot = iota + 1
	Player2
)

// Slots lists the player slots in order.
var Slots = [...]Slot{Player1, Player2}

func (s Slot) String() string {
	switch s {
	case Player1:
		return "p1"
	case Player2:
		return "p2"
	default:
		return "none"
	}
}

// Kind returns the tank kind for the slot.
func (s Slot) Kind() Kind {
	if s == Player2 {
		return KindPlayer2
	}
	return KindPlayer1
}

// Entity is anything living in the World population.
//
// Entities never remove themselves: they raise DisposeRequested and the World
// reaps them at the next frame boundary.
type Entity interface {
	ID() EntityID
	Kind() Kind
	Position() geom.Vec3
	// Collider is nil for entities that neither collide nor block.
	Collider() geom.Collider
	DisposeRequested() bool
	Load(a AssetProvider) error
	Update(w *World, dt float64)
	// Dispose releases resources. Calling it again is a no-op.
	Dispose()
	Sprite() Sprite
	core() *base
}

// base carries the state shared by every variant.
type base struct {
	id               EntityID
	kind             Kind
	pos              geom.Vec3
	collider         geom.Collider
	disposeRequested bool
	disposed         bool
	look             assets.Texture
}

func newBase(kind Kind, pos geom.Vec3) base {
	return base{kind: kind, pos: pos}
}

func (b *base) ID() EntityID            { return b.id }
func (b *base) Kind() Kind              { return b.kind }
func (b *base) Position() geom.Vec3     { return b.pos }
func (b *base) Collider() geom.Collider { return b.collider }
func (b *base) DisposeRequested() bool  { return b.disposeRequested }
func (b *base) Update(*World, float64)  {}
func (b *base) core() *base             { return b }
func (b *base) requestDispose()         { b.disposeRequested = true }
func (b *base) Disposed() bool          { return b.disposed }
func (b *base) Dispose()                { b.release() }

// release marks the entity disposed and reports whether this was the first
// call.
func (b *base) release() bool {
	if b.disposed {
		return false
	}
	b.disposed = true
	return true
}

func (b *base) Sprite() Sprite {
	return Sprite{
		ID:       b.id,
		Kind:     b.kind,
		Position: b.pos,
		Glyph:    b.look.Rune(),
		Color:    b.look.Color,
		Size:     1,
	}
}

// MissingAssetError is returned by Load when a required model or texture is
// not available.
type MissingAssetError struct {
	Entity string
	Asset  string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("%s: missing asset %q", e.Entity, e.Asset)
}

func requireTexture(a AssetProvider, entity, name string) (assets.Texture, error) {
	t, ok := a.Texture(name)
	if !ok {
		return assets.Texture{}, &MissingAssetError{Entity: entity, Asset: name}
	}
	return t, nil
}

// Heading returns the unit vector a yaw points along. Yaw 0 points to -Y.
func Heading(yaw float64) geom.Vec3 {
	return geom.Vec3{math.Sin(yaw), -math.Cos(yaw), 0}
}

// NormalizeYaw wraps a into [0, 2π).
func NormalizeYaw(a float64) float64 {
	const full = 2 * math.Pi
	a = math.Mod(a, full)
	if a < 0 {
		a += full
	}
	if a >= full {
		a = 0
	}
	return a
}
