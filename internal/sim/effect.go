package sim

import (
	"tank-arena/internal/geom"
)

// EffectStyle picks the look of an Effect.
type EffectStyle uint8

const (
	EffectExplosion EffectStyle = iota
	EffectMuzzleFlash
)

func (s EffectStyle) String() string {
	if s == EffectMuzzleFlash {
		return "muzzle-flash"
	}
	return "explosion"
}

func (s EffectStyle) texture() string {
	if s == EffectMuzzleFlash {
		return "smoke"
	}
	return "fire"
}

// Effect is a cosmetic entity that removes itself once its time is up.
type Effect struct {
	base
	style     EffectStyle
	size      float64
	duration  float64
	remaining float64
}

// NewEffect creates an effect of the given style that lasts duration seconds.
func NewEffect(style EffectStyle, pos geom.Vec3, size, duration float64) *Effect {
	return &Effect{
		base:      newBase(KindEffect, pos),
		style:     style,
		size:      size,
		duration:  duration,
		remaining: duration,
	}
}

func (e *Effect) Style() EffectStyle { return e.style }
func (e *Effect) Size() float64      { return e.size }
func (e *Effect) Remaining() float64 { return e.remaining }

func (e *Effect) Load(a AssetProvider) error {
	tex, err := requireTexture(a, e.style.String(), e.style.texture())
	if err != nil {
		return err
	}
	e.look = tex
	return nil
}

func (e *Effect) Update(_ *World, dt float64) {
	if e.disposeRequested {
		return
	}
	e.remaining -= dt
	if e.remaining <= 0 {
		e.remaining = 0
		e.requestDispose()
	}
}

// Sprite shrinks the effect as it runs out.
func (e *Effect) Sprite() Sprite {
	s := e.base.Sprite()
	s.Size = e.size
	if e.duration > 0 {
		s.Size = e.size * e.remaining / e.duration
	}
	s.Layer = layerEffect
	return s
}
