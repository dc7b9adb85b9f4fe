package sim

import (
	"tank-arena/internal/assets"
	"tank-arena/internal/geom"
)

// AssetProvider hands out models and textures by name. A missing asset is
// fatal to the entity asking for it.
type AssetProvider interface {
	Model(name string) (assets.Model, bool)
	Texture(name string) (assets.Texture, bool)
}

// Sprite is the visual handle of an entity, as seen by render sinks.
type Sprite struct {
	ID          EntityID
	Kind        Kind
	Position    geom.Vec3
	Yaw         float64
	Glyph       rune
	Color       string
	Accent      rune
	AccentColor string
	Size        float64
	Layer       int
}

// Frame is what the frame driver presents after every tick.
type Frame struct {
	Tick    uint64
	Time    float64
	Sprites []Sprite
}

// RenderSink receives visuals. It never reads back into the simulation.
type RenderSink interface {
	Attach(id EntityID, s Sprite)
	Detach(id EntityID)
	Present(f Frame)
}

// UISink receives the values shown on the HUD.
type UISink interface {
	Health(slot Slot, v int)
	Ammo(slot Slot, v int)
	Countdown(slot Slot, v int)
}

// Cue is a sound trigger.
type Cue uint8

const (
	CueFire Cue = iota + 1
	CueExplosion
	CueReady
)

func (c Cue) String() string {
	switch c {
	case CueFire:
		return "fire"
	case CueExplosion:
		return "explosion"
	case CueReady:
		return "ready"
	default:
		return "unknown"
	}
}

// AudioSink plays cues. Calls must not block.
type AudioSink interface {
	Cue(c Cue)
}

// EventType tags combat events.
type EventType string

const (
	EventFired   EventType = "fired"
	EventImpact  EventType = "impact"
	EventDeath   EventType = "death"
	EventRespawn EventType = "respawn"
)

// Event is a combat event handed to the event sink.
type Event struct {
	Type     EventType
	Tick     uint64
	Time     float64
	Slot     Slot // acting or affected player, zero when none
	Target   Kind // what a projectile hit
	Position geom.Vec3
}

// EventSink records events. Calls must not block.
type EventSink interface {
	Record(e Event)
}

type nopRender struct{}

func (nopRender) Attach(EntityID, Sprite) {}
func (nopRender) Detach(EntityID)         {}
func (nopRender) Present(Frame)           {}

type nopUI struct{}

func (nopUI) Health(Slot, int)    {}
func (nopUI) Ammo(Slot, int)      {}
func (nopUI) Countdown(Slot, int) {}

type nopAudio struct{}

func (nopAudio) Cue(Cue) {}

type nopEvents struct{}

func (nopEvents) Record(Event) {}

// MultiSink fans every call out to each sink in order.
type MultiSink []RenderSink

func (m MultiSink) Attach(id EntityID, s Sprite) {
	for _, r := range m {
		r.Attach(id, s)
	}
}

func (m MultiSink) Detach(id EntityID) {
	for _, r := range m {
		r.Detach(id)
	}
}

func (m MultiSink) Present(f Frame) {
	for _, r := range m {
		r.Present(f)
	}
}
