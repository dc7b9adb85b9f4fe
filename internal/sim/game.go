package sim

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"tank-arena/internal/geom"
)

// errSpawnBlocked holds a respawn while something sits on the spawn point.
var errSpawnBlocked = errors.New("spawn point occupied")

// Collaborators are the adapters a World talks to. Nil fields fall back to
// no-ops, except Assets which is required to load anything.
type Collaborators struct {
	Assets AssetProvider
	Render RenderSink
	UI     UISink
	Audio  AudioSink
	Events EventSink
	Logger zerolog.Logger
	Meter  metric.MeterProvider // nil uses the global provider
}

// LifeState is where a player slot is in the health/respawn cycle.
type LifeState uint8

const (
	StateAlive LifeState = iota
	StateDying
	StateRespawning
	StateAbsent
)

func (s LifeState) String() string {
	switch s {
	case StateAlive:
		return "alive"
	case StateDying:
		return "dying"
	case StateRespawning:
		return "respawning"
	default:
		return "absent"
	}
}

// countdown is a pending respawn for one slot.
type countdown struct {
	slot           Slot
	ticksRemaining int
	lastTick       float64
	held           bool // spawn point was occupied at 0
}

// World owns the entity population and drives frames. It is not safe for
// concurrent use; one goroutine ticks it and feeds it input.
type World struct {
	settings Settings
	assets   AssetProvider
	render   RenderSink
	ui       UISink
	audio    AudioSink
	events   EventSink
	log      zerolog.Logger
	metrics  *metrics

	entities []Entity
	pending  []Entity
	updating bool
	respawns []*countdown

	nextID EntityID
	tick   uint64
	now    float64
}

// NewWorld creates an empty World.
func NewWorld(s Settings, c Collaborators) *World {
	w := &World{
		settings: s,
		assets:   c.Assets,
		render:   c.Render,
		ui:       c.UI,
		audio:    c.Audio,
		events:   c.Events,
		log:      c.Logger,
		nextID:   1,
	}
	if w.render == nil {
		w.render = nopRender{}
	}
	if w.ui == nil {
		w.ui = nopUI{}
	}
	if w.audio == nil {
		w.audio = nopAudio{}
	}
	if w.events == nil {
		w.events = nopEvents{}
	}
	w.metrics = newMetrics(c.Meter, w.log)
	return w
}

// Settings returns the settings the World was built with.
func (w *World) Settings() Settings { return w.settings }

// Now returns simulated seconds since the World was created.
func (w *World) Now() float64 { return w.now }

// TickCount returns the number of frames run.
func (w *World) TickCount() uint64 { return w.tick }

// Len returns the size of the live population, pending entities included.
func (w *World) Len() int { return len(w.entities) + len(w.pending) }

// Entities returns a copy of the live population in insertion order.
func (w *World) Entities() []Entity {
	out := make([]Entity, 0, len(w.entities)+len(w.pending))
	out = append(out, w.entities...)
	return append(out, w.pending...)
}

// Tank returns the live tank of a slot, or nil while the slot is dying or
// respawning.
func (w *World) Tank(slot Slot) *Tank {
	t := w.findTank(slot)
	if t == nil || t.dying {
		return nil
	}
	return t
}

func (w *World) findTank(slot Slot) *Tank {
	for _, list := range [][]Entity{w.entities, w.pending} {
		for _, e := range list {
			t, ok := e.(*Tank)
			if ok && t.slot == slot && (t.dying || !t.disposeRequested) {
				return t
			}
		}
	}
	return nil
}

// SlotState reports the lifecycle state of a slot.
func (w *World) SlotState(slot Slot) LifeState {
	if t := w.findTank(slot); t != nil {
		if t.dying {
			return StateDying
		}
		return StateAlive
	}
	for _, c := range w.respawns {
		if c.slot == slot {
			return StateRespawning
		}
	}
	return StateAbsent
}

// Countdown returns the remaining respawn ticks of a slot.
func (w *World) Countdown(slot Slot) (int, bool) {
	for _, c := range w.respawns {
		if c.slot == slot {
			return c.ticksRemaining, true
		}
	}
	return 0, false
}

// Spawn loads e and inserts it. Load errors are returned unchanged so a
// *MissingAssetError stays visible to errors.As.
func (w *World) Spawn(e Entity) error {
	w.assignID(e)
	if w.assets == nil {
		return &MissingAssetError{Entity: e.Kind().String(), Asset: "asset provider"}
	}
	if err := e.Load(w.assets); err != nil {
		return err
	}
	w.AddEntity(e)
	return nil
}

// Populate loads and inserts entities one after another and stops at the
// first failure.
func (w *World) Populate(entities ...Entity) error {
	for _, e := range entities {
		if err := w.Spawn(e); err != nil {
			return fmt.Errorf("load %s #%d: %w", e.Kind(), e.ID(), err)
		}
	}
	return nil
}

// AddEntity is the only way into the population. During an update pass the
// entity is buffered and merged once the pass completes.
func (w *World) AddEntity(e Entity) {
	w.assignID(e)
	if w.updating {
		w.pending = append(w.pending, e)
	} else {
		w.entities = append(w.entities, e)
	}
	w.metrics.populationDelta(1)
	w.render.Attach(e.ID(), e.Sprite())
	if t, ok := e.(*Tank); ok {
		w.ui.Health(t.slot, t.Health())
		w.ui.Ammo(t.slot, t.ammo)
	}
}

func (w *World) assignID(e Entity) {
	b := e.core()
	if b.id == 0 {
		b.id = w.nextID
		w.nextID++
	}
}

// Tick runs one frame: reap, respawn countdowns, update, merge, present.
func (w *World) Tick(dt float64) {
	w.tick++
	w.now += dt
	w.metrics.add(w.metrics.frames, 1)

	w.reap()
	w.advanceRespawns()

	w.updating = true
	snapshot := w.entities
	for _, e := range snapshot {
		e.Update(w, dt)
	}
	w.updating = false

	if len(w.pending) > 0 {
		w.entities = append(w.entities, w.pending...)
		clear(w.pending)
		w.pending = w.pending[:0]
	}

	w.render.Present(w.frame())
}

func (w *World) reap() {
	kept := w.entities[:0]
	var removed int64
	for _, e := range w.entities {
		if !e.DisposeRequested() {
			kept = append(kept, e)
			continue
		}
		e.Dispose()
		w.render.Detach(e.ID())
		removed++
		w.log.Debug().Uint64("tick", w.tick).Uint64("entity", uint64(e.ID())).
			Stringer("kind", e.Kind()).Msg("reaped")
	}
	clear(w.entities[len(kept):])
	w.entities = kept
	w.metrics.populationDelta(-removed)
}

func (w *World) frame() Frame {
	f := Frame{
		Tick:    w.tick,
		Time:    w.now,
		Sprites: make([]Sprite, 0, len(w.entities)),
	}
	for _, e := range w.entities {
		f.Sprites = append(f.Sprites, e.Sprite())
	}
	return f
}

// scheduleRespawn starts the countdown of a slot. A slot already counting
// down is left alone.
func (w *World) scheduleRespawn(slot Slot) {
	for _, c := range w.respawns {
		if c.slot == slot {
			return
		}
	}
	ticks := w.settings.Respawn.Ticks
	w.respawns = append(w.respawns, &countdown{slot: slot, ticksRemaining: ticks, lastTick: w.now})
	w.ui.Countdown(slot, ticks)
	w.log.Info().Stringer("slot", slot).Int("ticks", ticks).Msg("respawn countdown started")
}

func (w *World) advanceRespawns() {
	if len(w.respawns) == 0 {
		return
	}
	interval := w.settings.Respawn.Interval
	kept := w.respawns[:0]
	for _, c := range w.respawns {
		for c.ticksRemaining > 0 && w.now-c.lastTick >= interval {
			c.ticksRemaining--
			c.lastTick += interval
			w.ui.Countdown(c.slot, c.ticksRemaining)
		}
		if c.ticksRemaining > 0 {
			kept = append(kept, c)
			continue
		}
		if err := w.respawn(c.slot); err != nil {
			if errors.Is(err, errSpawnBlocked) {
				if !c.held {
					w.log.Info().Stringer("slot", c.slot).Msg("spawn point occupied, respawn held")
				}
				c.held = true
			} else {
				w.log.Error().Err(err).Stringer("slot", c.slot).Msg("respawn failed, retrying next frame")
			}
			kept = append(kept, c)
		}
	}
	clear(w.respawns[len(kept):])
	w.respawns = kept
}

// respawn inserts a new tank for slot. A spawn point overlapped by a tank or
// wall returns errSpawnBlocked: a tank inserted there could never move again.
func (w *World) respawn(slot Slot) error {
	t := w.newTank(slot)
	if w.Blocked(t, t.body) {
		return errSpawnBlocked
	}
	if err := w.Spawn(t); err != nil {
		return err
	}
	w.record(Event{Type: EventRespawn, Slot: slot, Position: t.pos})
	w.log.Info().Stringer("slot", slot).Uint64("entity", uint64(t.ID())).Msg("tank respawned")
	return nil
}

func (w *World) newTank(slot Slot) *Tank {
	p := w.settings.Player(slot)
	return NewTank(slot, geom.Vec3{p.Spawn.X, p.Spawn.Y, p.Spawn.Z}, p.Cooldown, w.settings.Tank)
}

// Blocked reports whether moving mover's collider to proposed would touch an
// entity that blocks movement.
func (w *World) Blocked(mover Entity, proposed geom.Sphere) bool {
	return len(w.overlapping(mover.ID(), proposed, blocksMovement)) > 0
}

// overlapping returns the live collider-bearing entities other than self
// whose kind passes include and whose collider touches s.
func (w *World) overlapping(self EntityID, s geom.Sphere, include func(Kind) bool) []Entity {
	var hits []Entity
	for _, e := range w.entities {
		if e.ID() == self || !include(e.Kind()) {
			continue
		}
		c := e.Collider()
		if c == nil {
			continue
		}
		if geom.Intersects(s, c) {
			hits = append(hits, e)
		}
	}
	return hits
}

// blocksMovement is the exclusion rule of the movement resolver.
func blocksMovement(k Kind) bool {
	switch k {
	case KindWall, KindPlayer1, KindPlayer2:
		return true
	case KindProjectile, KindEffect, KindMap, KindGeneral:
		return false
	default:
		return false
	}
}

// hitByProjectile is the exclusion rule of the projectile impact test.
func hitByProjectile(k Kind) bool {
	switch k {
	case KindWall, KindPlayer1, KindPlayer2, KindGeneral:
		return true
	case KindProjectile, KindEffect, KindMap:
		return false
	default:
		return false
	}
}

func (w *World) cue(c Cue) {
	w.audio.Cue(c)
}

func (w *World) record(e Event) {
	e.Tick = w.tick
	e.Time = w.now
	w.events.Record(e)
}
