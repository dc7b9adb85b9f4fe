package sim

import (
	"math"

	"tank-arena/internal/assets"
	"tank-arena/internal/geom"
)

const (
	tankModel   = "tank"
	partBody    = "Body"
	partTurret  = "Turret"
	layerGround = 0
	layerWall   = 1
	layerTank   = 2
	layerShot   = 3
	layerEffect = 4
)

// Controls is the held directional input of a tank.
type Controls struct {
	Left    bool
	Right   bool
	Forward bool
	Back    bool
}

// Tank is a player-controlled vehicle. A slot gets a new Tank on every
// respawn; a dead instance is never revived.
type Tank struct {
	base
	slot     Slot
	settings TankSettings
	cooldown float64

	health   int
	ammo     int
	lastFire float64
	yaw      float64
	controls Controls
	fire     bool
	dying    bool

	body   geom.Sphere
	turret assets.Texture
}

// NewTank creates a tank for slot at pos with full health and ammo.
func NewTank(slot Slot, pos geom.Vec3, cooldown float64, s TankSettings) *Tank {
	t := &Tank{
		base:     newBase(slot.Kind(), pos),
		slot:     slot,
		settings: s,
		cooldown: cooldown,
		health:   s.MaxHealth,
		ammo:     s.MaxAmmo,
		lastFire: math.Inf(-1),
	}
	t.body = geom.Sphere{Center: t.colliderCenter(pos), Radius: s.ColliderRadius()}
	t.collider = t.body
	return t
}

func (t *Tank) colliderCenter(pos geom.Vec3) geom.Vec3 {
	return pos.Add(geom.Vec3{0, 0, t.settings.ColliderLift})
}

func (t *Tank) Slot() Slot { return t.slot }

// Health is clamped at zero.
func (t *Tank) Health() int { return max(t.health, 0) }

func (t *Tank) Ammo() int          { return t.ammo }
func (t *Tank) Yaw() float64       { return t.yaw }
func (t *Tank) LastFire() float64  { return t.lastFire }
func (t *Tank) Dying() bool        { return t.dying }
func (t *Tank) Controls() Controls { return t.controls }

func (t *Tank) SetYaw(a float64) { t.yaw = NormalizeYaw(a) }

// SetControls replaces the held input, consumed by the next Update.
func (t *Tank) SetControls(c Controls) { t.controls = c }

// PressFire latches a fire request for the next Update.
func (t *Tank) PressFire() { t.fire = true }

// Muzzle is where projectiles leave the barrel.
func (t *Tank) Muzzle() geom.Vec3 {
	h := Heading(t.yaw).Mul(t.settings.MuzzleOffset)
	return t.pos.Add(geom.Vec3{h.X(), h.Y(), t.settings.MuzzleHeight})
}

func (t *Tank) Load(a AssetProvider) error {
	name := t.kind.String()
	m, ok := a.Model(tankModel)
	if !ok {
		return &MissingAssetError{Entity: name, Asset: tankModel}
	}
	for _, part := range []string{partBody, partTurret} {
		if !m.HasPart(part) {
			return &MissingAssetError{Entity: name, Asset: tankModel + "/" + part}
		}
	}
	bodyTex, turretTex := "tank-body", "tank-turret"
	if t.slot == Player2 {
		bodyTex, turretTex = "tank-body-red", "tank-turret-red"
	}
	body, err := requireTexture(a, name, bodyTex)
	if err != nil {
		return err
	}
	turret, err := requireTexture(a, name, turretTex)
	if err != nil {
		return err
	}
	t.look, t.turret = body, turret
	return nil
}

func (t *Tank) Update(w *World, dt float64) {
	if t.dying {
		return
	}

	// Rotation is applied even when the move below is blocked
	switch {
	case t.controls.Left:
		t.yaw = NormalizeYaw(t.yaw + t.settings.TurnSpeed*dt)
	case t.controls.Right:
		t.yaw = NormalizeYaw(t.yaw - t.settings.TurnSpeed*dt)
	}

	var dir float64
	switch {
	case t.controls.Forward:
		dir = 1
	case t.controls.Back:
		dir = -1
	}
	if dir != 0 {
		t.TryMove(w, Heading(t.yaw).Mul(dir*t.settings.MoveSpeed*dt))
	}

	if t.fire {
		t.fire = false
		t.Fire(w)
	}
}

// TryMove applies d in full when the moved collider is clear and reports
// whether it did. A blocked move leaves position and collider untouched.
func (t *Tank) TryMove(w *World, d geom.Vec3) bool {
	proposed := t.body.Moved(d)
	if w.Blocked(t, proposed) {
		return false
	}
	t.pos = t.pos.Add(d)
	t.body = proposed
	t.collider = proposed
	return true
}

// Fire shoots one projectile if the cooldown has elapsed and ammo remains.
// An attempt outside the cooldown resets it even when the magazine is empty.
func (t *Tank) Fire(w *World) bool {
	if t.dying {
		return false
	}
	now := w.Now()
	if now-t.lastFire < t.cooldown {
		w.log.Debug().Stringer("slot", t.slot).Float64("since", now-t.lastFire).Msg("fire ignored: cooling down")
		return false
	}
	t.lastFire = now
	w.cue(CueReady)

	if t.ammo <= 0 {
		w.log.Debug().Stringer("slot", t.slot).Msg("fire ignored: out of ammo")
		return false
	}
	t.ammo--
	w.ui.Ammo(t.slot, t.ammo)
	w.cue(CueFire)

	muzzle := t.Muzzle()
	shot := NewProjectile(muzzle, t.yaw, w.settings.Projectile)
	if err := w.Spawn(shot); err != nil {
		w.log.Error().Err(err).Stringer("slot", t.slot).Msg("projectile load failed")
		return false
	}
	flash := NewEffect(EffectMuzzleFlash, muzzle, 1, w.settings.Effects.MuzzleFlashDuration)
	if err := w.Spawn(flash); err != nil {
		w.log.Error().Err(err).Stringer("slot", t.slot).Msg("muzzle flash load failed")
	}

	w.metrics.add(w.metrics.shots, 1)
	w.record(Event{Type: EventFired, Slot: t.slot, Position: muzzle})
	return true
}

// Reload refills the magazine. Health and cooldown are left alone.
func (t *Tank) Reload(w *World) {
	if t.dying {
		return
	}
	t.ammo = t.settings.MaxAmmo
	w.ui.Ammo(t.slot, t.ammo)
}

// Damage subtracts amount and reports whether this call killed the tank.
// Only the first crossing to zero starts the death sequence.
func (t *Tank) Damage(w *World, amount int) bool {
	t.health -= amount
	w.ui.Health(t.slot, t.Health())
	if t.health > 0 || t.dying {
		return false
	}

	t.dying = true
	w.cue(CueExplosion)
	boom := NewEffect(EffectExplosion, t.pos, w.settings.Effects.DeathExplosionSize, w.settings.Effects.ExplosionDuration)
	if err := w.Spawn(boom); err != nil {
		w.log.Error().Err(err).Stringer("slot", t.slot).Msg("explosion load failed")
	}
	t.requestDispose()
	w.scheduleRespawn(t.slot)

	w.metrics.add(w.metrics.deaths, 1)
	w.record(Event{Type: EventDeath, Slot: t.slot, Position: t.pos})
	w.log.Info().Stringer("slot", t.slot).Uint64("entity", uint64(t.id)).Msg("tank destroyed")
	return true
}

func (t *Tank) Sprite() Sprite {
	s := t.base.Sprite()
	s.Yaw = t.yaw
	s.Accent = t.turret.Rune()
	s.AccentColor = t.turret.Color
	s.Size = t.settings.VisualRadius
	s.Layer = layerTank
	return s
}
