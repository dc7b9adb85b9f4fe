package sim

import (
	"tank-arena/internal/geom"
)

// Projectile travels in a straight line until it touches something.
type Projectile struct {
	base
	origin   geom.Vec3
	yaw      float64
	heading  geom.Vec3
	settings ProjectileSettings

	body     geom.Sphere
	traveled float64
	impacted bool
}

// NewProjectile creates a projectile at pos flying along yaw.
func NewProjectile(pos geom.Vec3, yaw float64, s ProjectileSettings) *Projectile {
	p := &Projectile{
		base:     newBase(KindProjectile, pos),
		origin:   pos,
		yaw:      yaw,
		heading:  Heading(yaw),
		settings: s,
	}
	p.body = geom.Sphere{Center: pos, Radius: s.Radius}
	p.collider = p.body
	return p
}

func (p *Projectile) Origin() geom.Vec3 { return p.origin }
func (p *Projectile) Impacted() bool    { return p.impacted }

func (p *Projectile) Load(a AssetProvider) error {
	tex, err := requireTexture(a, p.kind.String(), "bullet")
	if err != nil {
		return err
	}
	p.look = tex
	return nil
}

func (p *Projectile) Update(w *World, dt float64) {
	if p.impacted {
		return
	}

	step := p.settings.Speed * dt
	d := p.heading.Mul(step)
	p.pos = p.pos.Add(d)
	p.body = p.body.Moved(d)
	p.collider = p.body
	p.traveled += step

	hits := w.overlapping(p.id, p.body, hitByProjectile)
	if len(hits) == 0 {
		if p.settings.MaxRange > 0 && p.traveled > p.settings.MaxRange {
			p.requestDispose()
		}
		return
	}

	p.impacted = true
	p.requestDispose()
	w.metrics.add(w.metrics.impacts, 1)

	explosion := NewEffect(EffectExplosion, p.pos, p.settings.ImpactSize, w.settings.Effects.ExplosionDuration)
	if err := w.Spawn(explosion); err != nil {
		w.log.Error().Err(err).Uint64("entity", uint64(p.id)).Msg("impact explosion load failed")
	}

	// One projectile damages every tank it touches
	for _, e := range hits {
		w.record(Event{Type: EventImpact, Slot: slotOf(e.Kind()), Target: e.Kind(), Position: p.pos})
		if t, ok := e.(*Tank); ok {
			t.Damage(w, p.settings.Damage)
		}
	}
}

func slotOf(k Kind) Slot {
	s, _ := k.Slot()
	return s
}

func (p *Projectile) Sprite() Sprite {
	s := p.base.Sprite()
	s.Yaw = p.yaw
	s.Size = p.settings.Radius
	s.Layer = layerShot
	return s
}
