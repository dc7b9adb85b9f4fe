package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tank-arena/internal/geom"
)

func TestProjectileHittingWallDisposesWithoutDamage(t *testing.T) {
	h := newHarness(t)
	h.spawn(t, NewWall(geom.Vec3{5, 5, 0}))
	bystander := h.tank(t, Player2, geom.Vec3{10, 10, 0})
	shot := NewProjectile(geom.Vec3{5, 5.7, 0.5}, 0, h.w.settings.Projectile)
	h.spawn(t, shot)

	h.w.Tick(0.1)

	assert.True(t, shot.Impacted())
	assert.True(t, shot.DisposeRequested())
	assert.Equal(t, 100, bystander.Health())
	assert.Equal(t, 1, h.events.count(EventImpact))
	assert.Equal(t, KindWall, h.events.events[0].Target)
	assert.Equal(t, 1, countKind(h.w, KindEffect), "impact explosion")

	h.w.Tick(0.016)
	assert.Equal(t, 0, countKind(h.w, KindProjectile))
	assert.True(t, shot.Disposed())
}

func TestProjectileHittingTankDealsDamage(t *testing.T) {
	h := newHarness(t)
	target := h.tank(t, Player2, geom.Vec3{5, 5, 0})
	shot := NewProjectile(geom.Vec3{5, 6, 0.5}, 0, h.w.settings.Projectile)
	h.spawn(t, shot)

	h.w.Tick(0.05)

	assert.True(t, shot.Impacted())
	assert.Equal(t, 80, target.Health())
	assert.Equal(t, uiValue{Player2, 80}, h.ui.health[len(h.ui.health)-1])

	h.w.Tick(0.05)
	assert.Equal(t, 80, target.Health(), "a latched projectile never hits twice")
	assert.Equal(t, 0, countKind(h.w, KindProjectile))
}

func TestProjectileIgnoresOtherProjectilesAndEffects(t *testing.T) {
	h := newHarness(t)
	h.spawn(t, NewProjectile(geom.Vec3{5, 4.1, 0.5}, 0, h.w.settings.Projectile))
	h.spawn(t, NewEffect(EffectExplosion, geom.Vec3{5, 4.1, 0.5}, 2, 5))
	shot := NewProjectile(geom.Vec3{5, 5, 0.5}, 0, h.w.settings.Projectile)
	h.spawn(t, shot)

	h.w.Tick(0.1)
	assert.False(t, shot.Impacted())
}

func TestProjectileExpiresAfterMaxRange(t *testing.T) {
	h := newHarness(t)
	shot := NewProjectile(geom.Vec3{}, 0, h.w.settings.Projectile)
	h.spawn(t, shot)

	for range 3 {
		h.w.Tick(1)
	}
	assert.False(t, shot.DisposeRequested())
	h.w.Tick(1)
	assert.True(t, shot.DisposeRequested())
	assert.False(t, shot.Impacted())
}

func TestFiredProjectileFollowsHeading(t *testing.T) {
	h := newHarness(t)
	tank := h.tank(t, Player1, geom.Vec3{7, 7, 0})
	require.True(t, tank.Fire(h.w))

	var shot *Projectile
	for _, e := range h.w.Entities() {
		if p, ok := e.(*Projectile); ok {
			shot = p
		}
	}
	require.NotNil(t, shot)
	origin := shot.Origin()
	assert.InDelta(t, 7.0, origin.X(), 1e-12)
	assert.InDelta(t, 6.3, origin.Y(), 1e-12)
	assert.InDelta(t, 0.5, origin.Z(), 1e-12)

	const dt = 0.1
	speed := h.w.settings.Projectile.Speed
	for i := 1; i <= 5; i++ {
		h.w.Tick(dt)
		want := origin.Add(Heading(0).Mul(speed * dt * float64(i)))
		got := shot.Position()
		assert.InDelta(t, want.X(), got.X(), 1e-9)
		assert.InDelta(t, want.Y(), got.Y(), 1e-9)
		assert.InDelta(t, want.Z(), got.Z(), 1e-9)
	}
	assert.False(t, shot.Impacted())
}

func TestTwoProjectilesSameFrameKillOnce(t *testing.T) {
	h := newHarness(t)
	target := h.tank(t, Player2, geom.Vec3{5, 5, 0})
	target.health = 10
	for _, x := range []float64{4.9, 5.1} {
		h.spawn(t, NewProjectile(geom.Vec3{x, 6, 0.5}, 0, h.w.settings.Projectile))
	}

	h.w.Tick(0.05)

	assert.Equal(t, 0, target.Health())
	assert.True(t, target.Dying())
	assert.Equal(t, 1, h.events.count(EventDeath))
	assert.Equal(t, []uiValue{{Player2, 5}}, h.ui.countdown)
	assert.Equal(t, 3, countKind(h.w, KindEffect), "two impacts and one death explosion")
}
