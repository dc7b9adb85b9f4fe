package sim

import "math"

// Point is a plain coordinate triple, used where values come from config.
type Point struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
	Z float64 `mapstructure:"z"`
}

// TankSettings tunes movement and the collider of every tank.
type TankSettings struct {
	MoveSpeed      float64 `mapstructure:"moveSpeed"` // units/s
	TurnSpeed      float64 `mapstructure:"turnSpeed"` // radians/s
	MaxHealth      int     `mapstructure:"maxHealth"`
	MaxAmmo        int     `mapstructure:"maxAmmo"`
	VisualRadius   float64 `mapstructure:"visualRadius"`
	ColliderShrink float64 `mapstructure:"colliderShrink"`
	ColliderLift   float64 `mapstructure:"colliderLift"`
	MuzzleOffset   float64 `mapstructure:"muzzleOffset"`
	MuzzleHeight   float64 `mapstructure:"muzzleHeight"`
}

// ProjectileSettings tunes projectiles and their impact.
type ProjectileSettings struct {
	Speed      float64 `mapstructure:"speed"`
	Radius     float64 `mapstructure:"radius"`
	Damage     int     `mapstructure:"damage"`
	ImpactSize float64 `mapstructure:"impactSize"`
	MaxRange   float64 `mapstructure:"maxRange"`
}

// EffectSettings holds durations and sizes of cosmetic effects.
type EffectSettings struct {
	ExplosionDuration   float64 `mapstructure:"explosionDuration"`
	DeathExplosionSize  float64 `mapstructure:"deathExplosionSize"`
	MuzzleFlashDuration float64 `mapstructure:"muzzleFlashDuration"`
}

// RespawnSettings is the countdown between death and the new tank.
type RespawnSettings struct {
	Ticks    int     `mapstructure:"ticks"`
	Interval float64 `mapstructure:"interval"` // seconds between ticks
}

// PlayerSettings are per slot.
type PlayerSettings struct {
	Spawn    Point   `mapstructure:"spawn"`
	Cooldown float64 `mapstructure:"cooldown"` // seconds between fire attempts
}

// Settings is everything the simulation needs to build and run an arena.
type Settings struct {
	ArenaSize     int                `mapstructure:"arenaSize"`
	InteriorWalls []Point            `mapstructure:"interiorWalls"`
	Tank          TankSettings       `mapstructure:"tank"`
	Projectile    ProjectileSettings `mapstructure:"projectile"`
	Effects       EffectSettings     `mapstructure:"effects"`
	Respawn       RespawnSettings    `mapstructure:"respawn"`
	Player1       PlayerSettings     `mapstructure:"player1"`
	Player2       PlayerSettings     `mapstructure:"player2"`
}

// DefaultSettings returns the stock two-player arena.
func DefaultSettings() Settings {
	return Settings{
		ArenaSize: 15,
		Tank: TankSettings{
			MoveSpeed:      2,
			TurnSpeed:      math.Pi,
			MaxHealth:      100,
			MaxAmmo:        7,
			VisualRadius:   1,
			ColliderShrink: 0.55,
			ColliderLift:   0.4,
			MuzzleOffset:   0.7,
			MuzzleHeight:   0.5,
		},
		Projectile: ProjectileSettings{
			Speed:      9,
			Radius:     0.085,
			Damage:     20,
			ImpactSize: 0.5,
			MaxRange:   30,
		},
		Effects: EffectSettings{
			ExplosionDuration:   0.5,
			DeathExplosionSize:  2,
			MuzzleFlashDuration: 1,
		},
		Respawn: RespawnSettings{
			Ticks:    5,
			Interval: 1,
		},
		Player1: PlayerSettings{Spawn: Point{X: 3, Y: 3}, Cooldown: 2.5},
		Player2: PlayerSettings{Spawn: Point{X: 12, Y: 12}, Cooldown: 1},
	}
}

// Player returns the settings of a slot.
func (s Settings) Player(slot Slot) PlayerSettings {
	if slot == Player2 {
		return s.Player2
	}
	return s.Player1
}

// ColliderRadius is the shrunk radius tanks collide with.
func (t TankSettings) ColliderRadius() float64 {
	return t.VisualRadius * t.ColliderShrink
}
