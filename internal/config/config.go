// Package config loads runtime settings from defaults, an optional config
// file and TANKARENA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"tank-arena/internal/sim"
)

const EnvPrefix = "TANKARENA"

// SimConfig is the frame loop plus the arena settings.
type SimConfig struct {
	TickRate     int     `mapstructure:"tickRate"`     // frames per second
	MaxDeltaTime float64 `mapstructure:"maxDeltaTime"` // seconds

	sim.Settings `mapstructure:",squash"`
}

// TickInterval is the wall-clock period of one frame.
func (c SimConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	Console    bool   `mapstructure:"console"`
}

type AssetsConfig struct {
	Dir string `mapstructure:"dir"` // empty uses the embedded manifest
}

type InputConfig struct {
	HoldWindow time.Duration `mapstructure:"holdWindow"`
}

type AudioConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate int     `mapstructure:"sampleRate"`
	Volume     float64 `mapstructure:"volume"`
}

type ViewerConfig struct {
	Addr          string  `mapstructure:"addr"` // empty disables the viewer
	BroadcastRate float64 `mapstructure:"broadcastRate"`
	Secret        string  `mapstructure:"secret"`
	QR            bool    `mapstructure:"qr"`
	MaxConns      int     `mapstructure:"maxConns"`
	MaxConnsPerIP int     `mapstructure:"maxConnsPerIP"`
}

type JournalConfig struct {
	Path          string        `mapstructure:"path"` // empty disables the journal
	FlushInterval time.Duration `mapstructure:"flushInterval"`
	BatchSize     int           `mapstructure:"batchSize"`
	BufferSize    int           `mapstructure:"bufferSize"`
}

// Config is the full runtime configuration.
type Config struct {
	Sim     SimConfig     `mapstructure:"sim"`
	Log     LogConfig     `mapstructure:"log"`
	Assets  AssetsConfig  `mapstructure:"assets"`
	Input   InputConfig   `mapstructure:"input"`
	Audio   AudioConfig   `mapstructure:"audio"`
	Viewer  ViewerConfig  `mapstructure:"viewer"`
	Journal JournalConfig `mapstructure:"journal"`
}

func setDefaults(v *viper.Viper) {
	d := sim.DefaultSettings()

	v.SetDefault("sim.tickRate", 60)
	v.SetDefault("sim.maxDeltaTime", 0.06)
	v.SetDefault("sim.arenaSize", d.ArenaSize)

	v.SetDefault("sim.tank.moveSpeed", d.Tank.MoveSpeed)
	v.SetDefault("sim.tank.turnSpeed", d.Tank.TurnSpeed)
	v.SetDefault("sim.tank.maxHealth", d.Tank.MaxHealth)
	v.SetDefault("sim.tank.maxAmmo", d.Tank.MaxAmmo)
	v.SetDefault("sim.tank.visualRadius", d.Tank.VisualRadius)
	v.SetDefault("sim.tank.colliderShrink", d.Tank.ColliderShrink)
	v.SetDefault("sim.tank.colliderLift", d.Tank.ColliderLift)
	v.SetDefault("sim.tank.muzzleOffset", d.Tank.MuzzleOffset)
	v.SetDefault("sim.tank.muzzleHeight", d.Tank.MuzzleHeight)

	v.SetDefault("sim.projectile.speed", d.Projectile.Speed)
	v.SetDefault("sim.projectile.radius", d.Projectile.Radius)
	v.SetDefault("sim.projectile.damage", d.Projectile.Damage)
	v.SetDefault("sim.projectile.impactSize", d.Projectile.ImpactSize)
	v.SetDefault("sim.projectile.maxRange", d.Projectile.MaxRange)

	v.SetDefault("sim.effects.explosionDuration", d.Effects.ExplosionDuration)
	v.SetDefault("sim.effects.deathExplosionSize", d.Effects.DeathExplosionSize)
	v.SetDefault("sim.effects.muzzleFlashDuration", d.Effects.MuzzleFlashDuration)

	v.SetDefault("sim.respawn.ticks", d.Respawn.Ticks)
	v.SetDefault("sim.respawn.interval", d.Respawn.Interval)

	v.SetDefault("sim.player1.spawn.x", d.Player1.Spawn.X)
	v.SetDefault("sim.player1.spawn.y", d.Player1.Spawn.Y)
	v.SetDefault("sim.player1.spawn.z", d.Player1.Spawn.Z)
	v.SetDefault("sim.player1.cooldown", d.Player1.Cooldown)
	v.SetDefault("sim.player2.spawn.x", d.Player2.Spawn.X)
	v.SetDefault("sim.player2.spawn.y", d.Player2.Spawn.Y)
	v.SetDefault("sim.player2.spawn.z", d.Player2.Spawn.Z)
	v.SetDefault("sim.player2.cooldown", d.Player2.Cooldown)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "tankarena.log")
	v.SetDefault("log.maxSizeMB", 50)
	v.SetDefault("log.maxBackups", 3)
	v.SetDefault("log.console", false)

	v.SetDefault("assets.dir", "")

	v.SetDefault("input.holdWindow", "180ms")

	v.SetDefault("audio.enabled", true)
	v.SetDefault("audio.sampleRate", 44100)
	v.SetDefault("audio.volume", 0.3)

	v.SetDefault("viewer.addr", "")
	v.SetDefault("viewer.broadcastRate", 20)
	v.SetDefault("viewer.secret", "")
	v.SetDefault("viewer.qr", false)
	v.SetDefault("viewer.maxConns", 32)
	v.SetDefault("viewer.maxConnsPerIP", 4)

	v.SetDefault("journal.path", "")
	v.SetDefault("journal.flushInterval", "2s")
	v.SetDefault("journal.batchSize", 50)
	v.SetDefault("journal.bufferSize", 1000)
}

// Load builds a Config. An empty path skips the config file; otherwise its
// format follows the file extension.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values the frame loop cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Sim.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("sim.tickRate must be positive, got %d", c.Sim.TickRate))
	}
	if c.Sim.MaxDeltaTime <= 0 {
		errs = append(errs, fmt.Errorf("sim.maxDeltaTime must be positive, got %g", c.Sim.MaxDeltaTime))
	}
	if c.Sim.ArenaSize < 2 {
		errs = append(errs, fmt.Errorf("sim.arenaSize must be at least 2, got %d", c.Sim.ArenaSize))
	}
	if c.Sim.Respawn.Ticks < 0 || c.Sim.Respawn.Interval <= 0 {
		errs = append(errs, errors.New("sim.respawn needs ticks >= 0 and a positive interval"))
	}
	if c.Sim.Tank.MaxAmmo < 0 || c.Sim.Tank.MaxHealth <= 0 {
		errs = append(errs, errors.New("sim.tank needs positive maxHealth and non-negative maxAmmo"))
	}
	if c.Input.HoldWindow <= 0 {
		errs = append(errs, fmt.Errorf("input.holdWindow must be positive, got %s", c.Input.HoldWindow))
	}
	if c.Viewer.Addr != "" && c.Viewer.BroadcastRate <= 0 {
		errs = append(errs, errors.New("viewer.broadcastRate must be positive"))
	}
	if c.Journal.Path != "" && (c.Journal.BatchSize <= 0 || c.Journal.FlushInterval <= 0) {
		errs = append(errs, errors.New("journal needs a positive batchSize and flushInterval"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
