// Package audio plays synthesized cue sounds through the system speaker.
package audio

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog"

	"tank-arena/internal/config"
	"tank-arena/internal/sim"
)

// Player implements sim.AudioSink. When the speaker cannot be opened it
// stays silent.
type Player struct {
	mu      sync.Mutex
	log     zerolog.Logger
	sr      beep.SampleRate
	volume  float64
	mixer   *beep.Mixer
	enabled bool
	played  map[sim.Cue]int
}

// New opens the speaker unless c disables audio.
func New(c config.AudioConfig, log zerolog.Logger) *Player {
	p := newPlayer(beep.SampleRate(c.SampleRate), c.Volume, log)
	if !c.Enabled {
		log.Info().Msg("audio disabled")
		return p
	}
	if err := speaker.Init(p.sr, p.sr.N(100*time.Millisecond)); err != nil {
		log.Warn().Err(err).Msg("speaker unavailable, audio muted")
		return p
	}
	speaker.Play(p.mixer)
	p.enabled = true
	log.Info().Int("sampleRate", int(p.sr)).Msg("audio ready")
	return p
}

func newPlayer(sr beep.SampleRate, volume float64, log zerolog.Logger) *Player {
	if sr <= 0 {
		sr = 44100
	}
	return &Player{
		log:    log,
		sr:     sr,
		volume: volume,
		mixer:  &beep.Mixer{},
		played: make(map[sim.Cue]int),
	}
}

// Enabled reports whether cues reach the speaker.
func (p *Player) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// Cue queues the sound of c on the mixer. It never blocks on playback.
func (p *Player) Cue(c sim.Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played[c]++
	if !p.enabled {
		return
	}
	s := p.streamFor(c)
	if s == nil {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// Played returns how many times c was requested.
func (p *Player) Played(c sim.Cue) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played[c]
}

// Close silences the mixer and releases the speaker.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	speaker.Clear()
	speaker.Close()
	p.enabled = false
}

func (p *Player) streamFor(c sim.Cue) beep.Streamer {
	switch c {
	case sim.CueFire:
		return beep.Take(p.sr.N(120*time.Millisecond), &tone{sr: p.sr, freq: 220, sweep: -900, decay: 18, gain: p.volume})
	case sim.CueExplosion:
		return beep.Take(p.sr.N(500*time.Millisecond), &noise{sr: p.sr, decay: 6, rumble: 60, gain: p.volume})
	case sim.CueReady:
		return beep.Take(p.sr.N(60*time.Millisecond), &tone{sr: p.sr, freq: 880, decay: 30, gain: p.volume * 0.5})
	default:
		return nil
	}
}

// tone is a decaying sine with an optional linear pitch sweep in Hz/s.
type tone struct {
	sr    beep.SampleRate
	freq  float64
	sweep float64
	decay float64
	gain  float64
	pos   int
	phase float64
}

func (g *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		freq := math.Max(g.freq+g.sweep*t, 20)
		g.phase += 2 * math.Pi * freq / float64(g.sr)
		sample := g.gain * math.Exp(-t*g.decay) * math.Sin(g.phase)

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *tone) Err() error { return nil }

// noise is white noise over a low rumble with an exponential envelope.
type noise struct {
	sr     beep.SampleRate
	decay  float64
	rumble float64
	gain   float64
	pos    int
}

func (g *noise) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		envelope := math.Exp(-t * g.decay)
		white := rand.Float64()*2 - 1
		r := 0.4 * math.Sin(2*math.Pi*g.rumble*t)
		sample := g.gain * envelope * (0.6*white + r)

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *noise) Err() error { return nil }
