package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tank-arena/internal/assets"
	"tank-arena/internal/audio"
	"tank-arena/internal/config"
	"tank-arena/internal/hud"
	"tank-arena/internal/input"
	"tank-arena/internal/journal"
	"tank-arena/internal/logging"
	"tank-arena/internal/render"
	"tank-arena/internal/sim"
	"tank-arena/internal/telemetry"
	"tank-arena/internal/viewer"
)

const spectatorTokenTTL = 12 * time.Hour

func main() {
	configPath := flag.String("config", "", "Path to config file (yaml, json or toml)")
	logConsole := flag.Bool("log-console", false, "Log to stderr instead of the log file")
	headless := flag.Int("headless-frames", 0, "Run this many frames without a terminal and exit")
	flag.Parse()

	if err := run(*configPath, *logConsole, *headless); err != nil {
		fmt.Fprintln(os.Stderr, "tankarena:", err)
		os.Exit(1)
	}
}

func run(configPath string, logConsole bool, headless int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logConsole {
		cfg.Log.Console = true
	}

	log, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer logCloser.Close()

	store, err := assets.Load(cfg.Assets.Dir)
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.Assets.Dir).Msg("load assets")
		return err
	}
	models, textures := store.Counts()
	log.Info().Int("models", models).Int("textures", textures).Msg("assets loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	tel := telemetry.New()
	tel.Install()
	defer tel.Shutdown(context.Background())

	board := hud.NewBoard()
	board.Changed.AddListener(func(_ context.Context, u hud.Update) {
		log.Debug().Stringer("slot", u.Slot).Stringer("field", u.Field).Int("value", u.Value).Msg("hud")
	}, "log")

	player := audio.New(cfg.Audio, log)
	defer player.Close()

	var events sim.EventSink
	var jr *journal.Journal
	if cfg.Journal.Path != "" {
		jr, err = journal.Open(cfg.Journal, log)
		if err != nil {
			log.Error().Err(err).Msg("journal")
			return err
		}
		defer jr.Close()
		events = jr
	}

	var sinks sim.MultiSink
	var hub *viewer.Hub
	if cfg.Viewer.Addr != "" {
		hub, err = startViewer(ctx, g, cfg.Viewer, log)
		if err != nil {
			return err
		}
		sinks = append(sinks, hub)
	}

	var screen tcell.Screen
	if headless <= 0 {
		screen, err = tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("terminal init: %w", err)
		}
		defer screen.Fini()
		screen.HideCursor()
		sinks = append(sinks, render.NewTerminal(screen, board, cfg.Sim.ArenaSize))
	}

	w := sim.NewWorld(cfg.Sim.Settings, sim.Collaborators{
		Assets: store,
		Render: sinks,
		UI:     board,
		Audio:  player,
		Events: events,
		Logger: log,
		Meter:  tel.MeterProvider(),
	})
	if err := sim.NewArena(w); err != nil {
		log.Error().Err(err).Msg("arena")
		return err
	}

	started := time.Now()
	g.Go(func() error {
		// the frame loop ending stops every other goroutine
		defer stop()
		if headless > 0 {
			runHeadless(ctx, w, cfg.Sim, headless)
			return nil
		}
		return runTerminal(ctx, w, screen, cfg, log)
	})
	err = g.Wait()

	summarize(log, w, time.Since(started), tel, jr, hub)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func startViewer(ctx context.Context, g *errgroup.Group, c config.ViewerConfig, log zerolog.Logger) (*viewer.Hub, error) {
	hub := viewer.NewHub(c, log)

	var token string
	if c.Secret != "" {
		var err error
		token, err = viewer.IssueToken([]byte(c.Secret), "spectator", spectatorTokenTTL)
		if err != nil {
			return nil, fmt.Errorf("spectator token: %w", err)
		}
	}
	url := viewer.SpectatorURL(c.Addr, token)
	log.Info().Str("url", url).Msg("spectators can connect")
	if c.QR {
		qr, err := viewer.QRCode(url)
		if err != nil {
			log.Warn().Err(err).Msg("qr code")
		} else {
			fmt.Fprint(os.Stderr, qr)
		}
	}

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return hub.Serve(ctx, c.Addr)
	})
	return hub, nil
}

// runHeadless steps the world n times with a fixed delta and no pacing.
func runHeadless(ctx context.Context, w *sim.World, c config.SimConfig, n int) {
	dt := c.TickInterval().Seconds()
	for range n {
		if ctx.Err() != nil {
			return
		}
		w.Tick(dt)
	}
}

// runTerminal owns the frame loop: key events arrive from a polling
// goroutine, frames on a ticker.
func runTerminal(ctx context.Context, w *sim.World, screen tcell.Screen, cfg config.Config, log zerolog.Logger) error {
	mapper := input.NewMapper(cfg.Input.HoldWindow)

	keys := make(chan *tcell.EventKey, 64)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				// Fini was called
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				select {
				case keys <- ev:
				default:
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		}
	}()

	ticker := time.NewTicker(cfg.Sim.TickInterval())
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-keys:
			if mapper.Handle(ev, time.Now()) {
				log.Info().Uint64("tick", w.TickCount()).Msg("quit requested")
				return nil
			}
		case now := <-ticker.C:
			dt := min(now.Sub(last).Seconds(), cfg.Sim.MaxDeltaTime)
			last = now
			mapper.Apply(w, now)
			w.Tick(dt)
		}
	}
}

func summarize(log zerolog.Logger, w *sim.World, wall time.Duration, tel *telemetry.Provider, jr *journal.Journal, hub *viewer.Hub) {
	ev := log.Info().
		Str("frames", humanize.Comma(int64(w.TickCount()))).
		Str("simTime", fmt.Sprintf("%.1fs", w.Now())).
		Str("wallTime", wall.Round(time.Second).String())
	if hub != nil {
		sent, dropped := hub.Stats()
		ev = ev.Str("viewerFrames", humanize.Comma(int64(sent))).Str("viewerDropped", humanize.Comma(int64(dropped)))
	}
	ev.Msg("match over")

	totals, err := tel.Totals(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("metrics")
	} else {
		log.Info().
			Str("shots", humanize.Comma(totals["tankarena.shots"])).
			Str("impacts", humanize.Comma(totals["tankarena.impacts"])).
			Str("deaths", humanize.Comma(totals["tankarena.deaths"])).
			Int64("population", totals["tankarena.population"]).
			Msg("combat totals")
	}

	if jr == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := jr.Flush(ctx); err != nil {
		log.Warn().Err(err).Msg("journal flush")
		return
	}
	sum, err := jr.Summary(jr.MatchID())
	if err != nil {
		log.Warn().Err(err).Msg("journal summary")
		return
	}
	for _, slot := range sim.Slots {
		s := sum[slot]
		log.Info().
			Stringer("slot", slot).
			Int("shots", s.Shots).
			Int("hitsTaken", s.HitsTaken).
			Int("deaths", s.Deaths).
			Int("respawns", s.Respawns).
			Msg("player summary")
	}
	written, dropped := jr.Stats()
	log.Info().
		Str("events", humanize.Comma(int64(written))).
		Uint64("dropped", dropped).
		Int64("match", jr.MatchID()).
		Msg("journal flushed")
}
