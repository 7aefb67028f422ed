package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"floatclock/internal/clock"
	"floatclock/internal/config"
	"floatclock/internal/control"
	"floatclock/internal/health"
	"floatclock/internal/metrics"
	"floatclock/internal/mirror"
	"floatclock/internal/motion"
	"floatclock/internal/storage"
	"floatclock/internal/tui"
)

func main() {
	// Check for TUI mode (default) or headless mode
	headless := os.Getenv("HEADLESS") == "1"

	path := os.Getenv("FLOATCLOCK_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}

	if headless {
		runHeadless(path)
	} else {
		runWithTUI(path)
	}
}

// app holds the pieces both modes share.
type app struct {
	cfg     *config.Manager
	face    *clock.Face
	db      *storage.DB
	metrics *metrics.Metrics
	health  *health.Checker
	control *control.Server
	mirror  *mirror.Server
	hub     *mirror.Hub

	theme   string
	started time.Time
}

func runHeadless(path string) {
	setupLogger("info")
	log.Info().Msg("floatclock starting (headless mode)")

	a := initComponents(path)
	setupLogger(a.cfg.Get().Logging.Level)

	theme := tui.Themes[0]
	if i, ok := tui.ThemeIndex(a.theme); ok {
		theme = tui.Themes[i]
	}
	loop := clock.NewLoop(a.face, theme, a.cfg.Get().TUI.FPS)
	bridge := &loopBridge{loop: loop, cfg: a.cfg, theme: theme.Name, onTheme: a.publishTheme}

	loop.OnTick(func(time.Time) {
		a.metrics.RecordTick()
		a.health.Beat("tick")
	})
	loop.OnFrame(func(now time.Time, views []clock.SlotView) {
		ft := a.metrics.StartFrame()
		a.onFrame(now, views)
		ft.Done()
	})

	a.cfg.SetOnChange(func(c *config.Config) {
		s, _ := config.ClampSettings(c.Animation.Settings())
		loop.Post(func(f *clock.Face) { f.Config().Apply(s) })
		if c.Theme.Name != bridge.Theme() {
			bridge.setTheme(c.Theme.Name, false)
		}
	})

	a.startServers(bridge)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	a.health.Start(ctx, 5*time.Second)

	log.Info().
		Str("config", a.cfg.Path()).
		Str("theme", theme.Name).
		Int("fps", a.cfg.Get().TUI.FPS).
		Msg("clock running")

	if err := loop.Run(ctx); err != nil {
		log.Error().Err(err).Msg("clock loop failed")
	}

	log.Info().Msg("shutting down...")
	a.shutdown("headless", a.face.Config().Settings(), bridge.Theme())
	log.Info().Msg("goodbye")
}

func runWithTUI(path string) {
	setupLogger("info")
	a := initComponents(path)
	c := a.cfg.Get()

	// Redirect logs to file so they don't spam the TUI
	if err := os.MkdirAll(filepath.Dir(c.Logging.File), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create log dir: %v\n", err)
	}
	logFile, err := os.OpenFile(c.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open log file: %v\n", err)
		logFile = nil
	}
	if logFile != nil {
		defer logFile.Close()
		log.Logger = zerolog.New(logFile).With().Timestamp().Logger()
		setLevel(c.Logging.Level)
	} else {
		// Fallback to discard logs
		log.Logger = zerolog.Nop()
	}

	model := tui.NewModel(a.face, a.cfg)
	if i, ok := tui.ThemeIndex(a.theme); ok {
		model.ThemeIndex = i
		tui.ApplyTheme(model.Theme())
	}
	model.Metrics = a.metrics
	model.Health = a.health
	model.Hooks = tui.Hooks{
		OnFrame: a.onFrame,
		OnTheme: a.publishTheme,
	}

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if c.TUI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(model, opts...)

	// File edits reach the face through the program like any other input
	a.cfg.SetOnChange(func(c *config.Config) {
		s, name := c.Animation.Settings(), c.Theme.Name
		go func() {
			tui.SendSettings(p, s, false)
			tui.SendTheme(p, name, false)
		}()
	})

	a.startServers(programBridge{p})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.health.Start(ctx, 5*time.Second)

	// Run TUI (blocking)
	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		a.shutdown("tui", a.face.Config().Settings(), a.theme)
		os.Exit(1)
	}

	theme := a.theme
	if m, ok := final.(tui.Model); ok {
		theme = m.Theme().Name
	}
	a.face.Unmount()
	a.shutdown("tui", a.face.Config().Settings(), theme)
}

func initComponents(path string) *app {
	cfg, err := config.NewManager(path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	c := cfg.Get()

	a := &app{
		cfg:     cfg,
		metrics: metrics.New(300),
		health:  health.NewChecker(),
		theme:   c.Theme.Name,
		started: time.Now(),
	}
	a.health.Register("frame", time.Second)
	a.health.Register("tick", 3*time.Second)

	settings := cfg.Settings()

	if c.Storage.SQLitePath != "" {
		db, err := storage.NewDB(c.Storage.SQLitePath)
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize database")
		} else {
			a.db = db
		}
	}
	if a.db != nil && c.Storage.RestoreLast {
		p, err := a.db.GetPreset(storage.LastPreset)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("failed to restore last look")
		case p != nil:
			settings, _ = config.ClampSettings(p.Settings)
			if p.Theme != "" {
				a.theme = p.Theme
			}
			log.Info().Str("theme", a.theme).Msg("restored last look")
		}
	}

	now := time.Now()
	rng := rand.New(rand.NewPCG(uint64(now.UnixNano()), uint64(os.Getpid())))
	a.face = clock.NewFace(clock.NewAnimationConfig(settings, rng), motion.NewScheduler(now))

	log.Info().
		Str("config", cfg.Path()).
		Float64("font_scale", settings.FontScale).
		Float64("spread", settings.SpreadFactor).
		Str("style", settings.Style.String()).
		Str("rotation_policy", settings.RotationPolicy.String()).
		Msg("clock initialized")

	return a
}

// startServers brings up the optional HTTP surfaces.
func (a *app) startServers(b control.Bridge) {
	c := a.cfg.Get()

	if c.Mirror.Enabled {
		a.hub = mirror.NewHub(c.Mirror.RateHz, a.metrics)
		a.mirror = mirror.NewServer(c.Mirror.Addr(), a.hub)
		go func() {
			if err := a.mirror.Start(); err != nil {
				log.Error().Err(err).Msg("mirror server failed")
			}
		}()
		a.health.Probe("mirror", "http://"+c.Mirror.Addr()+"/health")
	}

	if c.Control.Enabled {
		var store control.PresetStore
		if a.db != nil {
			store = a.db
		}
		a.control = control.NewServer(c.Control.ListenHost, c.Control.ListenPort, control.Options{
			Bridge:  b,
			Store:   store,
			Health:  a.health,
			Metrics: a.metrics,
			Themes:  tui.ThemeNames(),
		})
		a.control.Publish(a.face.Config().Settings(), a.theme)
		// the face is not running yet, so subscribing here is safe
		a.face.Config().Subscribe(func(ch clock.Change) {
			a.control.PublishSettings(ch.Settings)
		})
		go func() {
			if err := a.control.Start(); err != nil {
				log.Error().Err(err).Msg("control server failed")
			}
		}()
	}
}

func (a *app) publishTheme(name string) {
	if a.control != nil {
		a.control.PublishTheme(name)
	}
}

func (a *app) onFrame(now time.Time, views []clock.SlotView) {
	a.metrics.SetActivity(a.face.Transitions(), a.face.Cycles())
	a.health.Beat("frame")
	if a.hub != nil {
		a.hub.Publish(now, views)
	}
}

// shutdown stops the servers and records the run.
func (a *app) shutdown(mode string, s clock.Settings, theme string) {
	if a.control != nil {
		if err := a.control.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("control server shutdown")
		}
	}
	if a.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.mirror.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("mirror server shutdown")
		}
		cancel()
	}
	if a.db == nil {
		return
	}
	defer a.db.Close()

	if err := a.db.SavePreset(&storage.Preset{Name: storage.LastPreset, Theme: theme, Settings: s}); err != nil {
		log.Error().Err(err).Msg("failed to save last look")
	}
	session := &storage.Session{
		Mode:        mode,
		StartedAt:   a.started.Unix(),
		EndedAt:     storage.Now(),
		Transitions: a.face.Transitions(),
		Cycles:      a.face.Cycles(),
		Frames:      a.metrics.Snapshot().Frames,
	}
	if err := a.db.InsertSession(session); err != nil {
		log.Error().Err(err).Msg("failed to record session")
		return
	}
	if runs, total, transitions, err := a.db.GetUptimeStats(); err == nil {
		log.Info().
			Int("runs", runs).
			Dur("uptime", total).
			Int("transitions", transitions).
			Msg("session recorded")
	}
}

// programBridge forwards control requests into the bubbletea program.
// Program.Send blocks until the event loop takes the message, so each send
// gets its own goroutine.
type programBridge struct{ p *tea.Program }

func (b programBridge) ApplySettings(s clock.Settings) { go tui.SendSettings(b.p, s, true) }
func (b programBridge) SetTheme(name string)           { go tui.SendTheme(b.p, name, true) }
func (b programBridge) Regenerate()                    { go tui.SendRegenerate(b.p) }

// loopBridge forwards control requests into the headless loop and persists
// them to the config file.
type loopBridge struct {
	loop    *clock.Loop
	cfg     *config.Manager
	onTheme func(string)

	mu    sync.Mutex
	theme string
}

func (b *loopBridge) Theme() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.theme
}

func (b *loopBridge) ApplySettings(s clock.Settings) {
	b.loop.Post(func(f *clock.Face) { f.Config().Apply(s) })
	go b.save(func(c *config.Config) { c.Animation = config.FromSettings(s) })
}

func (b *loopBridge) SetTheme(name string) {
	b.setTheme(name, true)
}

func (b *loopBridge) setTheme(name string, persist bool) {
	i, ok := tui.ThemeIndex(name)
	if !ok {
		log.Warn().Str("theme", name).Msg("unknown theme")
		return
	}
	t := tui.Themes[i]
	b.mu.Lock()
	b.theme = t.Name
	b.mu.Unlock()
	b.loop.SetPalette(t)
	b.onTheme(t.Name)
	if persist {
		go b.save(func(c *config.Config) { c.Theme.Name = t.Name })
	}
}

func (b *loopBridge) Regenerate() {
	b.loop.Post(func(f *clock.Face) { f.Config().RegenerateRotations() })
}

func (b *loopBridge) save(fn func(*config.Config)) {
	if err := b.cfg.Update(fn); err != nil {
		log.Error().Err(err).Msg("failed to save settings")
	}
}

func setupLogger(level string) {
	log.Logger = zerolog.New(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"},
	).With().Timestamp().Logger()
	setLevel(level)
}

func setLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if os.Getenv("DEBUG") == "1" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
