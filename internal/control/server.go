package control

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"floatclock/internal/clock"
	"floatclock/internal/config"
	"floatclock/internal/health"
	"floatclock/internal/metrics"
	"floatclock/internal/storage"
)

// Bridge carries requests into the goroutine that owns the clock face.
// Implementations must not block.
type Bridge interface {
	ApplySettings(s clock.Settings)
	SetTheme(name string)
	Regenerate()
}

// PresetStore persists named looks. *storage.DB satisfies it.
type PresetStore interface {
	SavePreset(p *storage.Preset) error
	GetPreset(name string) (*storage.Preset, error)
	ListPresets() ([]*storage.Preset, error)
	DeletePreset(name string) error
}

// Options wires the server to the rest of the program. Only Bridge is
// required.
type Options struct {
	Bridge  Bridge
	Store   PresetStore
	Health  *health.Checker
	Metrics *metrics.Metrics
	Themes  []string

	// RateLimit caps mutating requests per second per client
	RateLimit int
}

// Server is the HTTP settings surface. Handlers only read the snapshot
// published by the face's goroutine and post changes back through Bridge.
type Server struct {
	app  *fiber.App
	opts Options
	host string
	port int

	mu       sync.RWMutex
	settings clock.Settings
	theme    string
}

// NewServer creates a new control server
func NewServer(host string, port int, opts Options) *Server {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          5 * time.Second,
	})

	s := &Server{
		app:      app,
		opts:     opts,
		host:     host,
		port:     port,
		settings: clock.DefaultSettings(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())

	s.app.Get("/health", s.handleHealth)
	s.app.Get("/metrics", s.handleMetrics)
	s.app.Get("/settings", s.handleGetSettings)
	s.app.Get("/presets", s.handleListPresets)

	// Mutations are throttled
	throttle := limiter.New(limiter.Config{
		Max:        s.opts.RateLimit,
		Expiration: time.Second,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		},
	})
	s.app.Patch("/settings", throttle, s.handlePatchSettings)
	s.app.Post("/theme/:name", throttle, s.handleTheme)
	s.app.Post("/rotations/regenerate", throttle, s.handleRegenerate)
	s.app.Put("/presets/:name", throttle, s.handleSavePreset)
	s.app.Delete("/presets/:name", throttle, s.handleDeletePreset)
	s.app.Post("/presets/:name/apply", throttle, s.handleApplyPreset)
}

// Publish stores the face's current settings and theme. It is safe to call
// from any goroutine.
func (s *Server) Publish(settings clock.Settings, theme string) {
	s.mu.Lock()
	s.settings = settings
	s.theme = theme
	s.mu.Unlock()
}

// PublishSettings replaces the settings half of the snapshot. Install it as
// a subscriber of the face's config.
func (s *Server) PublishSettings(settings clock.Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

func (s *Server) PublishTheme(theme string) {
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
}

// Snapshot returns the last published settings and theme.
func (s *Server) Snapshot() (clock.Settings, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, s.theme
}

type settingsResponse struct {
	Settings clock.Settings `json:"settings"`
	Theme    string         `json:"theme"`
	Warnings []string       `json:"warnings,omitempty"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status": "ok",
		"time":   time.Now().Unix(),
	}
	if s.opts.Health != nil {
		statuses := s.opts.Health.Check()
		resp["checks"] = statuses
		for _, st := range statuses {
			if !st.Healthy {
				resp["status"] = "degraded"
				return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
			}
		}
	}
	return c.JSON(resp)
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	if s.opts.Metrics == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "metrics disabled"})
	}
	return c.JSON(s.opts.Metrics.Snapshot())
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	settings, theme := s.Snapshot()
	return c.JSON(settingsResponse{Settings: settings, Theme: theme})
}

// handlePatchSettings merges the body over the current settings, so a body
// naming one field changes only that field.
func (s *Server) handlePatchSettings(c *fiber.Ctx) error {
	settings, theme := s.Snapshot()
	if err := c.BodyParser(&settings); err != nil {
		log.Warn().Err(err).Msg("invalid settings payload")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	settings, errs := config.ClampSettings(settings)
	warnings := make([]string, 0, len(errs))
	for _, err := range errs {
		warnings = append(warnings, err.Error())
	}

	s.Publish(settings, theme)
	s.opts.Bridge.ApplySettings(settings)

	log.Info().
		Float64("font_scale", settings.FontScale).
		Float64("spread", settings.SpreadFactor).
		Str("style", settings.Style.String()).
		Int("clamped", len(errs)).
		Msg("settings updated over http")

	return c.JSON(settingsResponse{Settings: settings, Theme: theme, Warnings: warnings})
}

func (s *Server) handleTheme(c *fiber.Ctx) error {
	name, ok := s.lookupTheme(c.Params("name"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "unknown theme",
			"themes": s.opts.Themes,
		})
	}
	settings, _ := s.Snapshot()
	s.Publish(settings, name)
	s.opts.Bridge.SetTheme(name)
	return c.JSON(fiber.Map{"status": "ok", "theme": name})
}

func (s *Server) handleRegenerate(c *fiber.Ctx) error {
	s.opts.Bridge.Regenerate()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

func (s *Server) handleListPresets(c *fiber.Ctx) error {
	if s.opts.Store == nil {
		return errNoStore(c)
	}
	presets, err := s.opts.Store.ListPresets()
	if err != nil {
		log.Error().Err(err).Msg("failed to list presets")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage error"})
	}
	if presets == nil {
		presets = []*storage.Preset{}
	}
	return c.JSON(presets)
}

// handleSavePreset stores the current look under :name. A body may override
// the theme or any settings field.
func (s *Server) handleSavePreset(c *fiber.Ctx) error {
	if s.opts.Store == nil {
		return errNoStore(c)
	}
	settings, theme := s.Snapshot()
	p := &storage.Preset{Name: c.Params("name"), Theme: theme, Settings: settings}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(p); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
		}
		p.Name = c.Params("name")
	}
	if p.Theme != "" {
		name, ok := s.lookupTheme(p.Theme)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown theme"})
		}
		p.Theme = name
	}
	p.Settings, _ = config.ClampSettings(p.Settings)
	p.UpdatedAt = 0

	if err := s.opts.Store.SavePreset(p); err != nil {
		log.Error().Err(err).Str("preset", p.Name).Msg("failed to save preset")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage error"})
	}
	log.Info().Str("preset", p.Name).Str("theme", p.Theme).Msg("preset saved")
	return c.JSON(p)
}

func (s *Server) handleDeletePreset(c *fiber.Ctx) error {
	if s.opts.Store == nil {
		return errNoStore(c)
	}
	if err := s.opts.Store.DeletePreset(c.Params("name")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage error"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleApplyPreset(c *fiber.Ctx) error {
	if s.opts.Store == nil {
		return errNoStore(c)
	}
	name := c.Params("name")
	p, err := s.opts.Store.GetPreset(name)
	if err != nil {
		log.Error().Err(err).Str("preset", name).Msg("failed to load preset")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage error"})
	}
	if p == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no such preset"})
	}

	settings, _ := config.ClampSettings(p.Settings)
	_, theme := s.Snapshot()
	if name, ok := s.lookupTheme(p.Theme); ok && name != "" {
		theme = name
		s.opts.Bridge.SetTheme(name)
	}
	s.Publish(settings, theme)
	s.opts.Bridge.ApplySettings(settings)

	log.Info().Str("preset", p.Name).Msg("preset applied")
	return c.JSON(settingsResponse{Settings: settings, Theme: theme})
}

// lookupTheme resolves name case-insensitively. With no theme list every
// name is accepted.
func (s *Server) lookupTheme(name string) (string, bool) {
	if len(s.opts.Themes) == 0 {
		return name, true
	}
	for _, t := range s.opts.Themes {
		if strings.EqualFold(t, name) {
			return t, true
		}
	}
	return "", false
}

func errNoStore(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "preset storage disabled"})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	log.Info().Str("addr", addr).Msg("starting control server")
	if err := s.app.Listen(addr); err != nil {
		return fmt.Errorf("control server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
