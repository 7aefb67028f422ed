package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"floatclock/internal/clock"
)

// Config holds all clock configuration
type Config struct {
	Animation AnimationConfig `mapstructure:"animation"`
	Theme     ThemeConfig     `mapstructure:"theme"`
	Controls  ControlsConfig  `mapstructure:"controls"`
	TUI       TUIConfig       `mapstructure:"tui"`
	Control   ServerConfig    `mapstructure:"control"`
	Mirror    MirrorConfig    `mapstructure:"mirror"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type AnimationConfig struct {
	FontScale        float64 `mapstructure:"font_scale"`
	SpreadFactor     float64 `mapstructure:"spread_factor"`
	FloatRangeX      float64 `mapstructure:"float_range_x"`
	FloatRangeY      float64 `mapstructure:"float_range_y"`
	RotationJitter   float64 `mapstructure:"rotation_jitter"`
	BaseSpeedSeconds float64 `mapstructure:"base_speed_seconds"`
	Style            string  `mapstructure:"style"`           // fly | crossfade
	RotationPolicy   string  `mapstructure:"rotation_policy"` // balanced | fixed
	EntryBounce      bool    `mapstructure:"entry_bounce"`
}

type ThemeConfig struct {
	Name string `mapstructure:"name"`
}

type ControlsConfig struct {
	ShowOnStart bool `mapstructure:"show_on_start"`
}

type TUIConfig struct {
	FPS      int  `mapstructure:"fps"`
	Mouse    bool `mapstructure:"mouse"`
	ShowHelp bool `mapstructure:"show_help"`
}

type ServerConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenHost string `mapstructure:"listen_host"`
	ListenPort int    `mapstructure:"listen_port"`
}

type MirrorConfig struct {
	ServerConfig `mapstructure:",squash"`
	RateHz       int `mapstructure:"rate_hz"`
}

type StorageConfig struct {
	SQLitePath  string `mapstructure:"sqlite_path"`
	RestoreLast bool   `mapstructure:"restore_last"`
}

type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.ListenHost, s.ListenPort)
}

// Manager handles config loading and hot-reload
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	viper    *viper.Viper
	path     string
	onChange func(*Config)

	// configs this process wrote, oldest first, not yet seen superseded
	selfWrites []Config
}

const maxSelfWrites = 8

func setDefaults(v *viper.Viper) {
	d := clock.DefaultSettings()
	v.SetDefault("animation.font_scale", d.FontScale)
	v.SetDefault("animation.spread_factor", d.SpreadFactor)
	v.SetDefault("animation.float_range_x", d.FloatRangeX)
	v.SetDefault("animation.float_range_y", d.FloatRangeY)
	v.SetDefault("animation.rotation_jitter", d.RotationJitter)
	v.SetDefault("animation.base_speed_seconds", d.BaseSpeed)
	v.SetDefault("animation.style", d.Style.String())
	v.SetDefault("animation.rotation_policy", d.RotationPolicy.String())
	v.SetDefault("animation.entry_bounce", d.EntryBounce)
	v.SetDefault("theme.name", "Ocean")
	v.SetDefault("controls.show_on_start", true)
	v.SetDefault("tui.fps", 30)
	v.SetDefault("tui.mouse", true)
	v.SetDefault("tui.show_help", true)
	v.SetDefault("control.enabled", false)
	v.SetDefault("control.listen_host", "127.0.0.1")
	v.SetDefault("control.listen_port", 8787)
	v.SetDefault("mirror.enabled", false)
	v.SetDefault("mirror.listen_host", "127.0.0.1")
	v.SetDefault("mirror.listen_port", 8788)
	v.SetDefault("mirror.rate_hz", 10)
	v.SetDefault("storage.sqlite_path", "./data/floatclock.db")
	v.SetDefault("storage.restore_last", true)
	v.SetDefault("logging.file", "./data/floatclock.log")
	v.SetDefault("logging.level", "info")
}

// NewManager loads configPath. A missing file is not an error: the manager
// runs on defaults and Update creates the file on first write.
func NewManager(configPath string) (*Manager, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	exists := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
		log.Warn().Str("file", configPath).Msg("config file not found, using defaults")
		exists = false
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		config: cfg,
		viper:  v,
		path:   configPath,
	}

	if exists {
		// Watch for config changes
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Info().Str("file", e.Name).Msg("config file changed, reloading")
			m.reload()
		})
		v.WatchConfig()
	}

	return m, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	for _, err := range cfg.Clamp() {
		log.Warn().Err(err).Msg("config value clamped")
	}
	return &cfg, nil
}

// Get returns the current config (thread-safe)
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Settings returns the animation section as clock settings.
func (m *Manager) Settings() clock.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Animation.Settings()
}

// Path returns the config file location.
func (m *Manager) Path() string {
	return m.path
}

// SetOnChange registers a callback for config changes
func (m *Manager) SetOnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Update modifies config values and saves to file. The caller already holds
// the new values, so neither the write nor the file event it triggers reaches
// the change callback.
func (m *Manager) Update(fn func(*Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := *m.config
	fn(&next)
	for _, err := range next.Clamp() {
		log.Warn().Err(err).Msg("config value clamped")
	}
	m.config = &next

	// Write through a copy: values Set on the watched instance would
	// override later edits to the file.
	w := viper.New()
	w.SetConfigType("yaml")
	if err := w.MergeConfigMap(m.viper.AllSettings()); err != nil {
		return fmt.Errorf("copy config: %w", err)
	}
	a := next.Animation
	w.Set("animation.font_scale", a.FontScale)
	w.Set("animation.spread_factor", a.SpreadFactor)
	w.Set("animation.float_range_x", a.FloatRangeX)
	w.Set("animation.float_range_y", a.FloatRangeY)
	w.Set("animation.rotation_jitter", a.RotationJitter)
	w.Set("animation.base_speed_seconds", a.BaseSpeedSeconds)
	w.Set("animation.style", a.Style)
	w.Set("animation.rotation_policy", a.RotationPolicy)
	w.Set("animation.entry_bounce", a.EntryBounce)
	w.Set("theme.name", next.Theme.Name)

	if dir := filepath.Dir(m.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := w.WriteConfigAs(m.path); err != nil {
		return fmt.Errorf("write config %s: %w", m.path, err)
	}

	m.selfWrites = append(m.selfWrites, next)
	if len(m.selfWrites) > maxSelfWrites {
		m.selfWrites = m.selfWrites[len(m.selfWrites)-maxSelfWrites:]
	}
	return nil
}

// UpdateSettings stores s in the animation section and writes the file.
func (m *Manager) UpdateSettings(s clock.Settings) error {
	return m.Update(func(c *Config) {
		c.Animation = FromSettings(s)
	})
}

func (m *Manager) reload() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := decode(m.viper)
	if err != nil {
		log.Error().Err(err).Msg("failed to unmarshal config on reload")
		return
	}

	// An event for one of our own writes. It may be stale when writes come
	// in quick succession, so it never replaces newer values.
	for i, w := range m.selfWrites {
		if *cfg == w {
			m.selfWrites = m.selfWrites[i:]
			log.Debug().Msg("config reload matches own write, ignored")
			return
		}
	}
	m.selfWrites = nil

	m.config = cfg
	if m.onChange != nil {
		m.onChange(cfg)
	}
}

// Settings converts the section to clock settings. Resting tilts are left
// zero so the clock generates them.
func (a AnimationConfig) Settings() clock.Settings {
	return clock.Settings{
		FontScale:      a.FontScale,
		SpreadFactor:   a.SpreadFactor,
		FloatRangeX:    a.FloatRangeX,
		FloatRangeY:    a.FloatRangeY,
		RotationJitter: a.RotationJitter,
		BaseSpeed:      a.BaseSpeedSeconds,
		Style:          clock.ParseStyle(a.Style),
		RotationPolicy: clock.ParseRotationPolicy(a.RotationPolicy),
		EntryBounce:    a.EntryBounce,
	}
}

// FromSettings is the inverse of AnimationConfig.Settings.
func FromSettings(s clock.Settings) AnimationConfig {
	return AnimationConfig{
		FontScale:        s.FontScale,
		SpreadFactor:     s.SpreadFactor,
		FloatRangeX:      s.FloatRangeX,
		FloatRangeY:      s.FloatRangeY,
		RotationJitter:   s.RotationJitter,
		BaseSpeedSeconds: s.BaseSpeed,
		Style:            s.Style.String(),
		RotationPolicy:   s.RotationPolicy.String(),
		EntryBounce:      s.EntryBounce,
	}
}

// FrameInterval returns the TUI frame period.
func (t TUIConfig) FrameInterval() time.Duration {
	if t.FPS <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(t.FPS)
}
