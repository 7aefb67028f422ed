package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog/log"

	"floatclock/internal/clock"
	"floatclock/internal/config"
	"floatclock/internal/health"
	"floatclock/internal/metrics"
)

var (
	ColorBg     = lipgloss.Color("#000000")
	ColorBorder = lipgloss.Color("#2e7de9")
	ColorText   = lipgloss.Color("#a9b1d6")
	ColorActive = lipgloss.Color("#7aa2f7")

	StylePage     = lipgloss.NewStyle().Background(ColorBg).Foreground(ColorText)
	StyleHeader   = lipgloss.NewStyle().Bold(true).Foreground(ColorActive)
	StyleKey      = lipgloss.NewStyle().Foreground(ColorActive).Bold(true)
	StyleSelected = lipgloss.NewStyle().Foreground(ColorBg).Background(ColorActive)
	StyleModal    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)
	StyleHelpText = lipgloss.NewStyle().Foreground(ColorBorder).Italic(true)
)

// ButtonLabel is the settings affordance in the bottom-right corner.
const ButtonLabel = " ⚙ settings "

// Global Keys
type KeyMap struct {
	Settings, Theme, Regenerate, Quit key.Binding
	Up, Down, Left, Right, Enter      key.Binding
	Escape                            key.Binding
}

var keys = KeyMap{
	Settings:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
	Theme:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
	Regenerate: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "new tilts")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "select")),
	Down:       key.NewBinding(key.WithKeys("down", "j")),
	Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "adjust")),
	Right:      key.NewBinding(key.WithKeys("right", "l")),
	Enter:      key.NewBinding(key.WithKeys("enter", " ")),
	Escape:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
}

// ShortHelp implements help.KeyMap for the clock screen.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Settings, k.Theme, k.Regenerate, k.Quit}
}

// FullHelp implements help.KeyMap for the settings panel.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Left},
		{k.Regenerate, k.Escape},
	}
}

// Hooks observe the model from outside the UI goroutine. Both run on the UI
// goroutine and must not block. Settings changes are observed through the
// face's config instead.
type Hooks struct {
	OnFrame func(now time.Time, views []clock.SlotView)
	OnTheme func(name string)
}

// Main Model
type Model struct {
	Config  *config.Manager
	Face    *clock.Face
	Metrics *metrics.Metrics
	Health  *health.Checker
	Hooks   Hooks

	ThemeIndex    int
	Panel         SettingsPanel
	Help          help.Model
	ShowHelp      bool
	ShowOnStart   bool
	FrameInterval time.Duration

	Width, Height int

	now   time.Time
	views []clock.SlotView
}

// NewModel binds a model to face. cfg may be nil; the model then runs on
// the face's current settings and never persists.
func NewModel(face *clock.Face, cfg *config.Manager) Model {
	m := Model{
		Config:        cfg,
		Face:          face,
		Help:          help.New(),
		ShowHelp:      true,
		ShowOnStart:   true,
		FrameInterval: time.Duration(AnimationTickMs) * time.Millisecond,
	}
	if cfg != nil {
		c := cfg.Get()
		if i, ok := ThemeIndex(c.Theme.Name); ok {
			m.ThemeIndex = i
		}
		m.ShowHelp = c.TUI.ShowHelp
		m.ShowOnStart = c.Controls.ShowOnStart
		m.FrameInterval = c.TUI.FrameInterval()
	}
	ApplyTheme(m.Theme())
	return m
}

// Theme returns the active theme
func (m Model) Theme() Theme {
	return Themes[m.ThemeIndex]
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("floatclock"),
		MountCmd(),
	)
}

// Messages
type SettingsMsg struct {
	Settings clock.Settings
	Persist  bool
}
type ThemeMsg struct {
	Name    string
	Persist bool
}
type RegenerateMsg struct{}
type savedMsg struct{ err error }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleInput(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.Help.Width = msg.Width

	case MountMsg:
		t := time.Time(msg)
		m.Face.Mount(t)
		if m.ShowOnStart {
			m.Face.Controls().Tap()
		}
		m.frame(t)
		m.themeChanged()
		return m, tea.Batch(ClockTickCmd(), AnimationTickCmd(m.FrameInterval))

	case TickMsg:
		m.Face.Tick(time.Time(msg))
		if m.Metrics != nil {
			m.Metrics.RecordTick()
		}
		if m.Health != nil {
			m.Health.Beat("tick")
		}
		return m, ClockTickCmd()

	case AnimationTickMsg:
		m.frame(time.Time(msg))
		return m, AnimationTickCmd(m.FrameInterval)

	case SettingsMsg:
		s, errs := config.ClampSettings(msg.Settings)
		for _, err := range errs {
			log.Warn().Err(err).Msg("settings clamped")
		}
		m.Face.Config().Apply(s)
		if msg.Persist {
			return m, m.saveCmd()
		}
	case ThemeMsg:
		i, ok := ThemeIndex(msg.Name)
		if !ok {
			log.Warn().Str("theme", msg.Name).Msg("unknown theme")
			return m, nil
		}
		m.ThemeIndex = i
		ApplyTheme(m.Theme())
		m.themeChanged()
		if msg.Persist {
			return m, m.saveCmd()
		}
	case RegenerateMsg:
		m.Face.Config().RegenerateRotations()
	case savedMsg:
		if msg.err != nil {
			log.Error().Err(msg.err).Msg("failed to save settings")
		}
	}
	return m, nil
}

// frame advances the face to t and captures the views for View.
func (m *Model) frame(t time.Time) {
	m.Face.Frame(t)
	m.now = t
	m.views = m.Face.Views(t, m.Theme())
	if m.Metrics != nil {
		m.Metrics.SetActivity(m.Face.Transitions(), m.Face.Cycles())
	}
	if m.Health != nil {
		m.Health.Beat("frame")
	}
	if m.Hooks.OnFrame != nil {
		m.Hooks.OnFrame(t, m.views)
	}
}

func (m *Model) themeChanged() {
	if m.Hooks.OnTheme != nil {
		m.Hooks.OnTheme(m.Theme().Name)
	}
}

// saveCmd writes the current look to the config file off the UI goroutine.
func (m Model) saveCmd() tea.Cmd {
	if m.Config == nil {
		return nil
	}
	cfg := m.Config
	s := m.Face.Config().Settings()
	theme := m.Theme().Name
	return func() tea.Msg {
		err := cfg.Update(func(c *config.Config) {
			c.Animation = config.FromSettings(s)
			c.Theme.Name = theme
		})
		return savedMsg{err}
	}
}

func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	controls := m.Face.Controls()

	// 1. Panel Overlay Override
	if controls.MenuOpen() {
		return m.Panel.Update(msg, &m)
	}

	// 2. Global Hotkeys
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Settings):
		controls.OpenMenu()
		m.Panel.Dirty = false
		return m, nil
	case key.Matches(msg, keys.Theme):
		m.ThemeIndex = (m.ThemeIndex + 1) % len(Themes)
		ApplyTheme(m.Theme())
		m.themeChanged()
		controls.Tap()
		return m, m.saveCmd()
	case key.Matches(msg, keys.Regenerate):
		m.Face.Config().RegenerateRotations()
	}

	// any other key wakes the button
	controls.Tap()
	return m, nil
}

func (m Model) closePanel() (tea.Model, tea.Cmd) {
	m.Face.Controls().CloseMenu()
	if !m.Panel.Dirty {
		return m, nil
	}
	m.Panel.Dirty = false
	return m, m.saveCmd()
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	controls := m.Face.Controls()
	if controls.MenuOpen() {
		if msg.X < m.Width-PanelWidth {
			return m.closePanel()
		}
		return m, nil
	}
	if m.onButton(msg.X, msg.Y) && controls.State() == clock.ControlsVisible {
		controls.OpenMenu()
		m.Panel.Dirty = false
		return m, nil
	}
	controls.Tap()
	return m, nil
}

// onButton reports whether cell (x, y) is on the settings button.
func (m Model) onButton(x, y int) bool {
	return y == m.Height-1 && x >= m.Width-runewidth.StringWidth(ButtonLabel)
}

func (m Model) View() string {
	if m.Width == 0 || m.Height == 0 {
		return ""
	}
	if m.Metrics != nil {
		defer m.Metrics.StartFrame().Done()
	}

	t := m.Theme()
	s := m.Face.Config().Settings()
	menuOpen := m.Face.Controls().MenuOpen()

	cols := m.Width
	if menuOpen {
		cols = maxi(m.Width-PanelWidth, 0)
	}
	rows := maxi(m.Height-1, 0)
	body := RenderFace(m.views, s.FontScale, cols, rows, t).String()
	if menuOpen {
		helpLine := ""
		if m.ShowHelp {
			helpLine = m.Help.FullHelpView(keys.FullHelp())
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.Panel.Render(s, t.Name, rows, helpLine))
	}
	return body + "\n" + m.renderStatus()
}

// renderStatus draws the bottom line: key help on the left and the settings
// button on the right, both faded with the controls.
func (m Model) renderStatus() string {
	t := m.Theme()
	controls := m.Face.Controls()
	opacity := controls.Opacity(m.now)
	if controls.MenuOpen() {
		opacity = 1
	}
	bw := runewidth.StringWidth(ButtonLabel)
	left := ""
	if m.ShowHelp && opacity > 0.5 {
		left = m.Help.ShortHelpView(keys.ShortHelp())
		if lipgloss.Width(left) > m.Width-bw-1 {
			left = ""
		}
	}
	if gap := m.Width - bw - lipgloss.Width(left); gap > 0 {
		left += strings.Repeat(" ", gap)
	}

	page := lipgloss.NewStyle().Background(t.Background)
	if opacity <= 0 {
		return page.Render(strings.Repeat(" ", m.Width))
	}
	button := page.Foreground(fade(t.Active, t.Background, opacity)).Bold(true)
	return page.Render(left) + button.Render(ButtonLabel)
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
func maxi(a, b int) int {
	if a > b {
		return a
	}
	return b
}
func mini(a, b int) int {
	if a < b {
		return a
	}
	return b
}
func truncate(s string, n int) string { return runewidth.Truncate(s, n, "") }
func padRight(s string, n int) string { return runewidth.FillRight(s, n) }
func padLeft(s string, n int) string  { return runewidth.FillLeft(s, n) }

func SendSettings(p *tea.Program, s clock.Settings, persist bool) { p.Send(SettingsMsg{s, persist}) }
func SendTheme(p *tea.Program, name string, persist bool)         { p.Send(ThemeMsg{name, persist}) }
func SendRegenerate(p *tea.Program)                               { p.Send(RegenerateMsg{}) }
