package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"floatclock/internal/clock"
	"floatclock/internal/config"
)

// PanelWidth is the width of the settings panel including its border.
const PanelWidth = 34

// Field identifies one row of the settings panel.
type Field int

const (
	FieldScale Field = iota
	FieldSpread
	FieldFloatX
	FieldFloatY
	FieldRotation
	FieldSpeed
	FieldStyle
	FieldTilt
	FieldBounce
	FieldTheme
	fieldCount
)

var fieldLabels = [fieldCount]string{
	FieldScale:    "Scale",
	FieldSpread:   "Spread",
	FieldFloatX:   "Float X",
	FieldFloatY:   "Float Y",
	FieldRotation: "Rotation",
	FieldSpeed:    "Speed",
	FieldStyle:    "Style",
	FieldTilt:     "Tilt",
	FieldBounce:   "Bounce",
	FieldTheme:    "Theme",
}

var fieldDescriptions = [fieldCount]string{
	FieldScale:    "Digit height, fraction of the screen",
	FieldSpread:   "Horizontal spacing between digits",
	FieldFloatX:   "Sideways drift range",
	FieldFloatY:   "Vertical drift range",
	FieldRotation: "Tilt wobble in degrees",
	FieldSpeed:    "Length of the first drift cycle",
	FieldStyle:    "How digits change: fly or crossfade",
	FieldTilt:     "Random balanced tilts or the fixed table",
	FieldBounce:   "Little hop when a digit lands",
	FieldTheme:    "Colour theme",
}

// fieldSteps holds the change per arrow press and the range of each numeric
// field.
var fieldSteps = map[Field]struct {
	step   float64
	bounds config.Bounds
}{
	FieldScale:    {0.05, config.FontScaleBounds},
	FieldSpread:   {0.05, config.SpreadFactorBounds},
	FieldFloatX:   {0.005, config.FloatRangeXBounds},
	FieldFloatY:   {0.005, config.FloatRangeYBounds},
	FieldRotation: {1, config.RotationJitterBounds},
	FieldSpeed:    {1, config.BaseSpeedBounds},
}

// SettingsPanel is the side panel editing the animation config.
type SettingsPanel struct {
	Selected int
	Dirty    bool
}

// Description returns the help line for the selected row.
func (sp SettingsPanel) Description() string {
	if sp.Selected < 0 || sp.Selected >= int(fieldCount) {
		return "Adjust settings"
	}
	return fieldDescriptions[sp.Selected]
}

// Update handles keys while the panel is open
func (sp SettingsPanel) Update(msg tea.KeyMsg, m *Model) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return *m, tea.Quit
	case key.Matches(msg, keys.Escape), key.Matches(msg, keys.Settings):
		return m.closePanel()
	case key.Matches(msg, keys.Up):
		if sp.Selected > 0 {
			m.Panel.Selected--
		}
	case key.Matches(msg, keys.Down):
		if sp.Selected < int(fieldCount)-1 {
			m.Panel.Selected++
		}
	case key.Matches(msg, keys.Left):
		m.adjust(Field(sp.Selected), -1)
	case key.Matches(msg, keys.Right), key.Matches(msg, keys.Enter):
		m.adjust(Field(sp.Selected), 1)
	case key.Matches(msg, keys.Regenerate):
		m.Face.Config().RegenerateRotations()
		m.Panel.Dirty = true
	}
	return *m, nil
}

// adjust moves field one step in dir and applies it to the running face.
func (m *Model) adjust(f Field, dir int) {
	cfg := m.Face.Config()
	s := cfg.Settings()
	if fs, ok := fieldSteps[f]; ok {
		v := fieldValue(s, f) + fs.step*float64(dir)
		v, _ = fs.bounds.Clamp(v)
		setFieldValue(&s, f, v)
	}
	switch f {
	case FieldStyle:
		if s.Style == clock.StyleFly {
			s.Style = clock.StyleCrossfade
		} else {
			s.Style = clock.StyleFly
		}
	case FieldTilt:
		if s.RotationPolicy == clock.RotationBalanced {
			s.RotationPolicy = clock.RotationFixed
		} else {
			s.RotationPolicy = clock.RotationBalanced
		}
	case FieldBounce:
		s.EntryBounce = !s.EntryBounce
	case FieldTheme:
		m.ThemeIndex = (m.ThemeIndex + dir + len(Themes)) % len(Themes)
		ApplyTheme(m.Theme())
		m.themeChanged()
	}
	cfg.Apply(s)
	m.Panel.Dirty = true
}

func fieldValue(s clock.Settings, f Field) float64 {
	switch f {
	case FieldScale:
		return s.FontScale
	case FieldSpread:
		return s.SpreadFactor
	case FieldFloatX:
		return s.FloatRangeX
	case FieldFloatY:
		return s.FloatRangeY
	case FieldRotation:
		return s.RotationJitter
	case FieldSpeed:
		return s.BaseSpeed
	}
	return 0
}

func setFieldValue(s *clock.Settings, f Field, v float64) {
	// round away float noise from repeated steps
	v = float64(int64(v*1000+0.5*sign(v))) / 1000
	switch f {
	case FieldScale:
		s.FontScale = v
	case FieldSpread:
		s.SpreadFactor = v
	case FieldFloatX:
		s.FloatRangeX = v
	case FieldFloatY:
		s.FloatRangeY = v
	case FieldRotation:
		s.RotationJitter = v
	case FieldSpeed:
		s.BaseSpeed = v
	}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Render draws the panel for settings s and theme name.
func (sp SettingsPanel) Render(s clock.Settings, theme string, h int, helpLine string) string {
	values := [fieldCount]string{
		FieldScale:    fmt.Sprintf("%.2f", s.FontScale),
		FieldSpread:   fmt.Sprintf("%.2f", s.SpreadFactor),
		FieldFloatX:   fmt.Sprintf("%.3f", s.FloatRangeX),
		FieldFloatY:   fmt.Sprintf("%.3f", s.FloatRangeY),
		FieldRotation: fmt.Sprintf("%.0f°", s.RotationJitter),
		FieldSpeed:    fmt.Sprintf("%.0fs", s.BaseSpeed),
		FieldStyle:    s.Style.String(),
		FieldTilt:     s.RotationPolicy.String(),
		FieldBounce:   onOff(s.EntryBounce),
		FieldTheme:    theme,
	}

	inner := PanelWidth - 6 // border + padding
	var b strings.Builder
	b.WriteString(StyleHeader.Render("SETTINGS"))
	b.WriteString("\n\n")
	for i := Field(0); i < fieldCount; i++ {
		label := padRight(fieldLabels[i], 9)
		val := truncate(values[i], inner-12)
		row := "  " + label + " " + padLeft(val, inner-12)
		if int(i) == sp.Selected {
			row = StyleSelected.Render("> " + label + " " + padLeft(val, inner-12))
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(StyleHelpText.Render(truncate(sp.Description(), inner)))
	if helpLine != "" {
		b.WriteString("\n\n")
		b.WriteString(helpLine)
	}
	return StyleModal.Width(PanelWidth - 2).Height(maxi(h-2, 0)).Render(b.String())
}
