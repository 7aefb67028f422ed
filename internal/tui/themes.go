package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines a color scheme for the clock face and its panel
type Theme struct {
	Name       string
	Digits     [4]lipgloss.Color // dark/light alternating gradient
	Colon      lipgloss.Color
	Overlap    lipgloss.Color
	Background lipgloss.Color
	Border     lipgloss.Color
	Text       lipgloss.Color
	Active     lipgloss.Color
}

func (t Theme) DigitColor(i int) string { return string(t.Digits[i]) }
func (t Theme) SeparatorColor() string  { return string(t.Colon) }
func (t Theme) OverlapColor() string    { return string(t.Overlap) }

// Predefined themes. Lighter entries are pre-blended against the black
// background at their original opacity.
var Themes = []Theme{
	{
		Name:       "Ocean",
		Digits:     [4]lipgloss.Color{"#1f5fbf", "#5d93bf", "#1f5fbf", "#5d93bf"},
		Colon:      "#d9c27a",
		Overlap:    "#b3b3b3",
		Background: "#000000",
		Border:     "#2e7de9",
		Text:       "#a9b1d6",
		Active:     "#7aa2f7",
	},
	{
		Name:       "Grass",
		Digits:     [4]lipgloss.Color{"#2e8b57", "#9be37c", "#27764a", "#8ccc70"},
		Colon:      "#e0d07a",
		Overlap:    "#b3b3b3",
		Background: "#000000",
		Border:     "#41a6b5",
		Text:       "#c3e0b4",
		Active:     "#9ece6a",
	},
	{
		Name:       "Fantasy",
		Digits:     [4]lipgloss.Color{"#7b3fbf", "#ff9ad5", "#693699", "#e68bc0"},
		Colon:      "#f2d1ff",
		Overlap:    "#b3b3b3",
		Background: "#000000",
		Border:     "#bd93f9",
		Text:       "#e2d4f0",
		Active:     "#ff79c6",
	},
	{
		Name:       "Sunset",
		Digits:     [4]lipgloss.Color{"#e4572e", "#ffb26b", "#c24a27", "#e6a060"},
		Colon:      "#ffe3a3",
		Overlap:    "#b3b3b3",
		Background: "#000000",
		Border:     "#ff9e64",
		Text:       "#f5d6c0",
		Active:     "#ffb26b",
	},
}

// ThemeIndex finds a theme by case-insensitive name.
func ThemeIndex(name string) (int, bool) {
	for i, t := range Themes {
		if strings.EqualFold(t.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// ThemeNames lists the theme names in order.
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// ApplyTheme updates the global styles to match the theme
func ApplyTheme(t Theme) {
	ColorBg = t.Background
	ColorBorder = t.Border
	ColorText = t.Text
	ColorActive = t.Active

	StylePage = lipgloss.NewStyle().Background(ColorBg).Foreground(ColorText)
	StyleHeader = lipgloss.NewStyle().Bold(true).Foreground(ColorActive)
	StyleKey = lipgloss.NewStyle().Foreground(ColorActive).Bold(true)
	StyleSelected = lipgloss.NewStyle().Foreground(ColorBg).Background(ColorActive)
	StyleModal = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Background(ColorBg).
		Foreground(ColorText).
		Padding(1, 2)
	StyleHelpText = lipgloss.NewStyle().Foreground(ColorBorder).Italic(true)
}
