package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme of the live view. Ramp colors are
// applied to field shades from low to high values.
type Theme struct {
	Name   string
	Accent lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Error  lipgloss.Color
	Ramp   []lipgloss.Color
}

var (
	ThemeMagma = Theme{
		Name:   "magma",
		Accent: lipgloss.Color("#fc8961"),
		Text:   lipgloss.Color("#fcfdbf"),
		Muted:  lipgloss.Color("#6b6b80"),
		Error:  lipgloss.Color("#ff4444"),
		Ramp: []lipgloss.Color{
			"#000004", "#1c1044", "#4f127b", "#812581", "#b5367a", "#e55064", "#fb8761", "#fec287", "#fcfdbf",
		},
	}

	ThemeViridis = Theme{
		Name:   "viridis",
		Accent: lipgloss.Color("#35b779"),
		Text:   lipgloss.Color("#fde725"),
		Muted:  lipgloss.Color("#5c6b7a"),
		Error:  lipgloss.Color("#ff4444"),
		Ramp: []lipgloss.Color{
			"#440154", "#472d7b", "#3b528b", "#2c728e", "#21918c", "#28ae80", "#5ec962", "#addc30", "#fde725",
		},
	}

	ThemeMinimal = Theme{
		Name:   "minimal",
		Accent: lipgloss.Color("#0088ff"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#888888"),
		Error:  lipgloss.Color("#ff0000"),
		Ramp:   []lipgloss.Color{"#ffffff"},
	}

	// Default theme
	CurrentTheme = ThemeMagma

	Themes = []Theme{
		ThemeMagma,
		ThemeViridis,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeMagma
}

// SetTheme changes the current theme
func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
}
