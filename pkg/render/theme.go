package render

import "github.com/charmbracelet/lipgloss"

// Theme defines colors and icons for terminal rendering.
type Theme struct {
	Name  string
	Link  lipgloss.Style
	Job   lipgloss.Style
	Muted lipgloss.Style
	Bold  lipgloss.Style
	Icons ThemeIcons
}

// ThemeIcons defines the icon set for a theme.
type ThemeIcons struct {
	Link   string
	Bullet string
}

// DefaultTheme returns a vibrant color theme.
func DefaultTheme() Theme {
	return Theme{
		Name:  "default",
		Link:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true), // blue
		Job:   lipgloss.NewStyle().Foreground(lipgloss.Color("34")),                 // green
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("242")),                // gray
		Bold:  lipgloss.NewStyle().Bold(true),
		Icons: ThemeIcons{
			Link:   "↗",
			Bullet: "·",
		},
	}
}

// OrcaTheme returns a muted, professional theme.
func OrcaTheme() Theme {
	return Theme{
		Name:  "orca",
		Link:  lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Underline(true), // pale blue
		Job:   lipgloss.NewStyle().Foreground(lipgloss.Color("108")),                // sage green
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),                // lighter gray
		Bold:  lipgloss.NewStyle().Bold(true),
		Icons: ThemeIcons{
			Link:   "→",
			Bullet: "·",
		},
	}
}

// MonoTheme returns a monochrome theme (no colors).
func MonoTheme() Theme {
	return Theme{
		Name:  "mono",
		Link:  lipgloss.NewStyle().Underline(true),
		Job:   lipgloss.NewStyle(),
		Muted: lipgloss.NewStyle(),
		Bold:  lipgloss.NewStyle().Bold(true),
		Icons: ThemeIcons{
			Link:   ">",
			Bullet: "-",
		},
	}
}

// ThemeByName returns a theme by name, defaulting to DefaultTheme.
func ThemeByName(name string) Theme {
	switch name {
	case "orca":
		return OrcaTheme()
	case "mono":
		return MonoTheme()
	default:
		return DefaultTheme()
	}
}
