package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style of the chat.
type Theme struct {
	Banner    lipgloss.Style
	Subtle    lipgloss.Style
	Question  lipgloss.Style
	Speaker   lipgloss.Style
	Answer    lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Debug     lipgloss.Style
	Spinner   lipgloss.Style
	Prompt    lipgloss.Style
	Primary   lipgloss.Color
	Muted     lipgloss.Color
	ErrorTint lipgloss.Color
	WarnTint  lipgloss.Color
	Text      lipgloss.Color
}

// newTheme derives every style from a small palette.
func newTheme(primary, muted, text, errTint, warnTint lipgloss.Color) Theme {
	return Theme{
		Primary:   primary,
		Muted:     muted,
		Text:      text,
		ErrorTint: errTint,
		WarnTint:  warnTint,

		Banner: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary),
		Subtle: lipgloss.NewStyle().
			Foreground(muted),
		Question: lipgloss.NewStyle().
			Foreground(text),
		Speaker: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary),
		Answer: lipgloss.NewStyle().
			Foreground(text).
			PaddingLeft(2),
		Error: lipgloss.NewStyle().
			Foreground(errTint).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(warnTint),
		Debug: lipgloss.NewStyle().
			Foreground(muted).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(muted).
			PaddingLeft(1),
		Spinner: lipgloss.NewStyle().
			Foreground(primary),
		Prompt: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary),
	}
}

// Default is the default theme.
var Default = newTheme(
	lipgloss.Color("#7c3aed"),
	lipgloss.Color("#737373"),
	lipgloss.Color("#fafafa"),
	lipgloss.Color("#ef4444"),
	lipgloss.Color("#f59e0b"),
)

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = newTheme(
	lipgloss.Color("#cba6f7"),
	lipgloss.Color("#6c7086"),
	lipgloss.Color("#cdd6f4"),
	lipgloss.Color("#f38ba8"),
	lipgloss.Color("#f9e2af"),
)

// ThemeByName returns the named theme, falling back to Default.
func ThemeByName(name string) Theme {
	switch name {
	case "catppuccin", "catppuccin-mocha", "mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
