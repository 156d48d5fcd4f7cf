package sheet

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	state    lipgloss.Style
	screenID lipgloss.Style
	uiType   lipgloss.Style
	key      lipgloss.Style
	value    lipgloss.Style
	warning  lipgloss.Style
	section  lipgloss.Style
	empty    lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		state:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		screenID: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		uiType:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		key:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		value:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:  lipgloss.NewStyle().MarginTop(1),
		empty:    lipgloss.NewStyle().Faint(true),
	}
}
