package transcript

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	body      lipgloss.Style
	meta      lipgloss.Style
	emergency lipgloss.Style
	rule      lipgloss.Style
	empty     lipgloss.Style
	section   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("35")),
		body:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		meta:      lipgloss.NewStyle().Faint(true),
		emergency: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		rule:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		empty:     lipgloss.NewStyle().Faint(true),
		section:   lipgloss.NewStyle().MarginTop(1),
	}
}
