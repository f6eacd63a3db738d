package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	provider   lipgloss.Style
	account    lipgloss.Style
	detail     lipgloss.Style
	warning    lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
	creditKey  lipgloss.Style
	creditVal  lipgloss.Style
	badgeOK    lipgloss.Style
	badgeWarn  lipgloss.Style
	badgeError lipgloss.Style
	badgeFaint lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		provider:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		account:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		warning:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:    lipgloss.NewStyle().MarginTop(1),
		empty:      lipgloss.NewStyle().Faint(true),
		creditKey:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		creditVal:  lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		badgeOK:    lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		badgeWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		badgeError: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		badgeFaint: lipgloss.NewStyle().Faint(true),
	}
}
